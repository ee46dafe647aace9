// Package report delivers pipeline failures to their three destinations: the notifier
// channels, a timestamp-named log artifact on disk and the console.
package report
