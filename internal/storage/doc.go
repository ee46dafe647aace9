// Package storage persists formatted draw results to a single flat output file.
//
// The storage package owns the output file: it writes the full result set for a run,
// overwriting any earlier file, and reads it back so the version guard can tell whether
// the saved results already belong to the current draw day.
package storage
