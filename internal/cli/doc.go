// Package cli implements the command-line interface for catchlottery.
//
// The root command runs the pipeline once: it resolves the effective draw day, skips the
// run when nothing is scheduled or the saved file is already current, and otherwise
// fetches, extracts and writes the results. Failures are reported through the configured
// notifiers and failure log, and map to the process exit status.
//
// The schedule, show and encrypt-secret subcommands inspect the draw calendar, print the
// saved results and prepare encrypted secrets for the config file.
package cli
