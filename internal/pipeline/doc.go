// Package pipeline runs one catchlottery extraction from schedule check to saved file.
//
// A run moves through a fixed sequence of states:
//
//	Idle -> ScheduleChecked -> Skipped
//	Idle -> ScheduleChecked -> Fetching -> Fetched -> Extracting -> Extracted -> Persisting -> Done
//
// Fetching, Extracting and Persisting can end in Failed. A failure is returned as a
// *StageError whose Kind selects the process exit code, and is handed to the failure
// reporter before Run returns.
package pipeline
