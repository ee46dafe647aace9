package pipeline

import (
	"fmt"
	"path/filepath"
	"runtime"
)

// Process exit codes
const (
	ExitSuccess        = 0
	ExitFetchFailure   = 1
	ExitExtractFailure = 2
	ExitPersistFailure = 3
	ExitConfigError    = 4
)

// Kind identifies the stage group a failure belongs to
type Kind int

const (
	FetchFailure Kind = iota + 1
	ExtractFailure
	PersistFailure
)

func (k Kind) String() string {
	switch k {
	case FetchFailure:
		return "fetch"
	case ExtractFailure:
		return "extract"
	case PersistFailure:
		return "persist"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Title is the human-readable headline used in notifications and log records
func (k Kind) Title() string {
	switch k {
	case FetchFailure:
		return "Unable to fetch the latest lottery results (step.1)"
	case ExtractFailure:
		return "Unexpected error while parsing the latest lottery results (step.2)"
	case PersistFailure:
		return "Unexpected error while writing the lottery results file (step.3)"
	default:
		return "Unexpected error"
	}
}

// ExitCode maps the failure kind to the process exit status
func (k Kind) ExitCode() int {
	switch k {
	case FetchFailure:
		return ExitFetchFailure
	case ExtractFailure:
		return ExitExtractFailure
	case PersistFailure:
		return ExitPersistFailure
	default:
		return ExitExtractFailure
	}
}

// StageError is a failed pipeline stage
type StageError struct {
	Kind     Kind
	Title    string
	Err      error
	// Location is the file:line of the stage call that failed. Err carries the detail
	// from inside that call.
	Location string
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Title, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// newStageError records the caller's position as the failure location
func newStageError(kind Kind, err error) *StageError {
	loc := "unknown"
	if _, file, line, ok := runtime.Caller(1); ok {
		loc = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}
	return &StageError{
		Kind:     kind,
		Title:    kind.Title(),
		Err:      err,
		Location: loc,
	}
}
