package pipeline

// State is a step of a pipeline run
type State int

const (
	StateIdle State = iota
	StateScheduleChecked
	StateSkipped
	StateFetching
	StateFetched
	StateExtracting
	StateExtracted
	StatePersisting
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateIdle:            "idle",
	StateScheduleChecked: "schedule_checked",
	StateSkipped:         "skipped",
	StateFetching:        "fetching",
	StateFetched:         "fetched",
	StateExtracting:      "extracting",
	StateExtracted:       "extracted",
	StatePersisting:      "persisting",
	StateDone:            "done",
	StateFailed:          "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
