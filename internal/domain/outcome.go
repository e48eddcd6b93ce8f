package domain

type Lifecycle string

const (
	LifecycleInProgress Lifecycle = "in_progress"
	LifecycleCompleted  Lifecycle = "completed"
)

type Outcome string

const (
	OutcomeSuccess       Outcome = "success"
	OutcomeFailure       Outcome = "failure"
	OutcomeIndeterminate Outcome = "indeterminate"
)

// OutcomeSignals are the raw, possibly conflicting fields a record reports
// about how it ended.
type OutcomeSignals struct {
	Outcome string `json:"outcome,omitempty"`
	Success *bool  `json:"success,omitempty"`
	Status  string `json:"status,omitempty"`
}

// JoinStrategy records how a unit reference was resolved.
type JoinStrategy string

const (
	JoinedDirect JoinStrategy = "direct"
	JoinedDevice JoinStrategy = "device"
	JoinedNone   JoinStrategy = "none"
)
