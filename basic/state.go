package basic

// State is the execution state of an Engine.
type State int32

//go:generate go tool stringer -linecomment -type=State
const (
	STATE_IDLE    State = iota // Idle
	STATE_RUNNING              // Running
	STATE_HALTED               // Halted
	STATE_ABORTED              // Aborted
)
