package session

// Mode routes session input.
type Mode int32

//go:generate go tool stringer -linecomment -type=Mode
const (
	MODE_MENU  Mode = iota // menu
	MODE_BASIC             // basic
)
