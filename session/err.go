package session

import (
	"errors"
)

var (
	ErrNoListener = errors.New(f("no session listener configured"))
)
