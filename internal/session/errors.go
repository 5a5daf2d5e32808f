package session

import "errors"

var (
	ErrNotLoggedIn     = errors.New("not logged in")
	ErrAlreadyLoggedIn = errors.New("already logged in")
	ErrInvalidUnit     = errors.New("unit must be positive")
)
