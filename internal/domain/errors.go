package domain

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrEmptyPattern      = errors.New("pattern has no steps")
	ErrInvalidStep       = errors.New("invalid pattern step")
	ErrNotRunning        = errors.New("session not running")
	ErrInvalidTransition = errors.New("invalid transition")
)
