package app

import "errors"

// Sentinel kinds for manager errors.
var (
	ErrAlreadyStarted = errors.New("manager already started")
	ErrSystemExists   = errors.New("system already registered")
)
