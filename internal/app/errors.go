package service

import "errors"

// Sentinel error kinds for the engine facade.
var (
	ErrNotConfigured  = errors.New("engine is missing a collaborator")
	ErrNoRosterSource = errors.New("no roster source configured")
)
