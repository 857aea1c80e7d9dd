package repository

import (
	"errors"

	"github.com/SFZPL/tms-sub000/internal/domain/availability"
)

// Sentinel kinds for scheduling-store errors.
var (
	ErrNotFound          = availability.ErrDesignerNotFound
	ErrUnknownEmployee   = errors.New("unknown employee")
	ErrInvalidCommitment = errors.New("invalid commitment")
	ErrInvalidEmployee   = errors.New("invalid employee")
)
