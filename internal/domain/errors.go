package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrLockHeld          = errors.New("lock already held")
	ErrVenueNotSupported = errors.New("venue/asset combination not supported")
	ErrInvalidPlan       = errors.New("invalid plan payload")
	ErrNotConfirmed      = errors.New("transaction not yet confirmed")
	ErrConfirmFailed     = errors.New("transaction confirmation failed")
	ErrHistoryWrite      = errors.New("allocation history write failed")
)
