package models

import "errors"

// Custom errors
var (
	ErrNotFound           = errors.New("record not found")
	ErrDuplicateKey       = errors.New("duplicate key violation")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidOdds        = errors.New("invalid decimal odds")
	ErrStorageUnavailable = errors.New("storage unavailable")
)
