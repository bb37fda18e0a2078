package models

import "errors"

// Error kinds returned by the engine. Callers match them with errors.Is;
// the wrapping message carries the details.
var (
	ErrAlreadyExists       = errors.New("already exists")
	ErrNotFound            = errors.New("not found")
	ErrCannotDelete        = errors.New("cannot delete")
	ErrIdentityUnavailable = errors.New("identity unavailable")
	ErrUnknownLanguage     = errors.New("unknown language")
	ErrUnknownStatus       = errors.New("unknown status")
	ErrValidationFailed    = errors.New("validation failed")
	ErrSpeechUnavailable   = errors.New("speech synthesis unavailable")

	// ErrDuplicateKey is reported by storage when a unique constraint fires.
	// It is translated by the engine and never returned to callers.
	ErrDuplicateKey = errors.New("duplicate key")
)
