package models

import "errors"

// Custom errors
var (
	ErrNotFound          = errors.New("record not found")
	ErrInvalidID         = errors.New("invalid ID format")
	ErrDuplicatePick     = errors.New("pick already exists for match, prediction type and day")
	ErrInsufficientData  = errors.New("insufficient historical data to build features")
	ErrModelUnavailable  = errors.New("model artifact unavailable or corrupt")
	ErrUnknownPrediction = errors.New("unknown prediction type")
)
