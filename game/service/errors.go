package service

import "errors"

var (
	// ErrSessionNotFound is returned for unknown session IDs
	ErrSessionNotFound = errors.New("session not found")

	// ErrConfigNotFound is returned for unknown rule presets
	ErrConfigNotFound = errors.New("configuration not found")

	// ErrTooManySelections is returned when a bulk select exceeds MaxBulkSelections
	ErrTooManySelections = errors.New("too many tile ids")
)

// MaxBulkSelections caps the tile IDs accepted by one SelectTiles call
const MaxBulkSelections = 100
