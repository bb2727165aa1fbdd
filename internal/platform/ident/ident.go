package ident

import "github.com/google/uuid"

// New returns a unique identifier for a stored record. UUIDv7 combines a
// time-ordered prefix with random bits, so ids sort roughly by creation time
// and collisions are negligible at the record volumes involved.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		// rand failure; fall back to the purely random variant
		return uuid.NewString()
	}
	return id.String()
}
