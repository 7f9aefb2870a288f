package ssa

import "github.com/google/uuid"

// NewRunID returns a fresh identifier for a scheduler run (and the
// digests/snapshots/notifications tagged with it).
func NewRunID() string {
	return uuid.NewString()
}
