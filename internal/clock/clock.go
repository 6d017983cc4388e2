// Package clock provides injectable time and ID sources. Every code path
// that reads the wall clock or mints an identifier takes these as
// dependencies so tests can pin both.
package clock

import (
	"time"

	"github.com/google/uuid"
)

// Clock supplies the current wall-clock time in UTC.
type Clock interface {
	Now() time.Time
}

// IDSource mints opaque unique identifiers (UUID v4 strings in production).
type IDSource interface {
	NewID() string
}

// System reads time.Now. The zero value is usable.
type System struct{}

// Now returns the current time in UTC.
func (System) Now() time.Time { return time.Now().UTC() }

// UUIDSource mints random UUIDs. The zero value is usable.
type UUIDSource struct{}

// NewID returns a new UUID v4 string.
func (UUIDSource) NewID() string { return uuid.New().String() }

// Fixed is a Clock pinned to a single instant, for tests.
type Fixed struct {
	T time.Time
}

// Now returns the pinned instant.
func (f Fixed) Now() time.Time { return f.T }

// SequenceIDs returns ids from the given list in order, then falls back to
// random UUIDs. For tests that need predictable identifiers.
type SequenceIDs struct {
	IDs []string
	i   int
}

// NewID returns the next queued id, or a random UUID when exhausted.
func (s *SequenceIDs) NewID() string {
	if s.i < len(s.IDs) {
		id := s.IDs[s.i]
		s.i++
		return id
	}
	return uuid.New().String()
}
