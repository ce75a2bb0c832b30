// Package projection pairs a domain aggregate with the timestamps its store keeps for it.
package projection

import "time"

// Metadata holds the store-managed timestamps of a record.
type Metadata struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Stamp returns metadata for a write at now. A nil previous marks a first write.
func Stamp(now time.Time, previous *Metadata) Metadata {
	now = now.UTC()
	if previous == nil || previous.CreatedAt.IsZero() {
		return Metadata{CreatedAt: now, UpdatedAt: now}
	}
	return Metadata{CreatedAt: previous.CreatedAt, UpdatedAt: now}
}

// Projection is an aggregate as read from a store.
type Projection[T any] struct {
	Entity   T
	Metadata Metadata
}

// New wraps entity with UTC-normalised timestamps.
func New[T any](entity T, createdAt, updatedAt time.Time) *Projection[T] {
	return &Projection[T]{
		Entity:   entity,
		Metadata: Metadata{CreatedAt: createdAt.UTC(), UpdatedAt: updatedAt.UTC()},
	}
}
