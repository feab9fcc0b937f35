package mapping

import (
	"context"
	"time"
)

// Direction selects which side of a mapping is used as the lookup key.
type Direction int

const (
	// Forward keys lookups by the remote (source) ID.
	Forward Direction = iota
	// Reverse keys lookups by the local (target) ID.
	Reverse
)

// Opposite returns the other lookup direction.
func (d Direction) Opposite() Direction {
	if d == Forward {
		return Reverse
	}
	return Forward
}

// Record is a stored correspondence between a remote entity ID and a
// local entity ID within a named namespace.
type Record struct {
	ID        uint
	Model     string
	SourceID  string
	TargetID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Key returns the lookup key of the record for the given direction.
func (r Record) Key(dir Direction) string {
	if dir == Reverse {
		return r.TargetID
	}
	return r.SourceID
}

// Counterpart returns the mapped-to ID of the record for the given direction.
func (r Record) Counterpart(dir Direction) string {
	if dir == Reverse {
		return r.SourceID
	}
	return r.TargetID
}

// Repository persists mapping records.
type Repository interface {
	// Find returns the counterpart ID for the given key in the given
	// direction, or shared.ErrNotFound when no mapping exists.
	Find(ctx context.Context, model string, dir Direction, key string) (string, error)

	// Insert stores a new mapping row.
	Insert(ctx context.Context, model, sourceID, targetID string) error

	// Delete removes the mapping row keyed by the given direction.
	// Deleting a missing row is not an error.
	Delete(ctx context.Context, model string, dir Direction, key string) error

	// ListByModel returns every record in a namespace, for cache prefetch.
	ListByModel(ctx context.Context, model string) ([]Record, error)
}

// Resolver creates the counterpart entity for an unmapped ID during
// Synchronize. It returns the counterpart ID, or an empty string when the
// entity cannot be resolved (not an error). The resolver is responsible
// for not duplicating entities, e.g. by checking for an existing entity
// with the same natural key before creating a new one.
type Resolver func(ctx context.Context, id string, hint any) (string, error)
