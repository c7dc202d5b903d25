package link

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the durable home of links.
//
// ConditionalUpdate and ConditionalTombstone are the compare-and-swap
// primitives of the concurrency protocol. Each must run as one atomic
// statement against the backing store: the version predicate and the write
// are never split into a read followed by a write. Both must move updated_at
// strictly forward (see NextVersion) whenever they apply.
//
// Storage faults are returned as errx.Unavailable errors. Lookups that miss
// return errx.NotFound.
type Store interface {
	// ListLive returns every link that is not tombstoned.
	ListLive(ctx context.Context) ([]Link, error)

	// GetByID returns the link regardless of tombstone state.
	GetByID(ctx context.Context, id uuid.UUID) (Link, error)

	// GetBySlug returns the live link carrying slug. When several live links
	// share a slug, the most recently updated one wins.
	GetBySlug(ctx context.Context, slug string) (Link, error)

	// SlugTombstoned reports whether a tombstoned link carries slug.
	SlugTombstoned(ctx context.Context, slug string) (bool, error)

	// Exists reports whether any row, live or tombstoned, has id.
	Exists(ctx context.Context, id uuid.UUID) (bool, error)

	// IsDeleted returns the tombstone flag. Unknown ids are errx.NotFound.
	IsDeleted(ctx context.Context, id uuid.UUID) (bool, error)

	// Insert assigns an id and sets created_at = updated_at = now.
	Insert(ctx context.Context, nl NewLink) (Link, error)

	// ConditionalUpdate applies u if and only if the row's updated_at is not
	// after notModifiedSince. ok is false when the predicate fails or the id
	// is unknown; nothing is written in that case.
	ConditionalUpdate(ctx context.Context, id uuid.UUID, u LinkUpdate, notModifiedSince time.Time) (l Link, ok bool, err error)

	// ConditionalTombstone sets deleted and bumps updated_at if and only if
	// updated_at is not after notModifiedSince. Re-tombstoning a deleted row
	// whose predicate holds reports true.
	ConditionalTombstone(ctx context.Context, id uuid.UUID, notModifiedSince time.Time) (bool, error)
}

// Clock supplies the current time to stores. Tests pin it.
type Clock func() time.Time
