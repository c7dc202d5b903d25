package link

import (
	"time"

	"github.com/google/uuid"
)

// Link is an alias pointing at a target URI.
//
// UpdatedAt is the link's version token. Every accepted mutation, tombstoning
// included, moves it strictly forward; clients send it back to make their
// next write conditional.
type Link struct {
	ID          uuid.UUID
	Slug        *string
	URI         string
	Description string
	Deleted     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Version returns the link's version token.
func (l Link) Version() time.Time {
	return l.UpdatedAt
}

// NewLink is the creation payload. A nil Slug creates a link without alias.
type NewLink struct {
	Slug        *string
	URI         string
	Description string
}

// PatchOp says what an update does to an optional field.
type PatchOp uint8

const (
	// PatchUnset leaves the field as it is.
	PatchUnset PatchOp = iota
	// PatchNull clears the field.
	PatchNull
	// PatchValue replaces the field.
	PatchValue
)

func (op PatchOp) String() string {
	switch op {
	case PatchUnset:
		return "unset"
	case PatchNull:
		return "null"
	case PatchValue:
		return "value"
	default:
		return "invalid"
	}
}

// SlugPatch is the tri-state change to a link's slug. The zero value leaves
// the slug untouched.
type SlugPatch struct {
	Op    PatchOp
	Value string
}

func KeepSlug() SlugPatch           { return SlugPatch{Op: PatchUnset} }
func ClearSlug() SlugPatch          { return SlugPatch{Op: PatchNull} }
func SetSlug(slug string) SlugPatch { return SlugPatch{Op: PatchValue, Value: slug} }
func (p SlugPatch) IsSet() bool     { return p.Op != PatchUnset }

// Apply returns the slug that results from applying p to current.
func (p SlugPatch) Apply(current *string) *string {
	switch p.Op {
	case PatchNull:
		return nil
	case PatchValue:
		v := p.Value
		return &v
	default:
		return current
	}
}

// Ptr returns the new slug for a set patch, nil when the patch clears it.
// It is meaningless for an unset patch.
func (p SlugPatch) Ptr() *string {
	return p.Apply(nil)
}

// LinkUpdate is a partial update. Nil URI or Description leave the field
// untouched; those fields cannot be cleared.
type LinkUpdate struct {
	Slug        SlugPatch
	URI         *string
	Description *string
}

// IsEmpty reports whether u changes no field. An empty update still bumps
// the version when applied.
func (u LinkUpdate) IsEmpty() bool {
	return !u.Slug.IsSet() && u.URI == nil && u.Description == nil
}

// VersionTime normalizes t to the resolution version tokens are kept at:
// whole seconds, UTC. The HTTP date format that carries tokens to clients
// has no finer resolution.
func VersionTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// NextVersion returns the version a row at prev takes when mutated at now.
// The result is strictly greater than prev even when several mutations land
// within the same second, so no two states of a row share a token.
func NextVersion(prev, now time.Time) time.Time {
	now = VersionTime(now)
	if bumped := VersionTime(prev).Add(time.Second); now.Before(bumped) {
		return bumped
	}
	return now
}
