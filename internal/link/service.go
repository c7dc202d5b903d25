package link

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/sundayezeilo/linkstore/internal/errx"
	"github.com/sundayezeilo/linkstore/internal/metrics"
)

// Outcome classifies the result of a link operation. Outcomes are business
// results, not errors; only storage faults come back as errors.
type Outcome uint8

const (
	_ Outcome = iota
	// Found: the link exists and is live.
	Found
	// Applied: a conditional update was written.
	Applied
	// Removed: a conditional tombstone was written.
	Removed
	// Conflict: the link changed after the client's version token.
	Conflict
	// Gone: the link is tombstoned.
	Gone
	// NotFound: no link has the id (or slug).
	NotFound
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case Applied:
		return "applied"
	case Removed:
		return "removed"
	case Conflict:
		return "conflict"
	case Gone:
		return "gone"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Result carries an outcome and, for Found, Applied and Gone, the link.
type Result struct {
	Outcome Outcome
	Link    Link
}

// Service enforces the link mutation rules on top of a Store's
// compare-and-swap primitives.
type Service interface {
	// List returns all live links.
	List(ctx context.Context) ([]Link, error)

	// Create inserts a new live link.
	Create(ctx context.Context, nl NewLink) (Link, error)

	// Read yields Found, Gone or NotFound.
	Read(ctx context.Context, id uuid.UUID) (Result, error)

	// Update yields Applied, Conflict, Gone or NotFound. A tombstoned link is
	// Gone whatever the version token says.
	Update(ctx context.Context, id uuid.UUID, u LinkUpdate, version time.Time) (Result, error)

	// Remove yields Removed, Conflict or NotFound. Removing a tombstoned link
	// with a valid version token is Removed again, never Gone.
	Remove(ctx context.Context, id uuid.UUID, version time.Time) (Result, error)

	// Resolve looks a link up by slug and yields Found, Gone or NotFound.
	Resolve(ctx context.Context, slug string) (Result, error)
}

type service struct {
	store Store
}

// NewService creates a Service over store.
func NewService(store Store) Service {
	return &service{store: store}
}

func (s *service) List(ctx context.Context) ([]Link, error) {
	const op = "link.service.List"

	links, err := s.store.ListLive(ctx)
	if err != nil {
		return nil, fault(op, "list", err)
	}
	return links, nil
}

func (s *service) Create(ctx context.Context, nl NewLink) (Link, error) {
	const op = "link.service.Create"

	l, err := s.store.Insert(ctx, nl)
	if err != nil {
		return Link{}, fault(op, "create", err)
	}
	observe("create", Applied)
	return l, nil
}

func (s *service) Read(ctx context.Context, id uuid.UUID) (Result, error) {
	const op = "link.service.Read"

	l, err := s.store.GetByID(ctx, id)
	switch {
	case errx.KindOf(err) == errx.NotFound:
		return result("read", NotFound, Link{}), nil
	case err != nil:
		return Result{}, fault(op, "read", err)
	case l.Deleted:
		return result("read", Gone, l), nil
	default:
		return result("read", Found, l), nil
	}
}

func (s *service) Update(ctx context.Context, id uuid.UUID, u LinkUpdate, version time.Time) (Result, error) {
	const op = "link.service.Update"

	exists, err := s.store.Exists(ctx, id)
	if err != nil {
		return Result{}, fault(op, "update", err)
	}
	if !exists {
		return result("update", NotFound, Link{}), nil
	}

	deleted, err := s.store.IsDeleted(ctx, id)
	if err != nil {
		return Result{}, fault(op, "update", err)
	}
	if deleted {
		return result("update", Gone, Link{}), nil
	}

	// A tombstone racing in after the checks above bumps updated_at, so the
	// stale token fails the predicate and the race ends as Conflict.
	l, ok, err := s.store.ConditionalUpdate(ctx, id, u, version)
	if err != nil {
		return Result{}, fault(op, "update", err)
	}
	if !ok {
		return result("update", Conflict, Link{}), nil
	}
	return result("update", Applied, l), nil
}

func (s *service) Remove(ctx context.Context, id uuid.UUID, version time.Time) (Result, error) {
	const op = "link.service.Remove"

	exists, err := s.store.Exists(ctx, id)
	if err != nil {
		return Result{}, fault(op, "remove", err)
	}
	if !exists {
		return result("remove", NotFound, Link{}), nil
	}

	ok, err := s.store.ConditionalTombstone(ctx, id, version)
	if err != nil {
		return Result{}, fault(op, "remove", err)
	}
	if !ok {
		return result("remove", Conflict, Link{}), nil
	}
	return result("remove", Removed, Link{}), nil
}

func (s *service) Resolve(ctx context.Context, slug string) (Result, error) {
	const op = "link.service.Resolve"

	if slug == "" {
		return Result{}, errx.E(op, errx.Invalid, errors.New("slug cannot be empty"))
	}

	l, err := s.store.GetBySlug(ctx, slug)
	switch {
	case err == nil:
		return result("resolve", Found, l), nil
	case errx.KindOf(err) != errx.NotFound:
		return Result{}, fault(op, "resolve", err)
	}

	tombstoned, err := s.store.SlugTombstoned(ctx, slug)
	if err != nil {
		return Result{}, fault(op, "resolve", err)
	}
	if tombstoned {
		return result("resolve", Gone, Link{}), nil
	}
	return result("resolve", NotFound, Link{}), nil
}

func result(operation string, o Outcome, l Link) Result {
	observe(operation, o)
	return Result{Outcome: o, Link: l}
}

func observe(operation string, o Outcome) {
	metrics.Outcomes.WithLabelValues(operation, o.String()).Inc()
}

func fault(op, operation string, err error) error {
	metrics.StoreFaults.WithLabelValues(operation).Inc()
	return errx.Wrap(op, err)
}
