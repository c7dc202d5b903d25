package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/sundayezeilo/linkstore/internal/errx"
	"github.com/sundayezeilo/linkstore/internal/idgen"
	"github.com/sundayezeilo/linkstore/internal/link"
)

const linkColumns = `id, slug, uri, description, deleted, created_at, updated_at`

const (
	listLiveSQL = `SELECT ` + linkColumns + ` FROM links WHERE NOT deleted ORDER BY created_at, id`

	getByIDSQL = `SELECT ` + linkColumns + ` FROM links WHERE id = $1`

	getBySlugSQL = `SELECT ` + linkColumns + ` FROM links
WHERE slug = $1 AND NOT deleted
ORDER BY updated_at DESC, id DESC
LIMIT 1`

	slugTombstonedSQL = `SELECT EXISTS (SELECT 1 FROM links WHERE slug = $1 AND deleted)`

	existsSQL = `SELECT EXISTS (SELECT 1 FROM links WHERE id = $1)`

	isDeletedSQL = `SELECT deleted FROM links WHERE id = $1`

	insertSQL = `INSERT INTO links (id, slug, uri, description, deleted, created_at, updated_at)
VALUES ($1, $2, $3, $4, false, $5, $5)
RETURNING ` + linkColumns

	// The version predicate and the write are one statement; the row lock
	// taken by UPDATE makes the pair atomic.
	conditionalUpdateSQL = `UPDATE links SET
    slug = CASE WHEN $2::boolean THEN $3::text ELSE slug END,
    uri = COALESCE($4::text, uri),
    description = COALESCE($5::text, description),
    updated_at = GREATEST($6::timestamptz, updated_at + interval '1 second')
WHERE id = $1 AND updated_at <= $7
RETURNING ` + linkColumns

	conditionalTombstoneSQL = `UPDATE links SET
    deleted = true,
    updated_at = GREATEST($2::timestamptz, updated_at + interval '1 second')
WHERE id = $1 AND updated_at <= $3`
)

// Store is a link.Store backed by PostgreSQL.
type Store struct {
	pool Pool
	ids  idgen.Generator
	now  link.Clock
}

// Config holds optional collaborators for the store.
type Config struct {
	IDGenerator idgen.Generator
	Clock       link.Clock
}

var _ link.Store = (*Store)(nil)

// New creates a Store over pool. A nil config uses UUID v7 ids and the wall
// clock.
func New(pool Pool, config *Config) *Store {
	if config == nil {
		config = &Config{}
	}
	if config.IDGenerator == nil {
		config.IDGenerator = idgen.Default()
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}

	return &Store{
		pool: pool,
		ids:  config.IDGenerator,
		now:  config.Clock,
	}
}

func (s *Store) ListLive(ctx context.Context) ([]link.Link, error) {
	const op = "store.postgres.ListLive"

	rows, err := s.pool.Query(ctx, listLiveSQL)
	if err != nil {
		return nil, mapStoreError(op, err)
	}
	defer rows.Close()

	var out []link.Link
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, mapStoreError(op, err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, mapStoreError(op, err)
	}
	return out, nil
}

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (link.Link, error) {
	const op = "store.postgres.GetByID"

	l, err := scanLink(s.pool.QueryRow(ctx, getByIDSQL, id))
	if err != nil {
		return link.Link{}, mapStoreError(op, err)
	}
	return l, nil
}

func (s *Store) GetBySlug(ctx context.Context, slug string) (link.Link, error) {
	const op = "store.postgres.GetBySlug"

	l, err := scanLink(s.pool.QueryRow(ctx, getBySlugSQL, slug))
	if err != nil {
		return link.Link{}, mapStoreError(op, err)
	}
	return l, nil
}

func (s *Store) SlugTombstoned(ctx context.Context, slug string) (bool, error) {
	const op = "store.postgres.SlugTombstoned"

	var found bool
	if err := s.pool.QueryRow(ctx, slugTombstonedSQL, slug).Scan(&found); err != nil {
		return false, mapStoreError(op, err)
	}
	return found, nil
}

func (s *Store) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	const op = "store.postgres.Exists"

	var found bool
	if err := s.pool.QueryRow(ctx, existsSQL, id).Scan(&found); err != nil {
		return false, mapStoreError(op, err)
	}
	return found, nil
}

func (s *Store) IsDeleted(ctx context.Context, id uuid.UUID) (bool, error) {
	const op = "store.postgres.IsDeleted"

	var deleted bool
	if err := s.pool.QueryRow(ctx, isDeletedSQL, id).Scan(&deleted); err != nil {
		return false, mapStoreError(op, err)
	}
	return deleted, nil
}

func (s *Store) Insert(ctx context.Context, nl link.NewLink) (link.Link, error) {
	const op = "store.postgres.Insert"

	id, err := s.ids.Generate()
	if err != nil {
		return link.Link{}, errx.E(op, errx.Internal, err)
	}

	row := s.pool.QueryRow(ctx, insertSQL,
		id,
		textArg(nl.Slug),
		nl.URI,
		nl.Description,
		link.VersionTime(s.now()),
	)
	l, err := scanLink(row)
	if err != nil {
		return link.Link{}, mapStoreError(op, err)
	}
	return l, nil
}

func (s *Store) ConditionalUpdate(ctx context.Context, id uuid.UUID, u link.LinkUpdate, notModifiedSince time.Time) (link.Link, bool, error) {
	const op = "store.postgres.ConditionalUpdate"

	row := s.pool.QueryRow(ctx, conditionalUpdateSQL,
		id,
		u.Slug.IsSet(),
		textArg(u.Slug.Ptr()),
		textArg(u.URI),
		textArg(u.Description),
		link.VersionTime(s.now()),
		link.VersionTime(notModifiedSince),
	)
	l, err := scanLink(row)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return link.Link{}, false, nil
	case err != nil:
		return link.Link{}, false, mapStoreError(op, err)
	}
	return l, true, nil
}

func (s *Store) ConditionalTombstone(ctx context.Context, id uuid.UUID, notModifiedSince time.Time) (bool, error) {
	const op = "store.postgres.ConditionalTombstone"

	tag, err := s.pool.Exec(ctx, conditionalTombstoneSQL,
		id,
		link.VersionTime(s.now()),
		link.VersionTime(notModifiedSince),
	)
	if err != nil {
		return false, mapStoreError(op, err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanLink(row pgx.Row) (link.Link, error) {
	var (
		l         link.Link
		slug      pgtype.Text
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(&l.ID, &slug, &l.URI, &l.Description, &l.Deleted, &createdAt, &updatedAt); err != nil {
		return link.Link{}, err
	}

	var err error
	if l.CreatedAt, err = mustTime(createdAt, "created_at"); err != nil {
		return link.Link{}, err
	}
	if l.UpdatedAt, err = mustTime(updatedAt, "updated_at"); err != nil {
		return link.Link{}, err
	}
	l.Slug = textPtr(slug)
	return l, nil
}

func mustTime(ts pgtype.Timestamptz, field string) (time.Time, error) {
	if !ts.Valid {
		return time.Time{}, fmt.Errorf("%s unexpectedly NULL", field)
	}
	return ts.Time.UTC(), nil
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}

func textArg(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func mapStoreError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return errx.E(op, errx.NotFound, err)
	}
	return errx.E(op, errx.Unavailable, err)
}
