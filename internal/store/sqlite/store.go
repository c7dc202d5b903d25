// Package sqlite implements the link Store on SQLite, locally through
// modernc.org/sqlite or remotely on Turso through the libsql driver.
//
// Timestamps are kept as Unix seconds, which is exactly the resolution of a
// version token.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"

	"github.com/sundayezeilo/linkstore/internal/errx"
	"github.com/sundayezeilo/linkstore/internal/idgen"
	"github.com/sundayezeilo/linkstore/internal/link"
)

//go:embed schema.sql
var schemaSQL string

const linkColumns = `id, slug, uri, description, deleted, created_at, updated_at`

const (
	listLiveSQL = `SELECT ` + linkColumns + ` FROM links WHERE deleted = 0 ORDER BY created_at, id`

	getByIDSQL = `SELECT ` + linkColumns + ` FROM links WHERE id = ?`

	getBySlugSQL = `SELECT ` + linkColumns + ` FROM links
WHERE slug = ? AND deleted = 0
ORDER BY updated_at DESC, id DESC
LIMIT 1`

	slugTombstonedSQL = `SELECT EXISTS (SELECT 1 FROM links WHERE slug = ? AND deleted = 1)`

	existsSQL = `SELECT EXISTS (SELECT 1 FROM links WHERE id = ?)`

	isDeletedSQL = `SELECT deleted FROM links WHERE id = ?`

	insertSQL = `INSERT INTO links (id, slug, uri, description, deleted, created_at, updated_at)
VALUES (?1, ?2, ?3, ?4, 0, ?5, ?5)
RETURNING ` + linkColumns

	conditionalUpdateSQL = `UPDATE links SET
    slug = CASE WHEN ?2 THEN ?3 ELSE slug END,
    uri = COALESCE(?4, uri),
    description = COALESCE(?5, description),
    updated_at = MAX(?6, updated_at + 1)
WHERE id = ?1 AND updated_at <= ?7
RETURNING ` + linkColumns

	conditionalTombstoneSQL = `UPDATE links SET
    deleted = 1,
    updated_at = MAX(?2, updated_at + 1)
WHERE id = ?1 AND updated_at <= ?3`
)

// Store is a link.Store backed by SQLite or libsql.
type Store struct {
	db  *sql.DB
	ids idgen.Generator
	now link.Clock
}

// Config holds optional collaborators for the store.
type Config struct {
	IDGenerator idgen.Generator
	Clock       link.Clock
}

var _ link.Store = (*Store)(nil)

// IsRemote reports whether dsn addresses a libsql server rather than a local
// SQLite database.
func IsRemote(dsn string) bool {
	for _, prefix := range []string{"libsql://", "wss://", "ws://", "https://", "http://"} {
		if strings.HasPrefix(dsn, prefix) {
			return true
		}
	}
	return false
}

// Open connects to dsn, creates the schema if needed and returns a Store.
// Local DSNs may be a path, a file: URI, :memory: or carry a sqlite:// prefix.
func Open(ctx context.Context, dsn string, config *Config) (*Store, error) {
	driver := "sqlite"
	if IsRemote(dsn) {
		driver = "libsql"
	} else {
		dsn = strings.TrimPrefix(dsn, "sqlite://")
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == "sqlite" {
		// One connection serializes writers and keeps :memory: databases alive.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return New(db, config), nil
}

// New wraps an open database that already carries the links schema.
func New(db *sql.DB, config *Config) *Store {
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
		db:  db,
		ids: config.IDGenerator,
		now: config.Clock,
	}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListLive(ctx context.Context) ([]link.Link, error) {
	const op = "store.sqlite.ListLive"

	rows, err := s.db.QueryContext(ctx, listLiveSQL)
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
	const op = "store.sqlite.GetByID"

	l, err := scanLink(s.db.QueryRowContext(ctx, getByIDSQL, id.String()))
	if err != nil {
		return link.Link{}, mapStoreError(op, err)
	}
	return l, nil
}

func (s *Store) GetBySlug(ctx context.Context, slug string) (link.Link, error) {
	const op = "store.sqlite.GetBySlug"

	l, err := scanLink(s.db.QueryRowContext(ctx, getBySlugSQL, slug))
	if err != nil {
		return link.Link{}, mapStoreError(op, err)
	}
	return l, nil
}

func (s *Store) SlugTombstoned(ctx context.Context, slug string) (bool, error) {
	const op = "store.sqlite.SlugTombstoned"

	var found bool
	if err := s.db.QueryRowContext(ctx, slugTombstonedSQL, slug).Scan(&found); err != nil {
		return false, mapStoreError(op, err)
	}
	return found, nil
}

func (s *Store) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	const op = "store.sqlite.Exists"

	var found bool
	if err := s.db.QueryRowContext(ctx, existsSQL, id.String()).Scan(&found); err != nil {
		return false, mapStoreError(op, err)
	}
	return found, nil
}

func (s *Store) IsDeleted(ctx context.Context, id uuid.UUID) (bool, error) {
	const op = "store.sqlite.IsDeleted"

	var deleted bool
	if err := s.db.QueryRowContext(ctx, isDeletedSQL, id.String()).Scan(&deleted); err != nil {
		return false, mapStoreError(op, err)
	}
	return deleted, nil
}

func (s *Store) Insert(ctx context.Context, nl link.NewLink) (link.Link, error) {
	const op = "store.sqlite.Insert"

	id, err := s.ids.Generate()
	if err != nil {
		return link.Link{}, errx.E(op, errx.Internal, err)
	}

	row := s.db.QueryRowContext(ctx, insertSQL,
		id.String(),
		nullString(nl.Slug),
		nl.URI,
		nl.Description,
		unixSeconds(s.now()),
	)
	l, err := scanLink(row)
	if err != nil {
		return link.Link{}, mapStoreError(op, err)
	}
	return l, nil
}

func (s *Store) ConditionalUpdate(ctx context.Context, id uuid.UUID, u link.LinkUpdate, notModifiedSince time.Time) (link.Link, bool, error) {
	const op = "store.sqlite.ConditionalUpdate"

	row := s.db.QueryRowContext(ctx, conditionalUpdateSQL,
		id.String(),
		u.Slug.IsSet(),
		nullString(u.Slug.Ptr()),
		nullString(u.URI),
		nullString(u.Description),
		unixSeconds(s.now()),
		unixSeconds(notModifiedSince),
	)
	l, err := scanLink(row)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return link.Link{}, false, nil
	case err != nil:
		return link.Link{}, false, mapStoreError(op, err)
	}
	return l, true, nil
}

func (s *Store) ConditionalTombstone(ctx context.Context, id uuid.UUID, notModifiedSince time.Time) (bool, error) {
	const op = "store.sqlite.ConditionalTombstone"

	res, err := s.db.ExecContext(ctx, conditionalTombstoneSQL,
		id.String(),
		unixSeconds(s.now()),
		unixSeconds(notModifiedSince),
	)
	if err != nil {
		return false, mapStoreError(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, mapStoreError(op, err)
	}
	return n > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLink(row scanner) (link.Link, error) {
	var (
		l         link.Link
		id        string
		slug      sql.NullString
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&id, &slug, &l.URI, &l.Description, &l.Deleted, &createdAt, &updatedAt); err != nil {
		return link.Link{}, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return link.Link{}, fmt.Errorf("malformed link id %q: %w", id, err)
	}
	l.ID = parsed
	if slug.Valid {
		l.Slug = &slug.String
	}
	l.CreatedAt = time.Unix(createdAt, 0).UTC()
	l.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return l, nil
}

func unixSeconds(t time.Time) int64 {
	return link.VersionTime(t).Unix()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func mapStoreError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return errx.E(op, errx.NotFound, err)
	}
	return errx.E(op, errx.Unavailable, err)
}
