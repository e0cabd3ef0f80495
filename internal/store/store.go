// Package store persists rendered results in sqlite.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNotFound is returned when no result matches
var ErrNotFound = errors.New("result not found")

// Result is one persisted render
type Result struct {
	ID        string            `json:"id"`
	Ref       string            `json:"ref"`
	Owner     string            `json:"owner"`
	Kind      string            `json:"kind"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt time.Time         `json:"created_at"`
	ExpiresAt *time.Time        `json:"expires_at,omitempty"`
}

type Store struct {
	conn   *sql.DB
	logger zerolog.Logger
	now    func() time.Time
}

// Open creates or opens the database at path and applies migrations
func Open(path string, logger zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create database directory")
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, errors.Wrapf(err, "failed to execute %s", pragma)
		}
	}

	s := &Store{conn: conn, logger: logger, now: time.Now}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "failed to run migrations")
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	migrations, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return errors.Wrap(err, "failed to read migrations")
	}

	for _, m := range migrations {
		if m.IsDir() {
			continue
		}
		name := m.Name()
		if s.isMigrationApplied(name) {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return errors.Wrapf(err, "failed to read migration %s", name)
		}
		if _, err := s.conn.Exec(string(content)); err != nil {
			return errors.Wrapf(err, "failed to execute migration %s", name)
		}
		if _, err := s.conn.Exec("INSERT INTO _migrations (name) VALUES (?)", name); err != nil {
			return errors.Wrapf(err, "failed to record migration %s", name)
		}
		s.logger.Debug().Str("name", name).Msg("applied migration")
	}
	return nil
}

func (s *Store) isMigrationApplied(name string) bool {
	var exists int
	err := s.conn.QueryRow("SELECT 1 FROM sqlite_master WHERE type='table' AND name='_migrations'").Scan(&exists)
	if err != nil {
		return false
	}

	var applied int
	err = s.conn.QueryRow("SELECT 1 FROM _migrations WHERE name = ?", name).Scan(&applied)
	return err == nil && applied == 1
}

// Save records a result and returns its id
func (s *Store) Save(ctx context.Context, ref, owner, kind string, metadata map[string]string) (string, error) {
	if ref == "" {
		return "", errors.New("result ref is empty")
	}
	if metadata == nil {
		metadata = map[string]string{}
	}
	meta, err := json.Marshal(metadata)
	if err != nil {
		return "", errors.WithStack(err)
	}

	id := uuid.NewString()
	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO results (id, ref, owner, kind, metadata, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, ref, owner, kind, string(meta), s.now().UnixMilli())
	if err != nil {
		return "", errors.Wrapf(err, "failed to save result %s", ref)
	}
	return id, nil
}

// Get returns the result with id
func (s *Store) Get(ctx context.Context, id string) (*Result, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT id, ref, owner, kind, metadata, created_at, expires_at FROM results WHERE id = ?`, id)
	return scanResult(row)
}

// List returns the results for owner, newest first
func (s *Store) List(ctx context.Context, owner string) ([]Result, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, ref, owner, kind, metadata, created_at, expires_at FROM results WHERE owner = ? ORDER BY created_at DESC, id`, owner)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list results")
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, errors.WithStack(rows.Err())
}

// Expire schedules every result for ref to expire ttl from now
func (s *Store) Expire(ctx context.Context, ref string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.Errorf("ttl must be positive, got %s", ttl)
	}
	res, err := s.conn.ExecContext(ctx,
		`UPDATE results SET expires_at = ? WHERE ref = ?`, s.now().Add(ttl).UnixMilli(), ref)
	if err != nil {
		return errors.Wrapf(err, "failed to expire %s", ref)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrapf(ErrNotFound, "ref %s", ref)
	}
	return nil
}

// PurgeExpired deletes results whose expiry is at or before now
func (s *Store) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.conn.ExecContext(ctx,
		`DELETE FROM results WHERE expires_at IS NOT NULL AND expires_at <= ?`, now.UnixMilli())
	if err != nil {
		return 0, errors.Wrap(err, "failed to purge expired results")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.WithStack(err)
	}
	if n > 0 {
		s.logger.Info().Int64("count", n).Msg("purged expired results")
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(row scanner) (*Result, error) {
	var (
		r       Result
		meta    string
		created int64
		expires sql.NullInt64
	)
	if err := row.Scan(&r.ID, &r.Ref, &r.Owner, &r.Kind, &meta, &created, &expires); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to scan result")
	}
	if err := json.Unmarshal([]byte(meta), &r.Metadata); err != nil {
		return nil, errors.Wrapf(err, "result %s has invalid metadata", r.ID)
	}
	r.CreatedAt = time.UnixMilli(created)
	if expires.Valid {
		t := time.UnixMilli(expires.Int64)
		r.ExpiresAt = &t
	}
	return &r, nil
}
