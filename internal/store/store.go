// Package store persists per-image field sets in a SQLite database so an
// annotation session can be resumed.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/menta2k/location-processor/pkg/annotation"
	"github.com/menta2k/location-processor/pkg/types"
)

// ErrNotFound is returned by Load for an unknown image key
var ErrNotFound = errors.New("image not found in store")

const schema = `
CREATE TABLE IF NOT EXISTS images (
	id         TEXT PRIMARY KEY,
	image_key  TEXT NOT NULL UNIQUE,
	fields     TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

// Store wraps the database handle
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores fields under key, replacing any previous value
func (s *Store) Save(ctx context.Context, key string, fields types.FieldSet) error {
	data, err := fields.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode fields for %s: %w", key, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO images (id, image_key, fields, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(image_key) DO UPDATE SET
			fields = excluded.fields,
			updated_at = excluded.updated_at`,
		uuid.NewString(), key, string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Load returns the fields stored under key
func (s *Store) Load(ctx context.Context, key string) (types.FieldSet, error) {
	var data string
	err := s.db.QueryRowContext(ctx, "SELECT fields FROM images WHERE image_key = ?", key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return types.FieldSet{}, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return types.FieldSet{}, fmt.Errorf("failed to load %s: %w", key, err)
	}

	fs, err := types.ParseFieldSet([]byte(data))
	if err != nil {
		return types.FieldSet{}, fmt.Errorf("failed to decode fields for %s: %w", key, err)
	}
	return fs, nil
}

// Delete removes key from the store
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM images WHERE image_key = ?", key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// LoadState reads every stored image into a fresh state
func (s *Store) LoadState(ctx context.Context) (annotation.State, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT image_key, fields FROM images ORDER BY image_key")
	if err != nil {
		return annotation.State{}, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	state := annotation.NewState()
	for rows.Next() {
		var key, data string
		if err := rows.Scan(&key, &data); err != nil {
			return annotation.State{}, fmt.Errorf("failed to scan image row: %w", err)
		}
		fs, err := types.ParseFieldSet([]byte(data))
		if err != nil {
			return annotation.State{}, fmt.Errorf("failed to decode fields for %s: %w", key, err)
		}
		state = state.With(key, fs)
	}
	return state, rows.Err()
}

// SaveState writes every image of state in one transaction
func (s *Store) SaveState(ctx context.Context, state annotation.State) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO images (id, image_key, fields, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(image_key) DO UPDATE SET
			fields = excluded.fields,
			updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, key := range state.Keys() {
		fs, _ := state.Get(key)
		data, err := fs.MarshalJSON()
		if err != nil {
			return fmt.Errorf("failed to encode fields for %s: %w", key, err)
		}
		if _, err := stmt.ExecContext(ctx, uuid.NewString(), key, string(data), now); err != nil {
			return fmt.Errorf("failed to save %s: %w", key, err)
		}
	}
	return tx.Commit()
}
