package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/mindflow/internal/db"
)

// SQLiteStore implements Client on an embedded SQLite database. Every leaf
// of the tree is one row of store_nodes, keyed by its full path.
type SQLiteStore struct {
	db    *sql.DB
	batch db.Batch
	hub   *hub
	now   func() time.Time

	closeOnce sync.Once
	ownsDB    bool
}

// NewSQLiteStore wraps an already migrated database. The caller keeps
// ownership of database.
func NewSQLiteStore(database *sql.DB) *SQLiteStore {
	s := &SQLiteStore{
		db:    database,
		batch: db.NewSQLiteBatch(database),
		now:   time.Now,
	}
	s.hub = newHub(s.ReadOnce)
	return s
}

// OpenSQLiteStore opens (and migrates) the database at path. Close also
// closes the database.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	database, err := db.OpenDB(path)
	if err != nil {
		return nil, err
	}
	s := NewSQLiteStore(database)
	s.ownsDB = true
	return s, nil
}

// OpenMemoryStore opens a store that lives only as long as the process.
func OpenMemoryStore() (*SQLiteStore, error) {
	return OpenSQLiteStore(":memory:")
}

func (s *SQLiteStore) Write(ctx context.Context, path string, value any) error {
	path, err := Clean(path)
	if err != nil {
		return err
	}
	leaves, err := flatten(value)
	if err != nil {
		return err
	}
	err = s.batch.Apply(ctx, func(ctx context.Context, tx db.Querier) error {
		return s.replace(ctx, tx, path, leaves)
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	s.hub.notify(path)
	return nil
}

func (s *SQLiteStore) Patch(ctx context.Context, path string, fields map[string]any) error {
	path, err := Clean(path)
	if err != nil {
		return err
	}
	type target struct {
		path   string
		leaves []leaf
	}
	targets := make([]target, 0, len(fields))
	for key, value := range fields {
		rel, err := Clean(key)
		if err != nil {
			return err
		}
		if rel == "" {
			return fmt.Errorf("%w: empty patch key", ErrInvalidPath)
		}
		leaves, err := flatten(value)
		if err != nil {
			return err
		}
		targets = append(targets, target{path: Join(path, rel), leaves: leaves})
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].path < targets[j].path })

	err = s.batch.Apply(ctx, func(ctx context.Context, tx db.Querier) error {
		for _, t := range targets {
			if err := s.replace(ctx, tx, t.path, t.leaves); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("patching %s: %w", path, err)
	}
	for _, t := range targets {
		s.hub.notify(t.path)
	}
	return nil
}

func (s *SQLiteStore) Append(ctx context.Context, collection string, value any) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generating key: %w", err)
	}
	key := id.String()
	if err := s.Write(ctx, Join(collection, key), value); err != nil {
		return "", err
	}
	return key, nil
}

func (s *SQLiteStore) ReadOnce(ctx context.Context, path string) (Snapshot, error) {
	path, err := Clean(path)
	if err != nil {
		return Snapshot{}, err
	}
	leaves, err := s.subtree(ctx, s.db, path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading %s: %w", path, err)
	}
	value, err := build(leaves)
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return Snapshot{Path: path, Value: value}, nil
}

func (s *SQLiteStore) Subscribe(path string, onChange func(Snapshot, error)) (func(), error) {
	path, err := Clean(path)
	if err != nil {
		return nil, err
	}
	return s.hub.subscribe(path, onChange)
}

func (s *SQLiteStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.hub.close()
		if s.ownsDB {
			err = s.db.Close()
		}
	})
	return err
}

// replace deletes the subtree at path and any scalar stored at one of its
// ancestors, then inserts the new leaves.
func (s *SQLiteStore) replace(ctx context.Context, tx db.Querier, path string, leaves []leaf) error {
	if path == "" {
		if _, err := tx.ExecContext(ctx, `DELETE FROM store_nodes`); err != nil {
			return fmt.Errorf("clearing store: %w", err)
		}
	} else {
		lo, hi := descendantRange(path)
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM store_nodes WHERE path = ? OR (path > ? AND path < ?)`, path, lo, hi); err != nil {
			return fmt.Errorf("deleting subtree: %w", err)
		}
		if len(leaves) > 0 {
			for _, a := range ancestors(path) {
				if _, err := tx.ExecContext(ctx, `DELETE FROM store_nodes WHERE path = ?`, a); err != nil {
					return fmt.Errorf("deleting ancestor value: %w", err)
				}
			}
		}
	}

	now := s.now().UTC().Format(time.RFC3339Nano)
	for _, l := range leaves {
		full := Join(path, l.rel)
		if full == "" {
			return fmt.Errorf("%w: scalar at root", ErrInvalidPath)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO store_nodes (path, value, updated_at) VALUES (?, ?, ?)`, full, l.value, now); err != nil {
			return fmt.Errorf("inserting %s: %w", full, err)
		}
	}
	return nil
}

func (s *SQLiteStore) subtree(ctx context.Context, q db.Querier, path string) ([]leaf, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if path == "" {
		rows, err = q.QueryContext(ctx, `SELECT path, value FROM store_nodes ORDER BY path`)
	} else {
		lo, hi := descendantRange(path)
		rows, err = q.QueryContext(ctx,
			`SELECT path, value FROM store_nodes WHERE path = ? OR (path > ? AND path < ?) ORDER BY path`,
			path, lo, hi)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leaves []leaf
	for rows.Next() {
		var full, value string
		if err := rows.Scan(&full, &value); err != nil {
			return nil, fmt.Errorf("scanning node: %w", err)
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(full, path), "/")
		leaves = append(leaves, leaf{rel: rel, value: value})
	}
	return leaves, rows.Err()
}

// descendantRange bounds every path strictly below path: all of them sort
// between "path/" and "path0", since '0' follows '/'.
func descendantRange(path string) (lo, hi string) {
	return path + "/", path + "0"
}
