package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	nerrors "github.com/matzehuels/nodel/pkg/errors"
	"github.com/matzehuels/nodel/pkg/nodel"
)

// SQLiteStore keeps snapshots in a single SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path and
// migrates its schema.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		name TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		node_count INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *SQLiteStore) Save(ctx context.Context, name string, snap nodel.Snapshot) error {
	data, err := encode(name, snap)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (name, data, node_count, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			data = excluded.data,
			node_count = excluded.node_count,
			updated_at = excluded.updated_at
	`, name, string(data), len(snap), time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, name string) (nodel.Snapshot, error) {
	if err := nerrors.ValidateName(name); err != nil {
		return nil, err
	}
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM snapshots WHERE name = ?`, name).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}
	return decode(name, []byte(data))
}

func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	if err := nerrors.ValidateName(name); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE name = ?`, name); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Info, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, node_count, updated_at
		FROM snapshots
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	infos := []Info{}
	for rows.Next() {
		var (
			info    Info
			updated int64
		)
		if err := rows.Scan(&info.Name, &info.Nodes, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		info.UpdatedAt = time.Unix(0, updated).UTC()
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

var _ Store = (*SQLiteStore)(nil)
