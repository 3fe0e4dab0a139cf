// Package repository stores indexed content records in SQLite. Each record
// is kept as a YAML body alongside the columns needed to look it up.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/richardsondev/unreal-archive/internal/content"
	"github.com/richardsondev/unreal-archive/internal/repository/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteRepository implements ua.Repository on a SQLite database.
type SQLiteRepository struct {
	db   *sql.DB
	path string
}

// NewSQLiteRepository opens the database at path and migrates it to the
// latest schema. path can be a file path or ":memory:".
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating %s: %w", path, err)
	}
	return &SQLiteRepository{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps the PRAGMAs below (and a ":memory:" database)
	// shared by every query. Writers are serialized by SQLite regardless.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	return db, nil
}

// Path returns the database location this repository was opened with.
func (s *SQLiteRepository) Path() string { return s.path }

// Status reports whether the schema matches this binary.
func (s *SQLiteRepository) Status() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

func (s *SQLiteRepository) ByHash(ctx context.Context, hash string) (*content.Record, error) {
	var body string
	err := s.db.QueryRowContext(ctx, "SELECT body FROM records WHERE hash = ?", hash).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding record %s: %w", hash, err)
	}
	return decode(body)
}

func (s *SQLiteRepository) ByFileHash(ctx context.Context, fileHash string) ([]*content.Record, error) {
	return s.query(ctx, `
		SELECT r.body FROM records r
		WHERE r.hash IN (SELECT record_hash FROM record_files WHERE hash = ?)
		ORDER BY r.hash`, fileHash)
}

func (s *SQLiteRepository) All(ctx context.Context) ([]*content.Record, error) {
	return s.query(ctx, "SELECT body FROM records ORDER BY hash")
}

// Put inserts or replaces the record and its contained file rows in one
// transaction.
func (s *SQLiteRepository) Put(ctx context.Context, record *content.Record) error {
	if record == nil || record.Hash == "" {
		return fmt.Errorf("record has no hash")
	}
	body, err := yaml.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding record %s: %w", record.Hash, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO records (hash, kind, game, name, variation_of, deleted, first_index, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (hash) DO UPDATE SET
			kind = excluded.kind,
			game = excluded.game,
			name = excluded.name,
			variation_of = excluded.variation_of,
			deleted = excluded.deleted,
			first_index = excluded.first_index,
			body = excluded.body`,
		record.Hash, string(record.Kind), record.Game, record.Name, record.VariationOf,
		record.Deleted, record.FirstIndex.UTC().Format(time.RFC3339), string(body))
	if err != nil {
		return fmt.Errorf("storing record %s: %w", record.Hash, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM record_files WHERE record_hash = ?", record.Hash); err != nil {
		return fmt.Errorf("clearing files of %s: %w", record.Hash, err)
	}
	for _, f := range record.Files {
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO record_files (record_hash, name, hash, file_size)
			VALUES (?, ?, ?, ?)`, record.Hash, f.Name, f.Hash, f.FileSize)
		if err != nil {
			return fmt.Errorf("storing file %s of %s: %w", f.Name, record.Hash, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing record %s: %w", record.Hash, err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteRepository) Close() error {
	return s.db.Close()
}

func (s *SQLiteRepository) query(ctx context.Context, q string, args ...any) ([]*content.Record, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []*content.Record
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		r, err := decode(body)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return records, nil
}

func decode(body string) (*content.Record, error) {
	var r content.Record
	if err := yaml.Unmarshal([]byte(body), &r); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	return &r, nil
}
