package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/deidaraiorek/botanica/internal/logger"
)

var (
	// ErrNotFound is returned when an identity key does not exist.
	ErrNotFound = errors.New("not found")
	// ErrSchema wraps failures to install the catalog schema.
	ErrSchema = errors.New("schema error")
	// ErrUnavailable wraps failures to reach the store at all.
	ErrUnavailable = errors.New("store unavailable")
)

// Metadata keys written by an ingestion run.
const (
	MetaSchemaVersion = "schema_version"
	MetaBuildID       = "build_id"
	MetaBuiltAt       = "built_at"
	MetaSource        = "source_path"
)

// Queryer is satisfied by *sql.DB and *sql.Tx.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db  *sql.DB
	log *logger.Logger
}

func Open(path string, log *logger.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to enable WAL: %v", ErrUnavailable, err)
	}

	return &Store{
		db:  db,
		log: log.With("component", "storage"),
	}, nil
}

// dsn turns foreign keys on for every pooled connection.
func dsn(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	return "file:" + path + "?_foreign_keys=on&_busy_timeout=5000"
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) DB() *sql.DB {
	return s.db
}

// Rebuild drops and recreates the whole schema in one transaction. On failure
// nothing is left installed and the error wraps ErrSchema.
func (s *Store) Rebuild(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", ErrSchema, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, dropSchema); err != nil {
		return fmt.Errorf("%w: failed to drop schema: %v", ErrSchema, err)
	}
	if _, err := tx.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("%w: failed to create schema: %v", ErrSchema, err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO catalog_metadata (key, value) VALUES (?, ?)",
		MetaSchemaVersion, SchemaVersion,
	); err != nil {
		return fmt.Errorf("%w: failed to record schema version: %v", ErrSchema, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit schema: %v", ErrSchema, err)
	}

	s.log.Info("schema rebuilt", "version", SchemaVersion)
	return nil
}

func (s *Store) SetMetadata(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO catalog_metadata (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)",
		key, value,
	)
	return err
}

// Metadata returns ErrNotFound for keys that were never written.
func (s *Store) Metadata(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM catalog_metadata WHERE key = ?",
		key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}

// ReadTx runs fn inside one transaction so that every read it makes sees the
// same snapshot. The transaction is always rolled back.
func (s *Store) ReadTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin read: %v", ErrUnavailable, err)
	}
	defer tx.Rollback()

	return fn(tx)
}

// Health pings the store and returns the number of entities. Any failure
// wraps ErrUnavailable, including a store without a catalog schema.
func (s *Store) Health(ctx context.Context) (int, error) {
	if err := s.db.PingContext(ctx); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	count, err := s.CountEntities(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return count, nil
}

func (s *Store) CountEntities(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entities").Scan(&count)
	return count, err
}
