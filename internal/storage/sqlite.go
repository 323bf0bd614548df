// Package storage provides SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/knn/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db, path: dbPath}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		ordinal INTEGER NOT NULL UNIQUE,
		label TEXT,
		dimension INTEGER NOT NULL,
		vector BLOB NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_items_ordinal ON items(ordinal);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateItem inserts an item. IDs and ordinals must be unique.
func (s *SQLiteStorage) CreateItem(ctx context.Context, item *models.Item) error {
	blob, err := encodeVector(item.Vector)
	if err != nil {
		return err
	}
	item.CreatedAt = time.Now()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO items (id, ordinal, label, dimension, vector, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		item.ID, item.Ordinal, item.Label, len(item.Vector), blob, item.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert item %s: %w", item.ID, err)
	}
	return nil
}

// GetItem returns an item by ID.
func (s *SQLiteStorage) GetItem(ctx context.Context, id string) (*models.Item, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, ordinal, label, vector, created_at FROM items WHERE id = ?`, id,
	)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// ListItems streams all items in ordinal order.
func (s *SQLiteStorage) ListItems(ctx context.Context, fn func(*models.Item) error) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ordinal, label, vector, created_at FROM items ORDER BY ordinal`,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return err
		}
		if err := fn(item); err != nil {
			return err
		}
	}
	return rows.Err()
}

// CountItems returns the total number of items.
func (s *SQLiteStorage) CountItems(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&count)
	return count, err
}

// Path returns the database file path.
func (s *SQLiteStorage) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.Item, error) {
	var item models.Item
	var label sql.NullString
	var blob []byte
	if err := row.Scan(&item.ID, &item.Ordinal, &label, &blob, &item.CreatedAt); err != nil {
		return nil, err
	}
	item.Label = label.String
	v, err := decodeVector(blob)
	if err != nil {
		return nil, fmt.Errorf("item %s: %w", item.ID, err)
	}
	item.Vector = v
	return &item, nil
}
