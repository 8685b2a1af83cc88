package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

var _ Extractor = (*SQLiteExtractor)(nil)

// SQLiteClient manages a read-only connection to a SQLite file
type SQLiteClient struct {
	db *sql.DB
}

// NewSQLiteClient opens an existing SQLite file read-only
func NewSQLiteClient(ctx context.Context, path string) (*SQLiteClient, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db, err := sql.Open("sqlite3", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteClient{db: db}, nil
}

// sqliteDSN builds a read-only file URI for the driver
func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	return "file:" + (&url.URL{Path: path}).EscapedPath() + "?mode=ro"
}

// Close closes the database connection
func (c *SQLiteClient) Close() error {
	return c.db.Close()
}

// GetDB returns the underlying database connection
func (c *SQLiteClient) GetDB() *sql.DB {
	return c.db
}
