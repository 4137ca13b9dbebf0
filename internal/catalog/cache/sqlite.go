package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite implements the Cache interface using SQLite for persistence, so
// responses survive between CLI invocations.
type SQLite struct {
	db  *sql.DB
	now Clock
}

// NewSQLite creates a new SQLite-backed cache.
// The database file and table are auto-created if they don't exist.
func NewSQLite(dbPath string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	// A single connection serialises writers instead of hitting SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	createTableSQL := `
		CREATE TABLE IF NOT EXISTS cache (
			cache_key TEXT PRIMARY KEY,
			response_json BLOB NOT NULL,
			cached_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_expires_at ON cache(expires_at);
	`
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache table: %w", err)
	}

	return &SQLite{db: db, now: time.Now}, nil
}

// SetClock overrides the time source used for expiry.
func (c *SQLite) SetClock(now Clock) {
	c.now = now
}

func (c *SQLite) Get(ctx context.Context, key string) ([]byte, bool) {
	var data []byte
	var expiresAt int64

	err := c.db.QueryRowContext(ctx,
		"SELECT response_json, expires_at FROM cache WHERE cache_key = ?",
		key,
	).Scan(&data, &expiresAt)
	if err != nil {
		return nil, false
	}

	if c.now().UnixNano() >= expiresAt {
		c.db.ExecContext(ctx, "DELETE FROM cache WHERE cache_key = ?", key)
		return nil, false
	}

	return data, true
}

func (c *SQLite) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := c.now()

	_, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO cache (cache_key, response_json, cached_at, expires_at)
		 VALUES (?, ?, ?, ?)`,
		key, data, now.UnixNano(), now.Add(ttl).UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}
	return nil
}

func (c *SQLite) Clear(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, "DELETE FROM cache"); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (c *SQLite) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
