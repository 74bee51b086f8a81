package cache

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

var sqliteDialect = dialect{
	name: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS verdict_cache (
			fingerprint TEXT PRIMARY KEY,
			verdict TEXT NOT NULL,
			cached_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_verdict_cache_expires_at ON verdict_cache(expires_at)`,
	},
	get: `SELECT verdict, cached_at, expires_at FROM verdict_cache
		WHERE fingerprint = ? AND expires_at > ?`,
	upsert: `INSERT OR REPLACE INTO verdict_cache (fingerprint, verdict, cached_at, expires_at)
		VALUES (?, ?, ?, ?)`,
	delete: `DELETE FROM verdict_cache WHERE fingerprint = ?`,
	expire: `DELETE FROM verdict_cache WHERE expires_at <= ?`,
}

// NewSQLiteCache creates a new SQLite cache
func NewSQLiteCache(dbPath string, logger *zap.Logger, cleanupFreq time.Duration) (*SQLCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// SQLite serialises writers; one connection avoids "database is locked"
	db.SetMaxOpenConns(1)

	return newSQLCache(db, sqliteDialect, logger, cleanupFreq)
}
