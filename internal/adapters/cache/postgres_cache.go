package cache

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

var postgresDialect = dialect{
	name: "postgres",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS verdict_cache (
			fingerprint CHAR(64) PRIMARY KEY,
			verdict TEXT NOT NULL,
			cached_at BIGINT NOT NULL,
			expires_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_verdict_cache_expires_at ON verdict_cache(expires_at)`,
	},
	get: `SELECT verdict, cached_at, expires_at FROM verdict_cache
		WHERE fingerprint = $1 AND expires_at > $2`,
	upsert: `INSERT INTO verdict_cache (fingerprint, verdict, cached_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (fingerprint) DO UPDATE
		SET verdict = EXCLUDED.verdict, cached_at = EXCLUDED.cached_at, expires_at = EXCLUDED.expires_at`,
	delete: `DELETE FROM verdict_cache WHERE fingerprint = $1`,
	expire: `DELETE FROM verdict_cache WHERE expires_at <= $1`,
}

// NewPostgresCache creates a new PostgreSQL cache
func NewPostgresCache(dsn string, logger *zap.Logger, cleanupFreq time.Duration) (*SQLCache, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	return newSQLCache(db, postgresDialect, logger, cleanupFreq)
}
