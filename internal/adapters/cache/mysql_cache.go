package cache

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

var mysqlDialect = dialect{
	name: "mysql",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS verdict_cache (
			fingerprint CHAR(64) PRIMARY KEY,
			verdict TEXT NOT NULL,
			cached_at BIGINT NOT NULL,
			expires_at BIGINT NOT NULL,
			INDEX idx_verdict_cache_expires_at (expires_at)
		)`,
	},
	get: `SELECT verdict, cached_at, expires_at FROM verdict_cache
		WHERE fingerprint = ? AND expires_at > ?`,
	upsert: `INSERT INTO verdict_cache (fingerprint, verdict, cached_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE verdict = VALUES(verdict), cached_at = VALUES(cached_at), expires_at = VALUES(expires_at)`,
	delete: `DELETE FROM verdict_cache WHERE fingerprint = ?`,
	expire: `DELETE FROM verdict_cache WHERE expires_at <= ?`,
}

// NewMySQLCache creates a new MySQL cache
func NewMySQLCache(dsn string, logger *zap.Logger, cleanupFreq time.Duration) (*SQLCache, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	return newSQLCache(db, mysqlDialect, logger, cleanupFreq)
}
