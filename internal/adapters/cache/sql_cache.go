package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/phish-interrogator/internal/core"
)

// dialect holds the statements that differ between SQL backends.
// Timestamps are stored as unix seconds so every backend compares them the same way.
type dialect struct {
	name   string
	schema []string
	get    string
	upsert string
	delete string
	expire string
}

// SQLCache is a database/sql implementation of the VerdictCache interface
type SQLCache struct {
	db      *sql.DB
	dialect dialect
	logger  *zap.Logger
	janitor *janitor
}

func newSQLCache(db *sql.DB, d dialect, logger *zap.Logger, cleanupFreq time.Duration) (*SQLCache, error) {
	for _, stmt := range d.schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to prepare %s schema: %w", d.name, err)
		}
	}

	c := &SQLCache{
		db:      db,
		dialect: d,
		logger:  logger,
	}
	c.janitor = startJanitor(cleanupFreq, c.Cleanup, logger)
	return c, nil
}

// Get retrieves a cached verdict for a message fingerprint
func (c *SQLCache) Get(ctx context.Context, fingerprint string) (*core.CacheEntry, error) {
	var raw string
	var cachedAt, expiresAt int64

	err := c.db.QueryRowContext(ctx, c.dialect.get, fingerprint, time.Now().Unix()).
		Scan(&raw, &cachedAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	verdict, err := decodeVerdict(raw)
	if err != nil {
		return nil, err
	}

	return &core.CacheEntry{
		Fingerprint: fingerprint,
		Verdict:     verdict,
		CachedAt:    time.Unix(cachedAt, 0),
		ExpiresAt:   time.Unix(expiresAt, 0),
	}, nil
}

// Set stores a cache entry
func (c *SQLCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	raw, err := encodeVerdict(entry.Verdict)
	if err != nil {
		return err
	}

	_, err = c.db.ExecContext(ctx, c.dialect.upsert,
		entry.Fingerprint, raw, entry.CachedAt.Unix(), entry.ExpiresAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// Delete removes a cache entry
func (c *SQLCache) Delete(ctx context.Context, fingerprint string) error {
	if _, err := c.db.ExecContext(ctx, c.dialect.delete, fingerprint); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Cleanup removes expired entries
func (c *SQLCache) Cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, c.dialect.expire, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to clean up expired entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		c.logger.Debug("Cleaned up expired cache entries",
			zap.String("backend", c.dialect.name),
			zap.Int64("expired_count", rowsAffected))
	}
	return nil
}

// Stop stops the background cleanup task and closes the database connection
func (c *SQLCache) Stop() {
	c.janitor.stop()
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close cache database",
			zap.String("backend", c.dialect.name),
			zap.Error(err))
	}
}
