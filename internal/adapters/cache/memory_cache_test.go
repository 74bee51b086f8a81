package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mikey/phish-interrogator/internal/core"
)

func testEntry(fingerprint string, ttl time.Duration) *core.CacheEntry {
	now := time.Now()
	return &core.CacheEntry{
		Fingerprint: fingerprint,
		Verdict: core.Verdict{
			Label:  1,
			Domain: "evil.example",
			Features: core.Features{
				NumRecipients: 42,
				Extra:         map[string]json.RawMessage{"HasPhishyKeywords": json.RawMessage("1")},
			},
			ModelUsed: "remote",
		},
		CachedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

func TestMemoryCache_SetGetDelete(t *testing.T) {
	c := NewMemoryCache(zaptest.NewLogger(t), 0)
	defer c.Stop()
	ctx := context.Background()

	_, err := c.Get(ctx, "fp")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, c.Set(ctx, testEntry("fp", time.Hour)))
	entry, err := c.Get(ctx, "fp")
	require.NoError(t, err)
	assert.Equal(t, "evil.example", entry.Verdict.Domain)
	assert.Equal(t, 42, entry.Verdict.Features.NumRecipients)

	require.NoError(t, c.Delete(ctx, "fp"))
	_, err = c.Get(ctx, "fp")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(zaptest.NewLogger(t), 0)
	defer c.Stop()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, testEntry("old", -time.Minute)))
	require.NoError(t, c.Set(ctx, testEntry("new", time.Hour)))

	_, err := c.Get(ctx, "old")
	assert.True(t, errors.Is(err, ErrExpired))

	require.NoError(t, c.Cleanup(ctx))
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCache_BackgroundCleanup(t *testing.T) {
	c := NewMemoryCache(zaptest.NewLogger(t), 10*time.Millisecond)
	defer c.Stop()

	require.NoError(t, c.Set(context.Background(), testEntry("old", -time.Minute)))
	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestMemoryCache_StopTwice(t *testing.T) {
	c := NewMemoryCache(zaptest.NewLogger(t), 10*time.Millisecond)

	assert.NotPanics(t, func() {
		c.Stop()
		c.Stop()
	})
}

func TestJanitor_StopWithoutTicker(t *testing.T) {
	j := startJanitor(0, func(context.Context) error { return nil }, zaptest.NewLogger(t))

	assert.NotPanics(t, func() {
		j.stop()
		j.stop()
	})
}
