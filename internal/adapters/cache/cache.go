package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/phish-interrogator/internal/core"
)

var (
	// ErrNotFound is returned when a cache entry is not found
	ErrNotFound = errors.New("cache entry not found")
	// ErrExpired is returned when a cache entry has expired
	ErrExpired = errors.New("cache entry expired")
)

// encodeVerdict serialises a verdict for the storage backends
func encodeVerdict(v core.Verdict) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to encode verdict: %w", err)
	}
	return string(raw), nil
}

func decodeVerdict(raw string) (core.Verdict, error) {
	var v core.Verdict
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return core.Verdict{}, fmt.Errorf("failed to decode verdict: %w", err)
	}
	return v, nil
}

// janitor runs a cache's Cleanup on a ticker until stopped
type janitor struct {
	freq     time.Duration
	cleanup  func(ctx context.Context) error
	logger   *zap.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

func startJanitor(freq time.Duration, cleanup func(ctx context.Context) error, logger *zap.Logger) *janitor {
	j := &janitor{
		freq:    freq,
		cleanup: cleanup,
		logger:  logger,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	if freq > 0 {
		go j.run()
	} else {
		close(j.doneCh)
	}
	return j
}

func (j *janitor) run() {
	defer close(j.doneCh)
	ticker := time.NewTicker(j.freq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := j.cleanup(context.Background()); err != nil {
				j.logger.Error("Failed to clean up cache", zap.Error(err))
			}
		case <-j.stopCh:
			return
		}
	}
}

// stop returns once the cleanup goroutine has exited; it is safe to call more than once
func (j *janitor) stop() {
	j.stopOnce.Do(func() { close(j.stopCh) })
	<-j.doneCh
}
