package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	cc, err := cfg.GetClassifier()
	require.NoError(t, err)
	assert.Equal(t, "http", cc.Provider)
	assert.Equal(t, 10*time.Second, cc.Timeout)
	assert.InDelta(t, 0.83, cc.Threshold, 1e-9)

	sel := cfg.GetExtractor()
	assert.Equal(t, ".sender-row strong", sel.Sender)
	assert.Equal(t, "#email-details p:nth-child(2)", sel.Recipients)
	assert.Equal(t, ".receiver-name", sel.ReceiverName)

	cache, err := cfg.GetCache()
	require.NoError(t, err)
	assert.Equal(t, "memory", cache.Type)
	assert.True(t, cache.Enabled)
	assert.Equal(t, 24*time.Hour, cache.TTL)
	assert.Equal(t, "phish:verdict:", cache.Redis.KeyPrefix)

	notify := cfg.GetNotify()
	assert.Equal(t, "log", notify.Type)
	assert.Equal(t, []string{"security@localhost"}, notify.SMTP.To)

	srv, err := cfg.GetServer()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", srv.ListenAddress)
	assert.Equal(t, int64(2<<20), srv.MaxPageSize)
	assert.Equal(t, []string{"*"}, srv.AllowedOrigins)

	assert.Empty(t, cfg.GetTrustedDomains())
}

func TestOverrides(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())
	cfg.Set("classifier.provider", "openai")
	cfg.Set("classifier.timeout", "250ms")
	cfg.Set("whitelist.trusted_domains", []string{"corp.example"})
	cfg.Set("openai.base_url", "http://localhost:9999/v1")

	cc, err := cfg.GetClassifier()
	require.NoError(t, err)
	assert.Equal(t, "openai", cc.Provider)
	assert.Equal(t, 250*time.Millisecond, cc.Timeout)
	assert.Equal(t, []string{"corp.example"}, cfg.GetTrustedDomains())
	assert.Equal(t, "http://localhost:9999/v1", cfg.GetOpenAI().BaseURL)
}

func TestInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  interface{}
		call func(*Config) error
	}{
		{"classifier timeout", "classifier.timeout", "soon", func(c *Config) error { _, err := c.GetClassifier(); return err }},
		{"threshold", "classifier.threshold", 1.5, func(c *Config) error { _, err := c.GetClassifier(); return err }},
		{"cache ttl", "cache.ttl", "forever", func(c *Config) error { _, err := c.GetCache(); return err }},
		{"cleanup", "cache.cleanup_frequency", "", func(c *Config) error { _, err := c.GetCache(); return err }},
		{"read timeout", "server.read_timeout", "x", func(c *Config) error { _, err := c.GetServer(); return err }},
		{"allowed origin", "server.allowed_origins", []string{"mail.example"}, func(c *Config) error { _, err := c.GetServer(); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewFromViper(NewEmptyViper())
			cfg.Set(tt.key, tt.val)
			assert.Error(t, tt.call(cfg))
		})
	}
}

func TestNewFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phish.yaml")
	err := os.WriteFile(path, []byte(`
classifier:
  provider: openai
  threshold: 0.5
whitelist:
  trusted_domains:
    - example.org
notify:
  type: smtp
`), 0o600)
	require.NoError(t, err)

	cfg, err := NewFromFile(path)
	require.NoError(t, err)

	cc, err := cfg.GetClassifier()
	require.NoError(t, err)
	assert.Equal(t, "openai", cc.Provider)
	assert.InDelta(t, 0.5, cc.Threshold, 1e-9)
	assert.Equal(t, 10*time.Second, cc.Timeout)
	assert.Equal(t, []string{"example.org"}, cfg.GetTrustedDomains())
	assert.Equal(t, "smtp", cfg.GetNotify().Type)
	assert.Equal(t, path, cfg.GetViper().ConfigFileUsed())

	_, err = NewFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
