package config

import (
	"fmt"
	"strings"
	"time"
)

// ClassifierConfig represents the configuration of the phishing classifier
type ClassifierConfig struct {
	Provider    string
	Endpoint    string
	Timeout     time.Duration
	MaxBodySize int
	Threshold   float64
}

// SelectorConfig holds the CSS selectors used to read the host page
type SelectorConfig struct {
	Sender       string
	Recipients   string
	Date         string
	Subject      string
	Body         string
	ReceiverName string
}

// ServerConfig represents the configuration of the overlay HTTP server
type ServerConfig struct {
	ListenAddress string
	Mode          string
	ReadTimeout    time.Duration
	MaxPageSize    int64
	AllowedOrigins []string
}

// CacheConfig represents the configuration of the verdict cache
type CacheConfig struct {
	Type             string
	Enabled          bool
	TTL              time.Duration
	CleanupFrequency time.Duration
	SQLitePath       string
	MySQLDSN         string
	PostgresDSN      string
	Redis            RedisConfig
}

// RedisConfig represents the connection settings of the redis cache
type RedisConfig struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string
}

// NotifyConfig represents the configuration of remediation notices
type NotifyConfig struct {
	Type string
	SMTP SMTPConfig
}

// SMTPConfig represents the mail relay used for remediation notices
type SMTPConfig struct {
	Address       string
	From          string
	To            []string
	Username      string
	Password      string
	SubjectPrefix string
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// GetClassifier returns the classifier configuration
func (c *Config) GetClassifier() (ClassifierConfig, error) {
	timeout, err := c.GetDuration("classifier.timeout")
	if err != nil {
		return ClassifierConfig{}, fmt.Errorf("invalid classifier timeout: %w", err)
	}
	threshold := c.GetFloat64("classifier.threshold")
	if threshold < 0 || threshold > 1 {
		return ClassifierConfig{}, fmt.Errorf("classifier threshold must be within [0, 1], got %v", threshold)
	}

	return ClassifierConfig{
		Provider:    c.GetString("classifier.provider"),
		Endpoint:    c.GetString("classifier.endpoint"),
		Timeout:     timeout,
		MaxBodySize: c.GetInt("classifier.max_body_size"),
		Threshold:   threshold,
	}, nil
}

// GetExtractor returns the host page selectors
func (c *Config) GetExtractor() SelectorConfig {
	return SelectorConfig{
		Sender:       c.GetString("extractor.selectors.sender"),
		Recipients:   c.GetString("extractor.selectors.recipients"),
		Date:         c.GetString("extractor.selectors.date"),
		Subject:      c.GetString("extractor.selectors.subject"),
		Body:         c.GetString("extractor.selectors.body"),
		ReceiverName: c.GetString("extractor.selectors.receiver_name"),
	}
}

// GetServer returns the overlay server configuration
func (c *Config) GetServer() (ServerConfig, error) {
	readTimeout, err := c.GetDuration("server.read_timeout")
	if err != nil {
		return ServerConfig{}, fmt.Errorf("invalid server read timeout: %w", err)
	}

	origins := c.GetStringSlice("server.allowed_origins")
	for _, origin := range origins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return ServerConfig{}, fmt.Errorf("invalid allowed origin %q: must be * or start with http:// or https://", origin)
		}
	}

	return ServerConfig{
		ListenAddress:  c.GetString("server.listen_address"),
		Mode:           c.GetString("server.mode"),
		ReadTimeout:    readTimeout,
		MaxPageSize:    int64(c.GetInt("server.max_page_size")),
		AllowedOrigins: origins,
	}, nil
}

// GetCache returns the cache configuration
func (c *Config) GetCache() (CacheConfig, error) {
	ttl, err := c.GetDuration("cache.ttl")
	if err != nil {
		return CacheConfig{}, fmt.Errorf("invalid cache TTL: %w", err)
	}
	cleanup, err := c.GetDuration("cache.cleanup_frequency")
	if err != nil {
		return CacheConfig{}, fmt.Errorf("invalid cache cleanup frequency: %w", err)
	}

	return CacheConfig{
		Type:             c.GetString("cache.type"),
		Enabled:          c.GetBool("cache.enabled"),
		TTL:              ttl,
		CleanupFrequency: cleanup,
		SQLitePath:       c.GetString("cache.sqlite_path"),
		MySQLDSN:         c.GetString("cache.mysql_dsn"),
		PostgresDSN:      c.GetString("cache.postgres_dsn"),
		Redis: RedisConfig{
			Address:   c.GetString("cache.redis.address"),
			Password:  c.GetString("cache.redis.password"),
			DB:        c.GetInt("cache.redis.db"),
			KeyPrefix: c.GetString("cache.redis.key_prefix"),
		},
	}, nil
}

// GetNotify returns the remediation notice configuration
func (c *Config) GetNotify() NotifyConfig {
	return NotifyConfig{
		Type: c.GetString("notify.type"),
		SMTP: SMTPConfig{
			Address:       c.GetString("notify.smtp.address"),
			From:          c.GetString("notify.smtp.from"),
			To:            c.GetStringSlice("notify.smtp.to"),
			Username:      c.GetString("notify.smtp.username"),
			Password:      c.GetString("notify.smtp.password"),
			SubjectPrefix: c.GetString("notify.smtp.subject_prefix"),
		},
	}
}

// GetTrustedDomains returns the sender domains that bypass classification
func (c *Config) GetTrustedDomains() []string {
	return c.GetStringSlice("whitelist.trusted_domains")
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		BaseURL:     c.GetString("openai.base_url"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
	}
}
