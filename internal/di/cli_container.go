package di

import (
	"io"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/phish-interrogator/internal/adapters/presenter"
	"github.com/mikey/phish-interrogator/internal/config"
	"github.com/mikey/phish-interrogator/internal/core"
	"github.com/mikey/phish-interrogator/internal/extract"
	"github.com/mikey/phish-interrogator/internal/logging"
	"github.com/mikey/phish-interrogator/internal/ports"
	"github.com/mikey/phish-interrogator/internal/utils"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Classifier flags
	Provider    string
	Endpoint    string
	Timeout     time.Duration
	MaxBodySize int
	Threshold   float64

	// LLM generation flags
	MaxTokens   int
	Temperature float64
	TopP        float64

	// Bedrock flags
	BedrockRegion  string
	BedrockModelID string

	// Gemini flags
	GeminiAPIKey    string
	GeminiModelName string

	// OpenAI flags
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModelName string

	TrustedDomains []string

	// Input flags
	InputFile  string
	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application.
// Answers are read from in and the interrogation is written to out.
func BuildCLIContainer(flags *CLIFlags, in io.Reader, out io.Writer) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.NewFromFile(flags.ConfigFile)
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}

		// Create config from command line flags
		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	if err := provideCore(container); err != nil {
		return nil, err
	}

	// One-shot runs never reuse a verdict
	if err := container.Provide(func() core.VerdictCache { return nil }); err != nil {
		return nil, err
	}

	// Register interrogation service
	if err := container.Provide(newService); err != nil {
		return nil, err
	}

	// Register terminal presenter
	if err := container.Provide(func(
		service *core.InterrogationService,
		extractor *extract.Extractor,
		textProcessor *utils.TextProcessor,
		logger *zap.Logger,
	) *presenter.TerminalPresenter {
		return presenter.NewTerminalPresenter(service, extractor, textProcessor, logger, in, out)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(p *presenter.TerminalPresenter) ports.Presenter {
		return p
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	// No cache and console logging for one-shot runs
	v.Set("cache.enabled", false)
	v.Set("notify.type", "log")

	// Set classifier
	v.Set("classifier.provider", flags.Provider)
	if flags.Endpoint != "" {
		v.Set("classifier.endpoint", flags.Endpoint)
	}
	if flags.Timeout > 0 {
		v.Set("classifier.timeout", flags.Timeout.String())
	}
	if flags.MaxBodySize > 0 {
		v.Set("classifier.max_body_size", flags.MaxBodySize)
	}
	v.Set("classifier.threshold", flags.Threshold)

	// Set provider-specific configuration
	switch flags.Provider {
	case "bedrock":
		v.Set("bedrock.region", flags.BedrockRegion)
		v.Set("bedrock.model_id", flags.BedrockModelID)
		v.Set("bedrock.max_tokens", flags.MaxTokens)
		v.Set("bedrock.temperature", flags.Temperature)
		v.Set("bedrock.top_p", flags.TopP)
	case "gemini":
		v.Set("gemini.api_key", flags.GeminiAPIKey)
		v.Set("gemini.model_name", flags.GeminiModelName)
		v.Set("gemini.max_tokens", flags.MaxTokens)
		v.Set("gemini.temperature", flags.Temperature)
		v.Set("gemini.top_p", flags.TopP)
	case "openai":
		v.Set("openai.api_key", flags.OpenAIAPIKey)
		v.Set("openai.base_url", flags.OpenAIBaseURL)
		v.Set("openai.model_name", flags.OpenAIModelName)
		v.Set("openai.max_tokens", flags.MaxTokens)
		v.Set("openai.temperature", flags.Temperature)
		v.Set("openai.top_p", flags.TopP)
	}

	if len(flags.TrustedDomains) > 0 {
		v.Set("whitelist.trusted_domains", flags.TrustedDomains)
	}

	return config.NewFromViper(v)
}
