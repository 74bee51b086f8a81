package openai

import (
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/mikey/phish-interrogator/internal/config"
	"github.com/mikey/phish-interrogator/internal/core"
	"github.com/mikey/phish-interrogator/internal/utils"
)

// Factory creates new instances of OpenAIClient
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new factory for OpenAIClient instances
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateClassifier creates a new OpenAIClient
func (f *Factory) CreateClassifier() (core.Classifier, error) {
	openaiCfg := f.cfg.GetOpenAI()
	classifierCfg, err := f.cfg.GetClassifier()
	if err != nil {
		return nil, err
	}
	if openaiCfg.APIKey == "" {
		return nil, fmt.Errorf("openai.api_key is required for the openai classifier")
	}

	clientCfg := openai.DefaultConfig(openaiCfg.APIKey)
	if openaiCfg.BaseURL != "" {
		clientCfg.BaseURL = openaiCfg.BaseURL
	}

	return NewOpenAIClient(
		openai.NewClientWithConfig(clientCfg),
		openaiCfg.ModelName,
		openaiCfg.MaxTokens,
		openaiCfg.Temperature,
		openaiCfg.TopP,
		classifierCfg.MaxBodySize,
		classifierCfg.Threshold,
		f.logger,
		f.textProcessor,
	), nil
}
