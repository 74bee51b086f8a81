package gemini

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/phish-interrogator/internal/config"
	"github.com/mikey/phish-interrogator/internal/core"
	"github.com/mikey/phish-interrogator/internal/utils"
)

// Factory creates new instances of GeminiClient
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new factory for GeminiClient instances
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateClassifier creates a new GeminiClient
func (f *Factory) CreateClassifier() (core.Classifier, error) {
	geminiCfg := f.cfg.GetGemini()
	classifierCfg, err := f.cfg.GetClassifier()
	if err != nil {
		return nil, err
	}
	if geminiCfg.APIKey == "" {
		return nil, fmt.Errorf("gemini.api_key is required for the gemini classifier")
	}

	return NewGeminiClient(
		context.Background(),
		geminiCfg.APIKey,
		geminiCfg.ModelName,
		geminiCfg.MaxTokens,
		geminiCfg.Temperature,
		geminiCfg.TopP,
		classifierCfg.MaxBodySize,
		classifierCfg.Threshold,
		f.logger,
		f.textProcessor,
	)
}
