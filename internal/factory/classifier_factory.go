package factory

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/mikey/phish-interrogator/internal/adapters/bedrock"
	"github.com/mikey/phish-interrogator/internal/adapters/classifier"
	"github.com/mikey/phish-interrogator/internal/adapters/gemini"
	"github.com/mikey/phish-interrogator/internal/adapters/openai"
	"github.com/mikey/phish-interrogator/internal/config"
	"github.com/mikey/phish-interrogator/internal/core"
	"github.com/mikey/phish-interrogator/internal/utils"
)

// ClassifierFactory creates classifiers based on configuration
type ClassifierFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewClassifierFactory creates a new classifier factory
func NewClassifierFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *ClassifierFactory {
	return &ClassifierFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateClassifier creates a new classifier based on the configuration
func (f *ClassifierFactory) CreateClassifier() (core.Classifier, error) {
	classifierCfg, err := f.cfg.GetClassifier()
	if err != nil {
		return nil, err
	}

	switch classifierCfg.Provider {
	case "http", "":
		return classifier.NewClient(
			classifierCfg.Endpoint,
			f.logger,
			f.textProcessor,
			classifier.WithHTTPClient(&http.Client{Timeout: classifierCfg.Timeout}),
			classifier.WithMaxBodySize(classifierCfg.MaxBodySize),
		)
	case "bedrock":
		return bedrock.NewFactory(f.cfg, f.logger, f.textProcessor).CreateClassifier()
	case "gemini":
		return gemini.NewFactory(f.cfg, f.logger, f.textProcessor).CreateClassifier()
	case "openai":
		return openai.NewFactory(f.cfg, f.logger, f.textProcessor).CreateClassifier()
	default:
		return nil, fmt.Errorf("unsupported classifier provider: %s", classifierCfg.Provider)
	}
}
