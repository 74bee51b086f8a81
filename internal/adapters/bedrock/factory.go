package bedrock

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/mikey/phish-interrogator/internal/config"
	"github.com/mikey/phish-interrogator/internal/core"
	"github.com/mikey/phish-interrogator/internal/utils"
)

// Factory creates Bedrock classifiers
type Factory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewFactory creates a new Bedrock factory
func NewFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *Factory {
	return &Factory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateClassifier creates a new BedrockClient from the default AWS credential chain
func (f *Factory) CreateClassifier() (core.Classifier, error) {
	bedrockCfg := f.cfg.GetBedrock()
	classifierCfg, err := f.cfg.GetClassifier()
	if err != nil {
		return nil, err
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(bedrockCfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return NewBedrockClient(
		bedrockruntime.NewFromConfig(awsCfg),
		bedrockCfg.ModelID,
		bedrockCfg.MaxTokens,
		bedrockCfg.Temperature,
		bedrockCfg.TopP,
		classifierCfg.MaxBodySize,
		classifierCfg.Threshold,
		f.logger,
		f.textProcessor,
	), nil
}
