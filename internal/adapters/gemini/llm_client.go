package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/mikey/phish-interrogator/internal/core"
	"github.com/mikey/phish-interrogator/internal/evidence"
	"github.com/mikey/phish-interrogator/internal/utils"
)

// GeminiClient classifies messages by asking a Google Gemini model
type GeminiClient struct {
	client        *genai.Client
	model         *genai.GenerativeModel
	modelName     string
	maxBodySize   int
	threshold     float64
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewGeminiClient creates a new Gemini classifier
func NewGeminiClient(
	ctx context.Context,
	apiKey string,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	threshold float64,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))
	model.ResponseMIMEType = "application/json"

	return &GeminiClient{
		client:        client,
		model:         model,
		modelName:     modelName,
		maxBodySize:   maxBodySize,
		threshold:     threshold,
		logger:        logger,
		textProcessor: textProcessor,
	}, nil
}

// Close closes the Gemini client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Classify asks the model for a phishing assessment and converts it into a verdict
func (c *GeminiClient) Classify(ctx context.Context, attrs core.MessageAttributes) (*core.Verdict, error) {
	ev := evidence.Compute(attrs)
	prompt := evidence.BuildPrompt(attrs, ev, c.textProcessor.ProcessText(attrs.Body, c.maxBodySize))

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with Gemini: %w", err)
	}

	text, err := candidateText(resp)
	if err != nil {
		return nil, err
	}

	assessment, err := evidence.ParseAssessment(text)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Gemini assessment received",
		zap.String("model", c.modelName),
		zap.Bool("is_phishing", assessment.IsPhishing),
		zap.Float64("confidence", assessment.Confidence))

	return assessment.Verdict(attrs, ev, c.threshold, c.modelName), nil
}

// candidateText joins the text parts of the first candidate
func candidateText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("empty response from Gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", errors.New("empty response from Gemini")
	}
	return sb.String(), nil
}
