package openai

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/mikey/phish-interrogator/internal/core"
	"github.com/mikey/phish-interrogator/internal/evidence"
	"github.com/mikey/phish-interrogator/internal/utils"
)

// OpenAIClient classifies messages by asking an OpenAI chat model
type OpenAIClient struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	threshold     float64
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewOpenAIClient creates a new OpenAI classifier
func NewOpenAIClient(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	threshold float64,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *OpenAIClient {
	return &OpenAIClient{
		client:        client,
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		maxBodySize:   maxBodySize,
		threshold:     threshold,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// Classify asks the model for a phishing assessment and converts it into a verdict
func (c *OpenAIClient) Classify(ctx context.Context, attrs core.MessageAttributes) (*core.Verdict, error) {
	ev := evidence.Compute(attrs)
	prompt := evidence.BuildPrompt(attrs, ev, c.textProcessor.ProcessText(attrs.Body, c.maxBodySize))

	req := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a phishing detection system. Respond only with JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from OpenAI")
	}

	assessment, err := evidence.ParseAssessment(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("OpenAI assessment received",
		zap.String("model", c.modelName),
		zap.String("completion_id", resp.ID),
		zap.Bool("is_phishing", assessment.IsPhishing),
		zap.Float64("confidence", assessment.Confidence))

	return assessment.Verdict(attrs, ev, c.threshold, c.modelName), nil
}
