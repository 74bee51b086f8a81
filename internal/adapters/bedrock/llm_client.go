package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/mikey/phish-interrogator/internal/core"
	"github.com/mikey/phish-interrogator/internal/evidence"
	"github.com/mikey/phish-interrogator/internal/utils"
)

// ModelInvoker is the subset of the Bedrock runtime client used for classification
type ModelInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockClient classifies messages by invoking an Amazon Bedrock model
type BedrockClient struct {
	client        ModelInvoker
	modelID       string
	maxTokens     int
	temperature   float32
	topP          float32
	maxBodySize   int
	threshold     float64
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewBedrockClient creates a new Bedrock classifier
func NewBedrockClient(
	client ModelInvoker,
	modelID string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxBodySize int,
	threshold float64,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *BedrockClient {
	return &BedrockClient{
		client:        client,
		modelID:       modelID,
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
func (c *BedrockClient) Classify(ctx context.Context, attrs core.MessageAttributes) (*core.Verdict, error) {
	ev := evidence.Compute(attrs)
	prompt := evidence.BuildPrompt(attrs, ev, c.textProcessor.ProcessText(attrs.Body, c.maxBodySize))

	payload, err := c.buildPayload(prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	resp, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		Body:        payload,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	text, err := c.completionText(resp.Body)
	if err != nil {
		return nil, err
	}

	assessment, err := evidence.ParseAssessment(text)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Bedrock assessment received",
		zap.String("model", c.modelID),
		zap.Bool("is_phishing", assessment.IsPhishing),
		zap.Float64("confidence", assessment.Confidence))

	return assessment.Verdict(attrs, ev, c.threshold, c.modelID), nil
}

// buildPayload formats the request body for the model family
func (c *BedrockClient) buildPayload(prompt string) ([]byte, error) {
	switch {
	case c.isAnthropicModel():
		return json.Marshal(map[string]interface{}{
			"prompt":               "\n\nHuman: " + prompt + "\n\nAssistant:",
			"max_tokens_to_sample": c.maxTokens,
			"temperature":          c.temperature,
			"top_p":                c.topP,
		})
	case c.isAmazonTitanModel():
		return json.Marshal(map[string]interface{}{
			"inputText": prompt,
			"textGenerationConfig": map[string]interface{}{
				"maxTokenCount": c.maxTokens,
				"temperature":   c.temperature,
				"topP":          c.topP,
			},
		})
	default:
		return json.Marshal(map[string]interface{}{
			"prompt":      prompt,
			"max_tokens":  c.maxTokens,
			"temperature": c.temperature,
			"top_p":       c.topP,
		})
	}
}

// completionText pulls the generated text out of a model family's response body
func (c *BedrockClient) completionText(body []byte) (string, error) {
	switch {
	case c.isAnthropicModel():
		var claudeResp struct {
			Completion string `json:"completion"`
		}
		if err := json.Unmarshal(body, &claudeResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Claude response: %w", err)
		}
		return claudeResp.Completion, nil

	case c.isAmazonTitanModel():
		var titanResp struct {
			Results []struct {
				OutputText string `json:"outputText"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &titanResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal Titan response: %w", err)
		}
		if len(titanResp.Results) == 0 {
			return "", fmt.Errorf("empty response from Titan model")
		}
		return titanResp.Results[0].OutputText, nil

	default:
		var genericResp struct {
			Output   string `json:"output"`
			Text     string `json:"text"`
			Response string `json:"response"`
		}
		if err := json.Unmarshal(body, &genericResp); err != nil {
			return "", fmt.Errorf("failed to unmarshal generic response: %w", err)
		}
		for _, candidate := range []string{genericResp.Output, genericResp.Text, genericResp.Response} {
			if candidate != "" {
				return candidate, nil
			}
		}
		return string(body), nil
	}
}

// isAnthropicModel checks if the model is an Anthropic Claude model
func (c *BedrockClient) isAnthropicModel() bool {
	return strings.HasPrefix(c.modelID, "anthropic.claude")
}

// isAmazonTitanModel checks if the model is an Amazon Titan model
func (c *BedrockClient) isAmazonTitanModel() bool {
	return strings.HasPrefix(c.modelID, "amazon.titan")
}
