package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mikey/phish-interrogator/internal/core"
	"github.com/mikey/phish-interrogator/internal/utils"
)

type fakeInvoker struct {
	input *bedrockruntime.InvokeModelInput
	body  []byte
	err   error
}

func (f *fakeInvoker) InvokeModel(_ context.Context, params *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: f.body}, nil
}

var attrs = core.NewMessageAttributes(
	"it@evil.example", "a@corp.example", "2024-05-01 10:02:00",
	"Invoice overdue", "Pay at http://pay.evil.example now", "Bob",
)

func newClient(t *testing.T, modelID string, invoker ModelInvoker) *BedrockClient {
	logger := zaptest.NewLogger(t)
	return NewBedrockClient(invoker, modelID, 500, 0.1, 0.9, 4096, 0.83, logger, utils.NewTextProcessor(logger))
}

func TestClassify_ModelFamilies(t *testing.T) {
	assessment := `{"is_phishing": true, "confidence": 0.95, "explanation": "payment lure"}`
	quoted, _ := json.Marshal(assessment)

	tests := []struct {
		name       string
		modelID    string
		response   string
		payloadKey string
	}{
		{"claude", "anthropic.claude-v2", `{"completion":` + string(quoted) + `}`, "max_tokens_to_sample"},
		{"titan", "amazon.titan-text-express-v1", `{"results":[{"outputText":` + string(quoted) + `}]}`, "textGenerationConfig"},
		{"generic", "meta.llama3", `{"output":` + string(quoted) + `}`, "max_tokens"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invoker := &fakeInvoker{body: []byte(tt.response)}
			v, err := newClient(t, tt.modelID, invoker).Classify(context.Background(), attrs)
			require.NoError(t, err)

			assert.True(t, v.Flagged())
			assert.Equal(t, "pay.evil.example", v.Domain)
			assert.Equal(t, tt.modelID, v.ModelUsed)
			assert.Equal(t, tt.modelID, aws.ToString(invoker.input.ModelId))

			var payload map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(invoker.input.Body, &payload))
			assert.Contains(t, payload, tt.payloadKey)
		})
	}
}

func TestClassify_Errors(t *testing.T) {
	_, err := newClient(t, "anthropic.claude-v2", &fakeInvoker{err: errors.New("throttled")}).
		Classify(context.Background(), attrs)
	assert.ErrorContains(t, err, "throttled")

	_, err = newClient(t, "amazon.titan-text-express-v1", &fakeInvoker{body: []byte(`{"results":[]}`)}).
		Classify(context.Background(), attrs)
	assert.ErrorContains(t, err, "empty response")

	_, err = newClient(t, "meta.llama3", &fakeInvoker{body: []byte(`not json`)}).
		Classify(context.Background(), attrs)
	assert.Error(t, err)
}
