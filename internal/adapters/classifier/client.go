package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/phish-interrogator/internal/core"
	"github.com/mikey/phish-interrogator/internal/utils"
)

// DefaultTimeout bounds a classification request when no HTTP client is supplied
const DefaultTimeout = 10 * time.Second

// predictRequest is the request body of the classifier endpoint
type predictRequest struct {
	From         string `json:"from"`
	To           string `json:"to"`
	Date         string `json:"date"`
	Subject      string `json:"subject"`
	Body         string `json:"body"`
	ReceiverName string `json:"receiver_name"`
}

// predictResponse is the response body of the classifier endpoint.
// Label is a pointer so a missing label can be told apart from 0.
type predictResponse struct {
	Label        *int                       `json:"label"`
	Domain       string                     `json:"domain"`
	FeaturesUsed map[string]json.RawMessage `json:"features_used"`
}

// HTTPStatusError captures non-2xx classifier responses
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("classifier: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// Client talks to the external phishing classifier over its JSON contract
type Client struct {
	endpoint      string
	httpClient    *http.Client
	maxBodySize   int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithMaxBodySize truncates message bodies before they are sent
func WithMaxBodySize(size int) Option {
	return func(c *Client) {
		c.maxBodySize = size
	}
}

// NewClient creates a classifier client for endpoint
func NewClient(endpoint string, logger *zap.Logger, textProcessor *utils.TextProcessor, opts ...Option) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("classifier: endpoint must not be empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if textProcessor == nil {
		textProcessor = utils.NewTextProcessor(logger)
	}

	c := &Client{
		endpoint:      endpoint,
		httpClient:    &http.Client{Timeout: DefaultTimeout},
		logger:        logger,
		textProcessor: textProcessor,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Classify posts the attributes to the classifier and decodes its verdict.
// A response without a label decodes to a verdict with label 0.
func (c *Client) Classify(ctx context.Context, attrs core.MessageAttributes) (*core.Verdict, error) {
	body, err := json.Marshal(predictRequest{
		From:         attrs.From,
		To:           attrs.To,
		Date:         attrs.Date,
		Subject:      attrs.Subject,
		Body:         c.textProcessor.ProcessText(attrs.Body, c.maxBodySize),
		ReceiverName: attrs.ReceiverName,
	})
	if err != nil {
		return nil, fmt.Errorf("classifier: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("classifier: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	raw, err := c.doJSONRequest(req)
	if err != nil {
		return nil, fmt.Errorf("classifier: request failed: %w", err)
	}

	var payload predictResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("classifier: decode response: %w", err)
	}

	verdict, err := toVerdict(payload)
	if err != nil {
		return nil, err
	}
	verdict.ModelUsed = "remote"

	c.logger.Debug("Classifier responded",
		zap.Int("label", verdict.Label),
		zap.String("domain", verdict.Domain),
		zap.Duration("elapsed", time.Since(start)))

	return verdict, nil
}

func toVerdict(payload predictResponse) (*core.Verdict, error) {
	verdict := &core.Verdict{Domain: payload.Domain}
	if payload.Label != nil {
		verdict.Label = *payload.Label
	}

	extra := make(map[string]json.RawMessage, len(payload.FeaturesUsed))
	for name, value := range payload.FeaturesUsed {
		if name == "NumRecipients" {
			if err := json.Unmarshal(value, &verdict.Features.NumRecipients); err != nil {
				return nil, fmt.Errorf("classifier: decode NumRecipients: %w", err)
			}
			continue
		}
		extra[name] = value
	}
	verdict.Features.Extra = extra

	return verdict, nil
}

func (c *Client) doJSONRequest(req *http.Request) ([]byte, error) {
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return nil, &HTTPStatusError{
			StatusCode: res.StatusCode,
			URL:        c.endpoint,
			Body:       string(buf),
		}
	}

	buf, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return buf, nil
}
