package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/brandpulse-labs/brandpulse/internal/config"
	"github.com/brandpulse-labs/brandpulse/pkg/core"
)

// InferenceClient is the default Classifier. It calls a hosted
// text-classification model over HTTP (HuggingFace inference wire shape:
// one ranked label list per input text).
type InferenceClient struct {
	endpoint string
	apiToken string
	http     *http.Client
	logger   *slog.Logger
}

var _ Classifier = (*InferenceClient)(nil)

// NewInferenceClient creates a reusable classifier client for the
// configured model. A nil logger discards output.
func NewInferenceClient(cfg config.EnrichConfig, logger *slog.Logger) *InferenceClient {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &InferenceClient{
		endpoint: strings.TrimSuffix(cfg.InferenceURL, "/") + "/" + cfg.Model,
		apiToken: cfg.APIToken,
		http:     &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
	}
}

type inferenceRequest struct {
	Inputs  []string         `json:"inputs"`
	Options inferenceOptions `json:"options"`
}

type inferenceOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// Classify sends one batch of texts and returns the top-ranked label for
// each input.
func (c *InferenceClient) Classify(ctx context.Context, texts []string) ([]core.Prediction, error) {
	body, err := json.Marshal(inferenceRequest{
		Inputs:  texts,
		Options: inferenceOptions{WaitForModel: true},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal inference request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inference request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp)
	}

	// One ranked list per input, best label first.
	var ranked [][]core.Prediction
	if err := json.NewDecoder(resp.Body).Decode(&ranked); err != nil {
		return nil, fmt.Errorf("decode inference response: %w", err)
	}

	preds := make([]core.Prediction, 0, len(ranked))
	for i, labels := range ranked {
		if len(labels) == 0 {
			return nil, fmt.Errorf("inference response has no labels for text %d", i)
		}
		preds = append(preds, labels[0])
	}

	c.logger.Debug("classified batch", "texts", len(texts), "endpoint", c.endpoint)
	return preds, nil
}

// statusError extracts the service's error message when it sent one.
func (c *InferenceClient) statusError(resp *http.Response) error {
	var apiErr struct {
		Error string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
		return fmt.Errorf("inference service returned %s: %s", resp.Status, apiErr.Error)
	}
	return fmt.Errorf("inference service returned %s", resp.Status)
}
