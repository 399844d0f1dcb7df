package recognizer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/soundprediction/toponimo/pkg/types"
)

// ServiceRecognizer calls a remote NER endpoint. The service returns
// mentions with spans already attached; only label normalization and
// filtering happen client side.
type ServiceRecognizer struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
}

type recognizeRequest struct {
	Text string `json:"text"`
}

// NewServiceRecognizer creates a client for the recognition service at the
// configured endpoint.
func NewServiceRecognizer(config Config, logger *slog.Logger) (*ServiceRecognizer, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("recognizer service endpoint is required")
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ServiceRecognizer{
		config: config,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}, nil
}

// Recognize implements Recognizer.
func (r *ServiceRecognizer) Recognize(ctx context.Context, text string) ([]types.Mention, error) {
	reqBody, err := json.Marshal(recognizeRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal recognize request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", r.config.Endpoint+"/ner", strings.NewReader(string(reqBody)))
	if err != nil {
		return nil, fmt.Errorf("failed to create recognize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.config.APIKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, types.NewExternalModelError("", fmt.Errorf("recognizer request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.NewExternalModelError("", fmt.Errorf("failed to read recognizer response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, types.NewExternalModelError("", fmt.Errorf("recognizer status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var raw []types.Mention
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, types.NewExternalModelError("", fmt.Errorf("recognizer returned undecodable payload: %w", err))
	}

	mentions := make([]types.Mention, 0, len(raw))
	for _, m := range raw {
		if m.Score < r.config.Threshold {
			continue
		}
		m.Tag = NormalizeTag(m.Tag)
		if r.config.LocationOnly && !LocationTag(m.Tag) {
			continue
		}
		mentions = append(mentions, m)
	}
	return mentions, nil
}

// Close is a no-op for the HTTP client.
func (r *ServiceRecognizer) Close() error {
	return nil
}
