package model

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/theoremus-urban-solutions/transight/config"
)

// ErrUnavailable reports that the prediction model cannot be used. It is a
// degradation trigger, never an error surfaced to API callers.
var ErrUnavailable = errors.New("prediction model unavailable")

// Features is the fixed input vector of the trained regressor. Field order
// and names match the training schema.
type Features struct {
	TrafficDelayMinutes float64 `json:"traffic_delay"`
	CrowdCount          int     `json:"crowd_count"`
	IsRaining           bool    `json:"is_raining"`
}

// Predictor maps a feature vector to a delay estimate in minutes.
type Predictor interface {
	Predict(ctx context.Context, f Features) (float64, error)
	Configured() bool
}

// HTTPPredictor posts the feature vector to a scoring service.
type HTTPPredictor struct {
	url        string
	httpClient *http.Client
}

// NewHTTPPredictor builds a predictor from configuration. An empty URL
// yields a predictor that always reports ErrUnavailable.
func NewHTTPPredictor(cfg config.ModelConfig) *HTTPPredictor {
	return &HTTPPredictor{
		url:        cfg.URL,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
	}
}

// Configured reports whether a scoring endpoint is set.
func (p *HTTPPredictor) Configured() bool { return p.url != "" }

// Predict scores one feature vector. Any failure maps to ErrUnavailable so
// the caller's fallback policy stays uniform.
func (p *HTTPPredictor) Predict(ctx context.Context, f Features) (float64, error) {
	if p.url == "" {
		return 0, ErrUnavailable
	}

	payload, err := json.Marshal(f)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: HTTP %d", ErrUnavailable, resp.StatusCode)
	}
	var out struct {
		PredictedDelayMinutes float64 `json:"predicted_delay_minutes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return out.PredictedDelayMinutes, nil
}
