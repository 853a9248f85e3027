package traffic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/bluele/gcache"
	"go.uber.org/zap"

	"github.com/theoremus-urban-solutions/transight/config"
	"github.com/theoremus-urban-solutions/transight/metrics"
)

// Status is the ordinal congestion classification.
type Status string

const (
	StatusFreeFlow  Status = "Free Flow"
	StatusModerate  Status = "Moderate"
	StatusCongested Status = "Congested"
	StatusUnknown   Status = "Unknown"
)

// Signal is the traffic observation fusion consumes.
type Signal struct {
	DelayMinutes float64 `json:"delay_minutes"`
	SpeedKMH     float64 `json:"speed_kmh"`
	Status       Status  `json:"status"`
}

// Neutral is the fallback signal when the provider is unreachable.
func Neutral() Signal {
	return Signal{DelayMinutes: 0, SpeedKMH: 0, Status: StatusUnknown}
}

// flowSegmentResponse mirrors the provider's flow segment payload.
type flowSegmentResponse struct {
	FlowSegmentData struct {
		CurrentSpeed       float64 `json:"currentSpeed"`
		FreeFlowSpeed      float64 `json:"freeFlowSpeed"`
		CurrentTravelTime  float64 `json:"currentTravelTime"`
		FreeFlowTravelTime float64 `json:"freeFlowTravelTime"`
	} `json:"flowSegmentData"`
}

// Client queries the traffic provider with a short per-point cache, so a
// burst of fusions for the same stop costs one upstream call.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cache      gcache.Cache
	log        *zap.SugaredLogger
}

// NewClient builds a traffic client from configuration.
func NewClient(cfg config.TrafficConfig, log *zap.SugaredLogger) *Client {
	return &Client{
		baseURL:    cfg.URL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		cache: gcache.New(1000).
			LRU().
			Expiration(cfg.CacheTTL()).
			Build(),
		log: log,
	}
}

// SignalAt returns the traffic signal for a point. Any provider failure
// (no URL configured, transport error, bad payload) yields the neutral
// signal; fusion never fails on traffic.
func (c *Client) SignalAt(ctx context.Context, lat, lon float64) Signal {
	if c.baseURL == "" {
		return Neutral()
	}

	key := fmt.Sprintf("%.4f,%.4f", lat, lon)
	if cached, err := c.cache.Get(key); err == nil {
		if sig, ok := cached.(Signal); ok {
			metrics.TrafficLookups.WithLabelValues("cached").Inc()
			return sig
		}
	}

	sig, err := c.fetch(ctx, lat, lon)
	if err != nil {
		metrics.TrafficLookups.WithLabelValues("error").Inc()
		c.log.Warnw("traffic lookup failed, using neutral signal", "error", err)
		return Neutral()
	}
	metrics.TrafficLookups.WithLabelValues("ok").Inc()
	_ = c.cache.Set(key, sig)
	return sig
}

func (c *Client) fetch(ctx context.Context, lat, lon float64) (Signal, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return Signal{}, err
	}
	q := u.Query()
	q.Set("point", fmt.Sprintf("%g,%g", lat, lon))
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Signal{}, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Signal{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return Signal{}, fmt.Errorf("traffic provider HTTP %d", resp.StatusCode)
	}
	var body flowSegmentResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Signal{}, err
	}
	return classify(body), nil
}

// classify derives the ordinal status from the current/free-flow speed ratio
// and the delay from the travel-time difference.
func classify(body flowSegmentResponse) Signal {
	f := body.FlowSegmentData

	delaySec := f.CurrentTravelTime - f.FreeFlowTravelTime
	if delaySec < 0 {
		delaySec = 0
	}
	sig := Signal{
		DelayMinutes: roundTenth(delaySec / 60),
		SpeedKMH:     f.CurrentSpeed,
	}

	if f.FreeFlowSpeed <= 0 {
		sig.Status = StatusUnknown
		return sig
	}
	ratio := f.CurrentSpeed / f.FreeFlowSpeed
	switch {
	case ratio >= 0.8:
		sig.Status = StatusFreeFlow
	case ratio >= 0.5:
		sig.Status = StatusModerate
	default:
		sig.Status = StatusCongested
	}
	return sig
}

func roundTenth(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
