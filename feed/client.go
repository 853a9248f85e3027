package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/theoremus-urban-solutions/transight/config"
	"github.com/theoremus-urban-solutions/transight/geo"
)

// Parser decodes one raw feed payload into normalized vehicle records.
type Parser interface {
	Parse(payload []byte) ([]VehicleRecord, error)
}

// Client fetches the vehicle-monitoring feed for a bounding box and decodes
// it with the configured parser. It implements cache.Fetcher.
type Client struct {
	baseURL    string
	apiKey     string
	parser     Parser
	httpClient *http.Client
}

// NewClient builds a feed client from configuration. The parser is chosen by
// cfg.Kind; the line filter is applied at parse time.
func NewClient(cfg config.FeedConfig) *Client {
	var parser Parser
	switch cfg.Kind {
	case "gtfsrt":
		parser = &GTFSRTParser{LineFilter: cfg.LineFilter}
	default:
		parser = &SIRIParser{LineFilter: cfg.LineFilter}
	}
	return &Client{
		baseURL:    cfg.URL,
		apiKey:     cfg.APIKey,
		parser:     parser,
		httpClient: &http.Client{Timeout: cfg.Timeout()},
	}
}

// FetchVehicles fetches and decodes the live vehicle set for a bounding box.
// Transport failures return a TransportError; undecodable payloads return a
// FormatError. The caller decides the fallback in both cases.
func (c *Client) FetchVehicles(ctx context.Context, bbox geo.BBox) ([]VehicleRecord, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, &TransportError{URL: c.baseURL, Cause: err}
	}
	q := u.Query()
	q.Set("boundingBox", fmt.Sprintf("%g,%g,%g,%g", bbox.MinLon, bbox.MinLat, bbox.MaxLon, bbox.MaxLat))
	if c.apiKey != "" {
		q.Set("api_key", c.apiKey)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &TransportError{URL: c.baseURL, Cause: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{URL: c.baseURL, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{URL: c.baseURL, Cause: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{URL: c.baseURL, Cause: err}
	}
	return c.parser.Parse(body)
}
