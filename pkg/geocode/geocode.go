// Package geocode resolves free-form place queries to coordinates
// through a Mapbox-style forward geocoding endpoint.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"wander/pkg/fault"
	"wander/pkg/geo"
)

type Config struct {
	Endpoint string
	Token    string
}

type Client struct {
	endpoint string
	token    string
	http     *http.Client
	log      *slog.Logger
}

func NewClient(cfg Config, httpClient *http.Client, log *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{
		endpoint: cfg.Endpoint,
		token:    cfg.Token,
		http:     httpClient,
		log:      log,
	}
}

type response struct {
	Features []struct {
		Center geo.LngLat `json:"center"`
	} `json:"features"`
}

// Search resolves query to the best-matching coordinate. The second
// return value is false when the geocoder knows nothing about the
// query; that is not an error.
func (c *Client) Search(ctx context.Context, query string) (geo.LngLat, bool, error) {
	if c.token == "" {
		return geo.LngLat{}, false, fault.ErrCredentialMissing
	}

	u := fmt.Sprintf("%s/%s.json?access_token=%s&limit=1",
		c.endpoint, url.PathEscape(query), url.QueryEscape(c.token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return geo.LngLat{}, false, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return geo.LngLat{}, false, fmt.Errorf("%w: %v", fault.ErrNetworkUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return geo.LngLat{}, false, fmt.Errorf("%w: reading response: %v", fault.ErrNetworkUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return geo.LngLat{}, false, fault.Upstream(resp.StatusCode, string(body))
	}

	var parsed response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return geo.LngLat{}, false, fault.Malformed("geocoding response is not valid JSON")
	}
	if len(parsed.Features) == 0 {
		c.log.Debug("geocoder found nothing", "query", query)
		return geo.LngLat{}, false, nil
	}
	return parsed.Features[0].Center, true, nil
}
