// Package routing provides a best-effort driving-route client backed by an
// OSRM server. Route lookups refine displayed distances only; callers must
// degrade to their own estimates when a lookup fails.
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultServer  = "https://router.project-osrm.org"
	DefaultTimeout = 10 * time.Second

	resultOK    = "Ok"
	metersPerKm = 1000.0
)

// Client calls the OSRM HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a routing client against the public OSRM server.
func NewClient() *Client {
	return NewClientWithServer(DefaultServer)
}

// NewClientWithServer creates a routing client against a custom OSRM server.
func NewClientWithServer(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"` // meters
		Duration float64 `json:"duration"` // seconds
	} `json:"routes"`
}

// GetRoute returns the driving distance in kilometers and travel time in
// minutes between two points.
func (c *Client) GetRoute(ctx context.Context, fromLat, fromLng, toLat, toLng float64) (distanceKm, travelTimeMinutes float64, err error) {
	// OSRM wants lng,lat pairs.
	url := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?overview=false",
		c.baseURL, fromLng, fromLat, toLng, toLat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return 0, 0, fmt.Errorf("error creating request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("error fetching route: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, 0, fmt.Errorf("error reading response body: %w", err)
	}

	var parsed osrmResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, 0, fmt.Errorf("error unmarshaling route JSON: %w", err)
	}
	if parsed.Code != resultOK || len(parsed.Routes) == 0 {
		return 0, 0, fmt.Errorf("no route found (code %q)", parsed.Code)
	}

	route := parsed.Routes[0]
	return route.Distance / metersPerKm, route.Duration / 60, nil
}
