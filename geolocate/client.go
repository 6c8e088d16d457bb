// Package geolocate wraps an external IP geolocation provider. The
// provider having no data for an address is an expected outcome and is
// reported as such, never as an error.
package geolocate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fleetops/device-provisioning-backend/interfaces"
)

// Client queries an ipstack-compatible geolocation API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *slog.Logger
}

// New creates a geolocation client for the given provider base URL and
// API key.
func New(baseURL, apiKey string, log *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// lookupResponse mirrors the provider's response. Coordinates are
// pointers because the provider returns JSON null for unknown addresses.
type lookupResponse struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Locate resolves ipAddress to coordinates. Returns found=false when the
// provider answers with no data, a non-2xx status, or a malformed body;
// only transport-level failures produce an error.
func (c *Client) Locate(ctx context.Context, ipAddress string) (interfaces.GeoPoint, bool, error) {
	requestURL := fmt.Sprintf("%s/%s?access_key=%s", c.baseURL, url.PathEscape(ipAddress), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return interfaces.GeoPoint{}, false, fmt.Errorf("failed to build geolocation request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return interfaces.GeoPoint{}, false, fmt.Errorf("geolocation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn("Geolocation provider returned non-2xx status",
			slog.Int("status", resp.StatusCode),
			slog.String("ip", ipAddress))
		return interfaces.GeoPoint{}, false, nil
	}

	var parsed lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		c.log.Warn("Failed to parse geolocation response", "err", err, slog.String("ip", ipAddress))
		return interfaces.GeoPoint{}, false, nil
	}

	if parsed.Latitude == nil || parsed.Longitude == nil {
		c.log.Debug("Geolocation provider has no coordinates for address", slog.String("ip", ipAddress))
		return interfaces.GeoPoint{}, false, nil
	}

	return interfaces.GeoPoint{Latitude: *parsed.Latitude, Longitude: *parsed.Longitude}, true, nil
}
