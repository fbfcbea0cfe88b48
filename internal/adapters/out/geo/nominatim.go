// Package geo implements the geocoder port against a Nominatim-compatible
// HTTP endpoint. Lookups are retried with exponential backoff because the
// public instances rate-limit aggressively.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

const (
	defaultTimeout = 10 * time.Second

	// userAgent identifies the service per the Nominatim usage policy.
	userAgent = "dispatch/1.0"
)

// Client resolves street addresses to coordinates via Nominatim.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	maxAttempts int
	baseBackoff time.Duration
	logger      *slog.Logger
}

// NewClient creates a geocoder client for the given Nominatim base URL.
func NewClient(baseURL string, maxAttempts int, baseBackoff time.Duration, logger *slog.Logger) (*Client, error) {
	if baseURL == "" {
		return nil, errs.NewValueIsRequiredError("baseURL")
	}
	if maxAttempts <= 0 {
		return nil, errs.NewValueIsInvalidError("maxAttempts")
	}
	if baseBackoff <= 0 {
		return nil, errs.NewValueIsInvalidError("baseBackoff")
	}
	if logger == nil {
		return nil, errs.NewValueIsRequiredError("logger")
	}

	return &Client{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		maxAttempts: maxAttempts,
		baseBackoff: baseBackoff,
		logger:      logger.With("component", "geocoder"),
	}, nil
}

// Geocode resolves an address to a geographic point. Transient failures are
// retried with exponential backoff; the last error is surfaced when every
// attempt fails. An address with no match is not retried.
func (c *Client) Geocode(ctx context.Context, address string) (kernel.GeoPoint, error) {
	if address == "" {
		return kernel.GeoPoint{}, errs.NewValueIsRequiredError("address")
	}

	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := c.baseBackoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return kernel.GeoPoint{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		point, retryable, err := c.lookup(ctx, address)
		if err == nil {
			return point, nil
		}
		if !retryable {
			return kernel.GeoPoint{}, err
		}

		lastErr = err
		c.logger.Warn("geocode attempt failed",
			"address", address, "attempt", attempt+1, "error", err)
	}

	return kernel.GeoPoint{}, fmt.Errorf("geocode %q: %w", address, lastErr)
}

// nominatimResult is one entry of the Nominatim search response.
type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (c *Client) lookup(ctx context.Context, address string) (kernel.GeoPoint, bool, error) {
	endpoint := fmt.Sprintf("%s/search?q=%s&format=json&limit=1", c.baseURL, url.QueryEscape(address))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return kernel.GeoPoint{}, false, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return kernel.GeoPoint{}, true, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode >= http.StatusInternalServerError ||
			resp.StatusCode == http.StatusTooManyRequests
		return kernel.GeoPoint{}, retryable, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return kernel.GeoPoint{}, true, err
	}

	var results []nominatimResult
	if err := json.Unmarshal(body, &results); err != nil {
		return kernel.GeoPoint{}, false, errs.NewValueIsInvalidErrorWithCause("geocoder response", err)
	}
	if len(results) == 0 {
		return kernel.GeoPoint{}, false, errs.NewObjectNotFoundError("address", address)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return kernel.GeoPoint{}, false, errs.NewValueIsInvalidErrorWithCause("lat", err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return kernel.GeoPoint{}, false, errs.NewValueIsInvalidErrorWithCause("lon", err)
	}

	point, err := kernel.NewGeoPoint(lat, lon)
	if err != nil {
		return kernel.GeoPoint{}, false, err
	}
	return point, false, nil
}
