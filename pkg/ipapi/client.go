// Package ipapi looks up IP geolocation through ipapi.co.
package ipapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"tgwallet/pkg/httpclient"
)

var (
	ErrLookupFailed = errors.New("IPAPI_LOOKUP_FAILED")
	ErrTimeout      = errors.New("IPAPI_TIMEOUT")
	ErrRateLimited  = errors.New("IPAPI_RATE_LIMITED")
)

type Config struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Location holds the fields the wallet keeps; everything else stays in the raw payload.
type Location struct {
	IP          string `json:"ip"`
	CountryName string `json:"country_name"`
	City        string `json:"city"`
	Org         string `json:"org"`
	Error       bool   `json:"error"`
	Reason      string `json:"reason"`
}

type LookupResult struct {
	Raw      json.RawMessage
	Location Location
}

type GeoLocator interface {
	Lookup(ctx context.Context, ip string) (LookupResult, error)
}

type client struct {
	http   httpclient.HTTPClient
	config Config
}

func NewClient(cfg Config, http httpclient.HTTPClient) GeoLocator {
	return &client{config: cfg, http: http}
}

func (c *client) Lookup(ctx context.Context, ip string) (LookupResult, error) {
	endpoint := fmt.Sprintf("%s/%s/json/", c.config.BaseURL, url.PathEscape(ip))

	resp, err := c.http.Get(ctx, endpoint, map[string]string{"Accept": "application/json"})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return LookupResult{}, ErrTimeout
		}
		return LookupResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == 429 {
		return LookupResult{}, ErrRateLimited
	}
	if resp.StatusCode != 200 {
		return LookupResult{}, fmt.Errorf("%w: status %d", ErrLookupFailed, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return LookupResult{}, fmt.Errorf("decoding error: %w", err)
	}

	var loc Location
	if err := json.Unmarshal(raw, &loc); err != nil {
		return LookupResult{}, fmt.Errorf("decoding error: %w", err)
	}
	if loc.Error {
		return LookupResult{}, fmt.Errorf("%w: %s", ErrLookupFailed, loc.Reason)
	}
	return LookupResult{Raw: raw, Location: loc}, nil
}
