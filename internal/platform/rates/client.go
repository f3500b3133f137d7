// Package rates fetches exchange rates from the public currency-api dataset.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/beansapp/beans/internal/apperrors"
	"github.com/beansapp/beans/internal/core/ports"
	"github.com/shopspring/decimal"
)

// DefaultBaseURL is the primary rate source endpoint.
const DefaultBaseURL = "https://cdn.jsdelivr.net/npm/@fawazahmed0/currency-api@latest/v1"

// DefaultTimeout bounds how long a single rate fetch may take. An
// unresponsive source fails instead of hanging.
const DefaultTimeout = 10 * time.Second

// Client implements ports.RateSource over the currency-api HTTP endpoint.
// An optional fallback URL is tried when the primary fails transiently.
type Client struct {
	baseURL     string
	fallbackURL string
	httpClient  *http.Client
}

// ClientOption is a functional option for configuring the client.
type ClientOption func(*Client)

// WithBaseURL overrides the primary endpoint. Used by tests.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithFallbackURL sets a secondary endpoint tried when the primary fails.
func WithFallbackURL(url string) ClientOption {
	return func(c *Client) {
		c.fallbackURL = strings.TrimSuffix(url, "/")
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a rate source client.
func NewClient(options ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, option := range options {
		option(c)
	}
	return c
}

var _ ports.RateSource = (*Client)(nil)

// FetchRate retrieves the from->to rate. Network failures, timeouts, bad
// status codes, and malformed payloads surface as transient conversion
// errors; an unknown currency or a pair absent from the dataset is
// permanent.
func (c *Client) FetchRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	rate, err := c.fetchFrom(ctx, c.baseURL, from, to)
	if err == nil {
		return rate, nil
	}

	var convErr *apperrors.ConversionError
	transient := errors.As(err, &convErr) && convErr.Transient
	if c.fallbackURL != "" && transient {
		if rate, fbErr := c.fetchFrom(ctx, c.fallbackURL, from, to); fbErr == nil {
			return rate, nil
		}
	}
	return decimal.Zero, err
}

func (c *Client) fetchFrom(ctx context.Context, baseURL, from, to string) (decimal.Decimal, error) {
	fromKey := strings.ToLower(from)
	toKey := strings.ToLower(to)
	url := fmt.Sprintf("%s/currencies/%s.json", baseURL, fromKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, apperrors.NewTransientConversionError(from, to, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, apperrors.NewTransientConversionError(from, to, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return decimal.Zero, apperrors.NewPermanentConversionError(from, to,
			fmt.Errorf("rate source has no data for currency %q", from))
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, apperrors.NewTransientConversionError(from, to,
			fmt.Errorf("rate source returned status %d", resp.StatusCode))
	}

	// Payload shape: {"date": "...", "<from>": {"<to>": rate, ...}}
	var payload map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, apperrors.NewTransientConversionError(from, to,
			fmt.Errorf("malformed rate payload: %w", err))
	}

	rawRates, ok := payload[fromKey]
	if !ok {
		return decimal.Zero, apperrors.NewTransientConversionError(from, to,
			fmt.Errorf("rate payload missing %q section", fromKey))
	}
	var rateMap map[string]decimal.Decimal
	if err := json.Unmarshal(rawRates, &rateMap); err != nil {
		return decimal.Zero, apperrors.NewTransientConversionError(from, to,
			fmt.Errorf("malformed rate table: %w", err))
	}

	rate, ok := rateMap[toKey]
	if !ok {
		return decimal.Zero, apperrors.NewPermanentConversionError(from, to,
			fmt.Errorf("rate source has no %s->%s rate", from, to))
	}
	return rate, nil
}
