package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/beansapp/beans/internal/apperrors"
	"github.com/beansapp/beans/internal/core/domain"
	"github.com/beansapp/beans/internal/core/ports"
	"github.com/shopspring/decimal"
)

// DefaultRateTTL is how long a fetched exchange rate is served from cache.
const DefaultRateTTL = 24 * time.Hour

type cachedRate struct {
	rate      decimal.Decimal
	fetchedAt time.Time
}

// CurrencyConverter converts amounts between currencies via an external rate
// source, caching fetched rates with a time-to-live. The two directions of a
// pair are independent cache entries; no inverse rate is ever derived.
//
// Concurrent conversions for the same uncached pair may each fetch; the
// converter deliberately does not single-flight them. A stale or failed
// fetch is never papered over with an old rate.
type CurrencyConverter struct {
	BaseService
	source ports.RateSource
	ttl    time.Duration

	mu    sync.Mutex
	cache map[string]cachedRate

	now func() time.Time
}

// ConverterOption is a functional option for configuring the converter.
type ConverterOption func(*CurrencyConverter)

// WithRateTTL overrides the default cache time-to-live.
func WithRateTTL(ttl time.Duration) ConverterOption {
	return func(c *CurrencyConverter) {
		c.ttl = ttl
	}
}

// WithClock overrides the converter's time source. Used by tests to age the
// cache without sleeping.
func WithClock(now func() time.Time) ConverterOption {
	return func(c *CurrencyConverter) {
		c.now = now
	}
}

// NewCurrencyConverter creates a converter over the given rate source.
func NewCurrencyConverter(source ports.RateSource, options ...ConverterOption) *CurrencyConverter {
	c := &CurrencyConverter{
		source: source,
		ttl:    DefaultRateTTL,
		cache:  make(map[string]cachedRate),
		now:    time.Now,
	}
	for _, option := range options {
		option(c)
	}
	return c
}

var _ ports.ConverterSvc = (*CurrencyConverter)(nil)

// Convert returns amount denominated in the target currency. Converting a
// currency to itself returns the amount unchanged without touching the cache
// or the source.
func (c *CurrencyConverter) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))

	if !domain.ValidCurrencyCode(from) {
		return decimal.Zero, apperrors.NewPermanentConversionError(from, to,
			fmt.Errorf("unknown currency code %q", from))
	}
	if !domain.ValidCurrencyCode(to) {
		return decimal.Zero, apperrors.NewPermanentConversionError(from, to,
			fmt.Errorf("unknown currency code %q", to))
	}

	if from == to {
		return amount, nil
	}

	rate, err := c.rate(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rate), nil
}

// rate returns a fresh from->to rate, consulting the cache first.
func (c *CurrencyConverter) rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	key := from + ":" + to

	c.mu.Lock()
	cached, ok := c.cache[key]
	fresh := ok && c.now().Sub(cached.fetchedAt) < c.ttl
	c.mu.Unlock()
	if fresh {
		return cached.rate, nil
	}

	// Fetch outside the lock: a slow source must not serialize unrelated
	// conversions. A burst on the same pair may fetch redundantly.
	rate, err := c.source.FetchRate(ctx, from, to)
	if err != nil {
		var convErr *apperrors.ConversionError
		if !errors.As(err, &convErr) {
			err = apperrors.NewTransientConversionError(from, to, err)
		}
		c.LogError(ctx, err, "Exchange rate fetch failed",
			slog.String("from", from), slog.String("to", to))
		return decimal.Zero, err
	}

	c.mu.Lock()
	c.cache[key] = cachedRate{rate: rate, fetchedAt: c.now()}
	c.mu.Unlock()

	c.LogDebug(ctx, "Exchange rate fetched",
		slog.String("from", from), slog.String("to", to), slog.String("rate", rate.String()))
	return rate, nil
}

// ClearCache drops every cached rate.
func (c *CurrencyConverter) ClearCache() {
	c.mu.Lock()
	c.cache = make(map[string]cachedRate)
	c.mu.Unlock()
}
