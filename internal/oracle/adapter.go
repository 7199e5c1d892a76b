// Package oracle wraps external price feeds behind a staleness check and a
// precision-normalizing adapter. A stale or malformed quote is a hard
// failure for the calling operation; nothing here retries.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourorg/collateral-engine/internal/model"
	"github.com/yourorg/collateral-engine/internal/numeric"
)

// DefaultStalenessTimeout is how old a quote may be before it is rejected.
const DefaultStalenessTimeout = 3 * time.Hour

// InternalDecimals is the precision every price is normalized to.
const InternalDecimals = 18

var (
	// ErrStalePrice indicates the feed's quote is older than the
	// staleness timeout.
	ErrStalePrice = errors.New("oracle: stale price")

	// ErrInvalidQuote indicates the feed returned a quote that cannot be
	// used: nil or non-positive price, or missing timestamp.
	ErrInvalidQuote = errors.New("oracle: invalid quote")
)

// PriceFeed is the read contract consumed from an external price source.
type PriceFeed interface {
	// LatestQuote returns the most recent price observation in the feed's
	// native precision.
	LatestQuote(ctx context.Context) (model.Quote, error)

	// Decimals reports the feed's native precision.
	Decimals() uint8
}

// Adapter validates and normalizes quotes from a single feed for a single
// collateral type.
type Adapter struct {
	asset   model.Asset
	feed    PriceFeed
	timeout time.Duration
	now     func() time.Time
}

// NewAdapter wraps feed for the given asset using the provided staleness
// timeout. A non-positive timeout falls back to the default.
func NewAdapter(asset model.Asset, feed PriceFeed, timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = DefaultStalenessTimeout
	}
	return &Adapter{
		asset:   asset,
		feed:    feed,
		timeout: timeout,
		now:     time.Now,
	}
}

// WithClock overrides the time source, used by tests.
func (a *Adapter) WithClock(now func() time.Time) *Adapter {
	a.now = now
	return a
}

// Asset returns the collateral type this adapter serves.
func (a *Adapter) Asset() model.Asset {
	return a.asset
}

// LatestPrice fetches the feed's current quote, rejects stale or malformed
// observations, and returns the price normalized to 18 decimals along with
// the feed's update timestamp.
func (a *Adapter) LatestPrice(ctx context.Context) (*big.Int, time.Time, error) {
	quote, err := a.feed.LatestQuote(ctx)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("oracle: feed read for %s: %w", a.asset, err)
	}
	if quote.Price == nil || quote.UpdatedAt.IsZero() {
		return nil, time.Time{}, fmt.Errorf("%w: feed %q for %s", ErrInvalidQuote, quote.Source, a.asset)
	}
	// A zero or negative price would anchor the breaker at a corrupt value
	// during a post-cooldown thaw.
	if quote.Price.Sign() <= 0 {
		return nil, time.Time{}, fmt.Errorf("%w: feed %q reported %s for %s", ErrInvalidQuote, quote.Source, quote.Price, a.asset)
	}

	age := a.now().Sub(quote.UpdatedAt)
	if age > a.timeout {
		return nil, time.Time{}, fmt.Errorf("%w: %s quote is %s old (timeout %s)",
			ErrStalePrice, a.asset, age.Round(time.Second), a.timeout)
	}

	price := a.normalize(quote.Price)
	logrus.Debugf("Oracle quote for %s: %s (source=%s, age=%s)", a.asset, price, quote.Source, age.Round(time.Second))
	return price, quote.UpdatedAt, nil
}

// normalize converts a native-precision price to the internal 18-decimal
// scale via a fixed multiplicative (or divisive) factor.
func (a *Adapter) normalize(price *big.Int) *big.Int {
	decimals := a.feed.Decimals()
	switch {
	case decimals < InternalDecimals:
		factor := numeric.Pow10(uint(InternalDecimals - decimals))
		return new(big.Int).Mul(price, factor)
	case decimals > InternalDecimals:
		factor := numeric.Pow10(uint(decimals - InternalDecimals))
		return new(big.Int).Quo(new(big.Int).Set(price), factor)
	default:
		return new(big.Int).Set(price)
	}
}
