package oracle

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/collateral-engine/internal/model"
	"github.com/yourorg/collateral-engine/internal/numeric"
)

type fakeFeed struct {
	quote    model.Quote
	decimals uint8
	err      error
}

func (f *fakeFeed) LatestQuote(ctx context.Context) (model.Quote, error) {
	if f.err != nil {
		return model.Quote{}, f.err
	}
	return f.quote, nil
}

func (f *fakeFeed) Decimals() uint8 { return f.decimals }

func TestAdapter_NormalizesEightDecimalFeed(t *testing.T) {
	// 2000 USD on an 8-decimal feed must scale to 2000e18 internally.
	feed := &fakeFeed{
		quote:    model.Quote{Price: big.NewInt(2000_0000_0000), UpdatedAt: time.Now(), Source: "test"},
		decimals: 8,
	}
	adapter := NewAdapter("WETH", feed, time.Hour)

	price, _, err := adapter.LatestPrice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, numeric.MustBig("2000000000000000000000"), price)
}

func TestAdapter_NormalizesHighPrecisionFeed(t *testing.T) {
	feed := &fakeFeed{
		quote:    model.Quote{Price: numeric.MustBig("2000000000000000000000000"), UpdatedAt: time.Now(), Source: "test"},
		decimals: 21,
	}
	adapter := NewAdapter("WETH", feed, time.Hour)

	price, _, err := adapter.LatestPrice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, numeric.MustBig("2000000000000000000000"), price)
}

func TestAdapter_RejectsStaleQuote(t *testing.T) {
	feed := &fakeFeed{
		quote:    model.Quote{Price: big.NewInt(2000_0000_0000), UpdatedAt: time.Now().Add(-4 * time.Hour), Source: "test"},
		decimals: 8,
	}
	adapter := NewAdapter("WETH", feed, 3*time.Hour)

	_, _, err := adapter.LatestPrice(context.Background())
	assert.ErrorIs(t, err, ErrStalePrice)
}

func TestAdapter_QuoteExactlyAtTimeoutIsAccepted(t *testing.T) {
	updated := time.Now()
	feed := &fakeFeed{
		quote:    model.Quote{Price: big.NewInt(1), UpdatedAt: updated, Source: "test"},
		decimals: 18,
	}
	adapter := NewAdapter("WETH", feed, 3*time.Hour).
		WithClock(func() time.Time { return updated.Add(3 * time.Hour) })

	_, _, err := adapter.LatestPrice(context.Background())
	assert.NoError(t, err)
}

func TestAdapter_RejectsMalformedQuote(t *testing.T) {
	feed := &fakeFeed{quote: model.Quote{UpdatedAt: time.Now()}, decimals: 8}
	adapter := NewAdapter("WETH", feed, time.Hour)

	_, _, err := adapter.LatestPrice(context.Background())
	assert.ErrorIs(t, err, ErrInvalidQuote)
}

func TestAdapter_RejectsNonPositivePrice(t *testing.T) {
	// A zero or negative quote must never reach the breaker, where it
	// would become the anchor on a post-cooldown re-read.
	for _, price := range []*big.Int{big.NewInt(0), big.NewInt(-2000_0000_0000)} {
		feed := &fakeFeed{
			quote:    model.Quote{Price: price, UpdatedAt: time.Now(), Source: "test"},
			decimals: 8,
		}
		adapter := NewAdapter("WETH", feed, time.Hour)

		_, _, err := adapter.LatestPrice(context.Background())
		assert.ErrorIs(t, err, ErrInvalidQuote)
	}
}

func TestAdapter_PropagatesFeedError(t *testing.T) {
	feedErr := errors.New("connection refused")
	adapter := NewAdapter("WETH", &fakeFeed{err: feedErr}, time.Hour)

	_, _, err := adapter.LatestPrice(context.Background())
	assert.ErrorIs(t, err, feedErr)
}
