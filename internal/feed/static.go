package feed

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/yourorg/collateral-engine/internal/model"
)

// StaticFeed serves a fixed, manually adjustable price. Used for local
// development and as the test double throughout the engine tests.
type StaticFeed struct {
	mu        sync.RWMutex
	price     *big.Int
	updatedAt time.Time
	decimals  uint8
}

// NewStaticFeed creates a feed reporting the given price at the given
// native precision, freshly updated.
func NewStaticFeed(price *big.Int, decimals uint8) *StaticFeed {
	return &StaticFeed{
		price:     new(big.Int).Set(price),
		updatedAt: time.Now(),
		decimals:  decimals,
	}
}

// SetPrice replaces the served price and refreshes the update timestamp.
func (f *StaticFeed) SetPrice(price *big.Int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.price = new(big.Int).Set(price)
	f.updatedAt = time.Now()
}

// SetUpdatedAt backdates the quote, letting tests exercise staleness.
func (f *StaticFeed) SetUpdatedAt(at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updatedAt = at
}

// LatestQuote implements oracle.PriceFeed.
func (f *StaticFeed) LatestQuote(ctx context.Context) (model.Quote, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return model.Quote{
		Price:     new(big.Int).Set(f.price),
		UpdatedAt: f.updatedAt,
		Source:    "static",
	}, nil
}

// Decimals implements oracle.PriceFeed.
func (f *StaticFeed) Decimals() uint8 { return f.decimals }
