// Package model defines the core data structures shared across the
// collateral engine.
package model

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Asset identifies a registered collateral type, e.g. "WETH" or "WBTC".
// The set of assets is fixed at engine construction.
type Asset string

// Quote is a single price observation from an external feed, expressed in
// the feed's native precision. The adapter normalizes it to 18 decimals
// before anything downstream sees it.
type Quote struct {
	// Price is the signed fixed-point price in the feed's native decimals.
	Price *big.Int

	// UpdatedAt is when the feed last refreshed this price.
	UpdatedAt time.Time

	// Source identifies the upstream feed for logging and diagnostics.
	Source string
}

// Clone returns a deep copy of the quote so callers cannot mutate shared
// big.Int state.
func (q Quote) Clone() Quote {
	clone := Quote{UpdatedAt: q.UpdatedAt, Source: q.Source}
	if q.Price != nil {
		clone.Price = new(big.Int).Set(q.Price)
	}
	return clone
}

// AccountInfo is a read-only snapshot of a single account's position.
type AccountInfo struct {
	// Account is the position owner.
	Account common.Address

	// CollateralValueUSD is the aggregate 18-decimal USD valuation of all
	// deposited collateral, priced through the oracle and circuit breaker.
	CollateralValueUSD *big.Int

	// Debt is the account's minted debt in 18-decimal debt-units.
	Debt *big.Int

	// HealthFactor is the solvency ratio; values below 1e18 mark the
	// account as eligible for liquidation.
	HealthFactor *big.Int

	// Collateral holds the raw per-asset deposited balances.
	Collateral map[Asset]*big.Int
}
