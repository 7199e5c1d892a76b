// Package health computes the solvency ratio used to gate minting,
// redemption and liquidation. It is the single source of truth for whether
// an account is safe.
package health

import (
	"math/big"

	gethmath "github.com/ethereum/go-ethereum/common/math"

	"github.com/yourorg/collateral-engine/internal/numeric"
)

// DefaultLiquidationThresholdBps means only 50% of nominal collateral value
// counts toward debt support, i.e. minting requires 200% nominal
// overcollateralization.
const DefaultLiquidationThresholdBps = 5_000

// MinHealthFactor is the 18-decimal boundary below which an account is
// eligible for liquidation.
var MinHealthFactor = new(big.Int).Set(numeric.Wad)

// Calculate returns the health factor for an account: the risk-adjusted
// collateral value divided by debt, wad scaled. An account with zero debt
// cannot be unsafe and reports the maximum representable value. Pure and
// deterministic; never fails for non-negative inputs since the division
// only happens on the guarded non-zero debt branch.
func Calculate(collateralValueUSD, debt *big.Int, liquidationThresholdBps uint64) *big.Int {
	if debt == nil || debt.Sign() == 0 {
		return new(big.Int).Set(gethmath.MaxBig256)
	}
	adjusted := numeric.ApplyBps(collateralValueUSD, liquidationThresholdBps)
	return numeric.DivWad(adjusted, debt)
}

// IsHealthy reports whether the health factor clears the liquidation
// boundary.
func IsHealthy(healthFactor *big.Int) bool {
	return healthFactor != nil && healthFactor.Cmp(MinHealthFactor) >= 0
}
