package engine

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrInvalidAmount is returned for nil, zero or negative amounts.
	ErrInvalidAmount = errors.New("engine: amount must be positive")

	// ErrUnknownAsset is returned for assets outside the configured set.
	ErrUnknownAsset = errors.New("engine: unsupported collateral asset")

	// ErrConfigMismatch is returned when the constructor's asset, feed
	// and token lists do not line up.
	ErrConfigMismatch = errors.New("engine: asset, feed and token lists must have equal length")

	// ErrTransferFailed wraps a collateral token movement that the token
	// rejected.
	ErrTransferFailed = errors.New("engine: collateral transfer failed")

	// ErrMintFailed wraps a debt-unit issuance the token rejected.
	ErrMintFailed = errors.New("engine: debt mint failed")

	// ErrBurnFailed wraps a debt-unit retirement the token rejected.
	ErrBurnFailed = errors.New("engine: debt burn failed")

	// ErrHealthFactorOk is returned when liquidation targets a solvent
	// account.
	ErrHealthFactorOk = errors.New("engine: target health factor is above minimum")

	// ErrHealthFactorNotImproved is returned when a liquidation would
	// leave the target no better off than before.
	ErrHealthFactorNotImproved = errors.New("engine: liquidation did not improve target health factor")
)

// BreaksHealthFactorError reports that an operation would leave an account
// below the minimum health factor. The offending factor is attached so
// callers can report how far below minimum the account would land.
type BreaksHealthFactorError struct {
	Account      common.Address
	HealthFactor *big.Int
}

func (e *BreaksHealthFactorError) Error() string {
	return fmt.Sprintf("engine: operation breaks health factor for %s: %s", e.Account.Hex(), e.HealthFactor)
}
