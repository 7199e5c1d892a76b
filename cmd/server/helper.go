package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/yourorg/collateral-engine/internal/circuitbreaker"
	"github.com/yourorg/collateral-engine/internal/engine"
	"github.com/yourorg/collateral-engine/internal/ledger"
	"github.com/yourorg/collateral-engine/internal/oracle"
)

// Helper functions for request parsing, responses and environment variables

// badRequestError marks client input errors so statusFor maps them to 400.
type badRequestError struct {
	msg string
}

func (e badRequestError) Error() string { return e.msg }

func errBadRequest(msg string) error {
	return badRequestError{msg: msg}
}

// parseAddress decodes a 0x-prefixed hex account address.
func parseAddress(raw string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, errBadRequest(fmt.Sprintf("invalid address %q", raw))
	}
	return common.HexToAddress(raw), nil
}

// parseAmount decodes a positive base-10 integer amount in base units.
func parseAmount(raw string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok || amount.Sign() <= 0 {
		return nil, errBadRequest(fmt.Sprintf("invalid amount %q", raw))
	}
	return amount, nil
}

func parsePositiveInt(raw string) (int, error) {
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return 0, errBadRequest(fmt.Sprintf("invalid count %q", raw))
	}
	return parsed, nil
}

// statusFor maps engine errors to HTTP status codes: client mistakes are
// 400, solvency and liquidation conflicts are 409, paused or unusable
// valuations are 503, and failures of the token collaborators are 502.
func statusFor(err error) int {
	var badReq badRequestError
	var hfErr *engine.BreaksHealthFactorError
	var frozen *circuitbreaker.FrozenError

	switch {
	case errors.As(err, &badReq),
		errors.Is(err, engine.ErrInvalidAmount),
		errors.Is(err, engine.ErrUnknownAsset):
		return http.StatusBadRequest
	case errors.As(err, &hfErr),
		errors.Is(err, engine.ErrHealthFactorOk),
		errors.Is(err, engine.ErrHealthFactorNotImproved),
		errors.Is(err, ledger.ErrInsufficientCollateral),
		errors.Is(err, ledger.ErrInsufficientDebt):
		return http.StatusConflict
	case errors.As(err, &frozen),
		errors.Is(err, oracle.ErrStalePrice),
		errors.Is(err, oracle.ErrInvalidQuote),
		errors.Is(err, circuitbreaker.ErrPriceIsZero):
		return http.StatusServiceUnavailable
	case errors.Is(err, engine.ErrTransferFailed),
		errors.Is(err, engine.ErrMintFailed),
		errors.Is(err, engine.ErrBurnFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON sends a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// getEnvOrDefault returns the value of an environment variable or a default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
