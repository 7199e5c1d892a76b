// Package valuation turns raw collateral balances into USD figures by
// routing every price read through the oracle adapter and the circuit
// breaker. Any frozen or stale feed fails the whole valuation.
package valuation

import (
	"context"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/yourorg/collateral-engine/internal/circuitbreaker"
	"github.com/yourorg/collateral-engine/internal/ledger"
	"github.com/yourorg/collateral-engine/internal/model"
	"github.com/yourorg/collateral-engine/internal/numeric"
	"github.com/yourorg/collateral-engine/internal/oracle"
)

// Service computes USD valuations over the registered collateral types.
type Service struct {
	adapters   map[model.Asset]*oracle.Adapter
	breaker    *circuitbreaker.Breaker
	collateral *ledger.CollateralBook
}

// New wires the valuation service to its adapters, breaker and the
// collateral book it reads from.
func New(adapters map[model.Asset]*oracle.Adapter, breaker *circuitbreaker.Breaker, collateral *ledger.CollateralBook) *Service {
	return &Service{adapters: adapters, breaker: breaker, collateral: collateral}
}

// Assets returns the registered collateral types in deterministic order.
func (s *Service) Assets() []model.Asset {
	assets := make([]model.Asset, 0, len(s.adapters))
	for asset := range s.adapters {
		assets = append(assets, asset)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i] < assets[j] })
	return assets
}

// Supported reports whether the asset is a registered collateral type.
func (s *Service) Supported(asset model.Asset) bool {
	_, ok := s.adapters[asset]
	return ok
}

// Price returns the current 18-decimal price for the asset, validated by
// the circuit breaker. Fails while the asset is frozen or its feed stale.
func (s *Service) Price(ctx context.Context, asset model.Asset) (*big.Int, error) {
	adapter, ok := s.adapters[asset]
	if !ok {
		return nil, fmt.Errorf("valuation: no price adapter for %s", asset)
	}
	observed, _, err := adapter.LatestPrice(ctx)
	if err != nil {
		return nil, err
	}
	return s.breaker.Validate(asset, observed)
}

// USDValue converts a token amount of the asset into 18-decimal USD.
func (s *Service) USDValue(ctx context.Context, asset model.Asset, amount *big.Int) (*big.Int, error) {
	price, err := s.Price(ctx, asset)
	if err != nil {
		return nil, err
	}
	return numeric.MulWad(amount, price), nil
}

// TokenAmountFromUSD converts an 18-decimal USD amount into token units of
// the asset at the current oracle price.
func (s *Service) TokenAmountFromUSD(ctx context.Context, asset model.Asset, usd *big.Int) (*big.Int, error) {
	price, err := s.Price(ctx, asset)
	if err != nil {
		return nil, err
	}
	return numeric.DivWad(usd, price), nil
}

// AccountCollateralValueUSD sums the USD value of every collateral type the
// account has deposited. Assets with a zero balance are skipped, so a
// frozen feed only blocks accounts actually exposed to it.
func (s *Service) AccountCollateralValueUSD(ctx context.Context, account common.Address) (*big.Int, error) {
	total := big.NewInt(0)
	for _, asset := range s.Assets() {
		balance := s.collateral.Balance(account, asset)
		if balance.Sign() == 0 {
			continue
		}
		value, err := s.USDValue(ctx, asset, balance)
		if err != nil {
			return nil, err
		}
		total.Add(total, value)
	}
	return total, nil
}

// TotalCollateralValueUSD values the whole book across all accounts, used
// for the system-wide solvency report.
func (s *Service) TotalCollateralValueUSD(ctx context.Context) (*big.Int, error) {
	total := big.NewInt(0)
	for _, asset := range s.Assets() {
		deposited := s.collateral.Total(asset)
		if deposited.Sign() == 0 {
			continue
		}
		value, err := s.USDValue(ctx, asset, deposited)
		if err != nil {
			return nil, err
		}
		total.Add(total, value)
	}
	return total, nil
}
