// Package ledger holds the per-account collateral and debt books. The books
// are exclusively owned by the accounting engine; every mutation goes
// through its methods so invariant checks have a single choke point.
// Snapshot/Restore give the engine whole-operation atomicity: it snapshots
// before mutating and restores when any check or collaborator call fails.
package ledger

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/yourorg/collateral-engine/internal/model"
)

var (
	// ErrInsufficientCollateral indicates a debit that would drive a
	// collateral balance negative.
	ErrInsufficientCollateral = errors.New("ledger: insufficient collateral balance")

	// ErrInsufficientDebt indicates a debit that would drive a debt
	// balance negative.
	ErrInsufficientDebt = errors.New("ledger: insufficient debt balance")
)

// CollateralBook tracks deposited collateral per account and asset.
type CollateralBook struct {
	balances map[common.Address]map[model.Asset]*big.Int
}

// NewCollateralBook creates an empty collateral book.
func NewCollateralBook() *CollateralBook {
	return &CollateralBook{balances: make(map[common.Address]map[model.Asset]*big.Int)}
}

// Credit increases an account's balance for the asset. amount must already
// be validated positive by the caller.
func (b *CollateralBook) Credit(account common.Address, asset model.Asset, amount *big.Int) {
	perAsset, ok := b.balances[account]
	if !ok {
		perAsset = make(map[model.Asset]*big.Int)
		b.balances[account] = perAsset
	}
	current, ok := perAsset[asset]
	if !ok {
		current = big.NewInt(0)
	}
	perAsset[asset] = new(big.Int).Add(current, amount)
}

// Debit decreases an account's balance for the asset. Underflow fails the
// debit without mutating anything.
func (b *CollateralBook) Debit(account common.Address, asset model.Asset, amount *big.Int) error {
	current := b.balance(account, asset)
	if current.Cmp(amount) < 0 {
		return ErrInsufficientCollateral
	}
	perAsset, ok := b.balances[account]
	if !ok {
		perAsset = make(map[model.Asset]*big.Int)
		b.balances[account] = perAsset
	}
	perAsset[asset] = new(big.Int).Sub(current, amount)
	return nil
}

// Balance returns a copy of the account's balance for the asset.
func (b *CollateralBook) Balance(account common.Address, asset model.Asset) *big.Int {
	return new(big.Int).Set(b.balance(account, asset))
}

// Balances returns a deep copy of all non-zero balances for the account.
func (b *CollateralBook) Balances(account common.Address) map[model.Asset]*big.Int {
	out := make(map[model.Asset]*big.Int)
	for asset, amount := range b.balances[account] {
		if amount.Sign() > 0 {
			out[asset] = new(big.Int).Set(amount)
		}
	}
	return out
}

// Total returns the sum of all accounts' balances for the asset.
func (b *CollateralBook) Total(asset model.Asset) *big.Int {
	total := big.NewInt(0)
	for _, perAsset := range b.balances {
		if amount, ok := perAsset[asset]; ok {
			total.Add(total, amount)
		}
	}
	return total
}

func (b *CollateralBook) balance(account common.Address, asset model.Asset) *big.Int {
	if perAsset, ok := b.balances[account]; ok {
		if amount, ok := perAsset[asset]; ok {
			return amount
		}
	}
	return big.NewInt(0)
}

// CollateralSnapshot is an opaque deep copy of a collateral book's state.
type CollateralSnapshot struct {
	balances map[common.Address]map[model.Asset]*big.Int
}

// Snapshot captures the book's current state.
func (b *CollateralBook) Snapshot() *CollateralSnapshot {
	snap := &CollateralSnapshot{balances: make(map[common.Address]map[model.Asset]*big.Int, len(b.balances))}
	for account, perAsset := range b.balances {
		copied := make(map[model.Asset]*big.Int, len(perAsset))
		for asset, amount := range perAsset {
			copied[asset] = new(big.Int).Set(amount)
		}
		snap.balances[account] = copied
	}
	return snap
}

// Restore discards the book's state in favor of the snapshot.
func (b *CollateralBook) Restore(snap *CollateralSnapshot) {
	restored := make(map[common.Address]map[model.Asset]*big.Int, len(snap.balances))
	for account, perAsset := range snap.balances {
		copied := make(map[model.Asset]*big.Int, len(perAsset))
		for asset, amount := range perAsset {
			copied[asset] = new(big.Int).Set(amount)
		}
		restored[account] = copied
	}
	b.balances = restored
}

// DebtBook tracks minted debt per account plus the running total.
type DebtBook struct {
	debts map[common.Address]*big.Int
	total *big.Int
}

// NewDebtBook creates an empty debt book.
func NewDebtBook() *DebtBook {
	return &DebtBook{debts: make(map[common.Address]*big.Int), total: big.NewInt(0)}
}

// Credit increases an account's debt. amount must already be validated
// positive by the caller.
func (b *DebtBook) Credit(account common.Address, amount *big.Int) {
	current, ok := b.debts[account]
	if !ok {
		current = big.NewInt(0)
	}
	b.debts[account] = new(big.Int).Add(current, amount)
	b.total = new(big.Int).Add(b.total, amount)
}

// Debit decreases an account's debt. Underflow fails without mutating.
func (b *DebtBook) Debit(account common.Address, amount *big.Int) error {
	current, ok := b.debts[account]
	if !ok || current.Cmp(amount) < 0 {
		return ErrInsufficientDebt
	}
	b.debts[account] = new(big.Int).Sub(current, amount)
	b.total = new(big.Int).Sub(b.total, amount)
	return nil
}

// Balance returns a copy of the account's debt.
func (b *DebtBook) Balance(account common.Address) *big.Int {
	if current, ok := b.debts[account]; ok {
		return new(big.Int).Set(current)
	}
	return big.NewInt(0)
}

// Total returns a copy of the aggregate minted debt.
func (b *DebtBook) Total() *big.Int {
	return new(big.Int).Set(b.total)
}

// DebtSnapshot is an opaque deep copy of a debt book's state.
type DebtSnapshot struct {
	debts map[common.Address]*big.Int
	total *big.Int
}

// Snapshot captures the book's current state.
func (b *DebtBook) Snapshot() *DebtSnapshot {
	snap := &DebtSnapshot{debts: make(map[common.Address]*big.Int, len(b.debts)), total: new(big.Int).Set(b.total)}
	for account, amount := range b.debts {
		snap.debts[account] = new(big.Int).Set(amount)
	}
	return snap
}

// Restore discards the book's state in favor of the snapshot.
func (b *DebtBook) Restore(snap *DebtSnapshot) {
	restored := make(map[common.Address]*big.Int, len(snap.debts))
	for account, amount := range snap.debts {
		restored[account] = new(big.Int).Set(amount)
	}
	b.debts = restored
	b.total = new(big.Int).Set(snap.total)
}
