// Package token implements an in-process fungible token with standard
// balance, allowance and supply semantics. It stands in for the external
// debt-unit and collateral-asset collaborators in tests and in the dev
// server; the engine only ever sees the collaborator interfaces.
package token

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrInsufficientBalance indicates a transfer or burn exceeding the
	// holder's balance.
	ErrInsufficientBalance = errors.New("token: insufficient balance")

	// ErrInsufficientAllowance indicates a transferFrom exceeding the
	// spender's approved allowance.
	ErrInsufficientAllowance = errors.New("token: insufficient allowance")

	// ErrNotMinter indicates a mint or burn from an address other than
	// the configured minter.
	ErrNotMinter = errors.New("token: caller is not the minter")

	// ErrInvalidAmount indicates a non-positive amount.
	ErrInvalidAmount = errors.New("token: amount must be positive")
)

// Token is a concurrency-safe fungible token ledger.
type Token struct {
	symbol string

	mu          sync.RWMutex
	balances    map[common.Address]*big.Int
	allowances  map[common.Address]map[common.Address]*big.Int
	totalSupply *big.Int

	// minter, when set, is the only address allowed to mint and burn.
	minter    common.Address
	minterSet bool
}

// New creates an empty token ledger.
func New(symbol string) *Token {
	return &Token{
		symbol:      symbol,
		balances:    make(map[common.Address]*big.Int),
		allowances:  make(map[common.Address]map[common.Address]*big.Int),
		totalSupply: big.NewInt(0),
	}
}

// Symbol returns the token's identifier.
func (t *Token) Symbol() string { return t.symbol }

// SetMinter restricts minting and burning to the given address. Intended
// to be called once with the accounting engine's custody address.
func (t *Token) SetMinter(minter common.Address) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.minter = minter
	t.minterSet = true
}

// Mint creates amount new units for the recipient.
func (t *Token) Mint(caller, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.minterSet && caller != t.minter {
		return fmt.Errorf("%w: %s", ErrNotMinter, caller.Hex())
	}
	t.credit(to, amount)
	t.totalSupply = new(big.Int).Add(t.totalSupply, amount)
	return nil
}

// Burn destroys amount units held by from.
func (t *Token) Burn(caller, from common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.minterSet && caller != t.minter {
		return fmt.Errorf("%w: %s", ErrNotMinter, caller.Hex())
	}
	if err := t.debit(from, amount); err != nil {
		return err
	}
	t.totalSupply = new(big.Int).Sub(t.totalSupply, amount)
	return nil
}

// Transfer moves amount from one holder to another.
func (t *Token) Transfer(from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.debit(from, amount); err != nil {
		return err
	}
	t.credit(to, amount)
	return nil
}

// TransferFrom moves amount from `from` to `to` on behalf of the spender,
// consuming allowance. A holder moving its own balance needs no allowance.
func (t *Token) TransferFrom(spender, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if spender != from {
		allowance := t.allowance(from, spender)
		if allowance.Cmp(amount) < 0 {
			return fmt.Errorf("%w: %s allowed %s, needs %s", ErrInsufficientAllowance, spender.Hex(), allowance, amount)
		}
		if err := t.debit(from, amount); err != nil {
			return err
		}
		t.allowances[from][spender] = new(big.Int).Sub(allowance, amount)
		t.credit(to, amount)
		return nil
	}
	if err := t.debit(from, amount); err != nil {
		return err
	}
	t.credit(to, amount)
	return nil
}

// Approve grants spender the right to move amount of owner's balance.
func (t *Token) Approve(owner, spender common.Address, amount *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	perSpender, ok := t.allowances[owner]
	if !ok {
		perSpender = make(map[common.Address]*big.Int)
		t.allowances[owner] = perSpender
	}
	if amount == nil {
		amount = big.NewInt(0)
	}
	perSpender[spender] = new(big.Int).Set(amount)
}

// BalanceOf returns a copy of the holder's balance.
func (t *Token) BalanceOf(holder common.Address) *big.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if balance, ok := t.balances[holder]; ok {
		return new(big.Int).Set(balance)
	}
	return big.NewInt(0)
}

// Allowance returns a copy of the spender's remaining allowance.
func (t *Token) Allowance(owner, spender common.Address) *big.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return new(big.Int).Set(t.allowance(owner, spender))
}

// TotalSupply returns a copy of the outstanding supply.
func (t *Token) TotalSupply() *big.Int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return new(big.Int).Set(t.totalSupply)
}

func (t *Token) credit(account common.Address, amount *big.Int) {
	current, ok := t.balances[account]
	if !ok {
		current = big.NewInt(0)
	}
	t.balances[account] = new(big.Int).Add(current, amount)
}

func (t *Token) debit(account common.Address, amount *big.Int) error {
	current, ok := t.balances[account]
	if !ok || current.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, account.Hex(), current, amount)
	}
	t.balances[account] = new(big.Int).Sub(current, amount)
	return nil
}

func (t *Token) allowance(owner, spender common.Address) *big.Int {
	if perSpender, ok := t.allowances[owner]; ok {
		if amount, ok := perSpender[spender]; ok {
			return amount
		}
	}
	return big.NewInt(0)
}
