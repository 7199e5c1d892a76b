package token

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Bound wraps a Token with a fixed caller identity, matching the
// collaborator interfaces the accounting engine consumes: the engine acts
// as spender, custodian and (for the debt unit) sole minter without
// threading its address through every call.
type Bound struct {
	token  *Token
	caller common.Address
}

// Bind returns a view of the token acting as caller.
func (t *Token) Bind(caller common.Address) *Bound {
	return &Bound{token: t, caller: caller}
}

// Token returns the underlying token ledger.
func (b *Bound) Token() *Token { return b.token }

// Mint creates new units for the recipient, authorized as the bound caller.
func (b *Bound) Mint(to common.Address, amount *big.Int) error {
	return b.token.Mint(b.caller, to, amount)
}

// Burn destroys units held by from, authorized as the bound caller.
func (b *Bound) Burn(from common.Address, amount *big.Int) error {
	return b.token.Burn(b.caller, from, amount)
}

// Transfer moves units out of the bound caller's own balance.
func (b *Bound) Transfer(to common.Address, amount *big.Int) error {
	return b.token.Transfer(b.caller, to, amount)
}

// TransferFrom moves units between third parties with the bound caller as
// spender, consuming allowance.
func (b *Bound) TransferFrom(from, to common.Address, amount *big.Int) error {
	return b.token.TransferFrom(b.caller, from, to, amount)
}

// BalanceOf returns a holder's balance.
func (b *Bound) BalanceOf(holder common.Address) *big.Int {
	return b.token.BalanceOf(holder)
}

// TotalSupply returns the outstanding supply.
func (b *Bound) TotalSupply() *big.Int {
	return b.token.TotalSupply()
}
