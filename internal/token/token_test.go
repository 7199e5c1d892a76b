package token

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	engineAddr = common.HexToAddress("0x00000000000000000000000000000000000000ee")
	alice      = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	bob        = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

func TestMintTransferBurn(t *testing.T) {
	tok := New("DSC")

	require.NoError(t, tok.Mint(engineAddr, alice, big.NewInt(1000)))
	assert.Equal(t, big.NewInt(1000), tok.BalanceOf(alice))
	assert.Equal(t, big.NewInt(1000), tok.TotalSupply())

	require.NoError(t, tok.Transfer(alice, bob, big.NewInt(400)))
	assert.Equal(t, big.NewInt(600), tok.BalanceOf(alice))
	assert.Equal(t, big.NewInt(400), tok.BalanceOf(bob))

	require.NoError(t, tok.Burn(engineAddr, bob, big.NewInt(400)))
	assert.Equal(t, big.NewInt(0), tok.BalanceOf(bob))
	assert.Equal(t, big.NewInt(600), tok.TotalSupply())
}

func TestMinterAuthorization(t *testing.T) {
	tok := New("DSC")
	tok.SetMinter(engineAddr)

	assert.ErrorIs(t, tok.Mint(alice, alice, big.NewInt(1)), ErrNotMinter)
	require.NoError(t, tok.Mint(engineAddr, alice, big.NewInt(10)))
	assert.ErrorIs(t, tok.Burn(alice, alice, big.NewInt(1)), ErrNotMinter)
	require.NoError(t, tok.Burn(engineAddr, alice, big.NewInt(10)))
}

func TestTransferInsufficientBalance(t *testing.T) {
	tok := New("WETH")
	require.NoError(t, tok.Mint(engineAddr, alice, big.NewInt(5)))

	err := tok.Transfer(alice, bob, big.NewInt(6))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, big.NewInt(5), tok.BalanceOf(alice))
}

func TestTransferFromConsumesAllowance(t *testing.T) {
	tok := New("WETH")
	require.NoError(t, tok.Mint(engineAddr, alice, big.NewInt(100)))

	tok.Approve(alice, engineAddr, big.NewInt(60))
	require.NoError(t, tok.TransferFrom(engineAddr, alice, bob, big.NewInt(40)))
	assert.Equal(t, big.NewInt(20), tok.Allowance(alice, engineAddr))

	err := tok.TransferFrom(engineAddr, alice, bob, big.NewInt(30))
	assert.ErrorIs(t, err, ErrInsufficientAllowance)
	assert.Equal(t, big.NewInt(60), tok.BalanceOf(alice))
}

func TestTransferFromOwnBalanceNeedsNoAllowance(t *testing.T) {
	tok := New("WETH")
	require.NoError(t, tok.Mint(engineAddr, alice, big.NewInt(50)))

	require.NoError(t, tok.TransferFrom(alice, alice, bob, big.NewInt(30)))
	assert.Equal(t, big.NewInt(20), tok.BalanceOf(alice))
	assert.Equal(t, big.NewInt(30), tok.BalanceOf(bob))
}

func TestBoundTokenActsAsCaller(t *testing.T) {
	tok := New("DSC")
	tok.SetMinter(engineAddr)
	bound := tok.Bind(engineAddr)

	require.NoError(t, bound.Mint(alice, big.NewInt(100)))
	assert.Equal(t, big.NewInt(100), bound.BalanceOf(alice))

	tok.Approve(alice, engineAddr, big.NewInt(100))
	require.NoError(t, bound.TransferFrom(alice, engineAddr, big.NewInt(100)))
	require.NoError(t, bound.Burn(engineAddr, big.NewInt(40)))
	require.NoError(t, bound.Transfer(bob, big.NewInt(60)))

	assert.Equal(t, big.NewInt(60), tok.BalanceOf(bob))
	assert.Equal(t, big.NewInt(60), bound.TotalSupply())
}

func TestInvalidAmounts(t *testing.T) {
	tok := New("WETH")

	assert.ErrorIs(t, tok.Mint(engineAddr, alice, big.NewInt(0)), ErrInvalidAmount)
	assert.ErrorIs(t, tok.Transfer(alice, bob, big.NewInt(-1)), ErrInvalidAmount)
	assert.ErrorIs(t, tok.Burn(engineAddr, alice, nil), ErrInvalidAmount)
}
