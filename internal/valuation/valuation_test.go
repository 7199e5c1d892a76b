package valuation

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/collateral-engine/internal/circuitbreaker"
	"github.com/yourorg/collateral-engine/internal/feed"
	"github.com/yourorg/collateral-engine/internal/ledger"
	"github.com/yourorg/collateral-engine/internal/model"
	"github.com/yourorg/collateral-engine/internal/numeric"
	"github.com/yourorg/collateral-engine/internal/oracle"
)

const (
	weth = model.Asset("WETH")
	wbtc = model.Asset("WBTC")
)

var alice = common.HexToAddress("0x00000000000000000000000000000000000000a1")

type fixture struct {
	service    *Service
	collateral *ledger.CollateralBook
	feeds      map[model.Asset]*feed.StaticFeed
	breaker    *circuitbreaker.Breaker
}

// newFixture wires static feeds at the given 8-decimal prices through a
// primed breaker and an empty collateral book.
func newFixture(t *testing.T, prices map[model.Asset]int64) *fixture {
	t.Helper()

	book := ledger.NewCollateralBook()
	breaker := circuitbreaker.New(2_000, time.Hour)
	adapters := make(map[model.Asset]*oracle.Adapter, len(prices))
	feeds := make(map[model.Asset]*feed.StaticFeed, len(prices))

	for asset, price := range prices {
		f := feed.NewStaticFeed(big.NewInt(price), 8)
		feeds[asset] = f
		adapter := oracle.NewAdapter(asset, f, 3*time.Hour)
		adapters[asset] = adapter

		initial, _, err := adapter.LatestPrice(context.Background())
		require.NoError(t, err)
		require.NoError(t, breaker.Register(asset, initial))
	}

	return &fixture{
		service:    New(adapters, breaker, book),
		collateral: book,
		feeds:      feeds,
		breaker:    breaker,
	}
}

func TestUSDValue_EightDecimalFeed(t *testing.T) {
	// 2000 USD on an 8-decimal feed; 15 units must value to exactly
	// 30_000 USD in 18 decimals.
	fx := newFixture(t, map[model.Asset]int64{weth: 2000_0000_0000})

	value, err := fx.service.USDValue(context.Background(), weth, numeric.MustBig("15000000000000000000"))
	require.NoError(t, err)
	assert.Equal(t, numeric.MustBig("30000000000000000000000"), value)
}

func TestTokenAmountFromUSD(t *testing.T) {
	// 100 USD at 2000 USD/unit converts to 0.05 units.
	fx := newFixture(t, map[model.Asset]int64{weth: 2000_0000_0000})

	amount, err := fx.service.TokenAmountFromUSD(context.Background(), weth, numeric.MustBig("100000000000000000000"))
	require.NoError(t, err)
	assert.Equal(t, numeric.MustBig("50000000000000000"), amount)
}

func TestAccountCollateralValueUSD_SumsAcrossAssets(t *testing.T) {
	fx := newFixture(t, map[model.Asset]int64{
		weth: 2000_0000_0000,
		wbtc: 40000_0000_0000,
	})
	fx.collateral.Credit(alice, weth, numeric.MustBig("2000000000000000000"))  // 2 WETH = 4_000 USD
	fx.collateral.Credit(alice, wbtc, numeric.MustBig("500000000000000000"))  // 0.5 WBTC = 20_000 USD

	value, err := fx.service.AccountCollateralValueUSD(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, numeric.MustBig("24000000000000000000000"), value)
}

func TestAccountCollateralValueUSD_SkipsZeroBalances(t *testing.T) {
	fx := newFixture(t, map[model.Asset]int64{
		weth: 2000_0000_0000,
		wbtc: 40000_0000_0000,
	})
	fx.collateral.Credit(alice, weth, numeric.MustBig("1000000000000000000"))

	// Freeze WBTC; alice holds none, so her valuation must still work.
	_, err := fx.service.Price(context.Background(), wbtc)
	require.NoError(t, err)
	fx.feeds[wbtc].SetPrice(big.NewInt(1_0000_0000))
	_, err = fx.service.Price(context.Background(), wbtc)
	var frozen *circuitbreaker.FrozenError
	require.ErrorAs(t, err, &frozen)

	value, err := fx.service.AccountCollateralValueUSD(context.Background(), alice)
	require.NoError(t, err)
	assert.Equal(t, numeric.MustBig("2000000000000000000000"), value)
}

func TestAccountCollateralValueUSD_FailsWhileExposedAssetFrozen(t *testing.T) {
	fx := newFixture(t, map[model.Asset]int64{weth: 2000_0000_0000})
	fx.collateral.Credit(alice, weth, numeric.MustBig("1000000000000000000"))

	fx.feeds[weth].SetPrice(big.NewInt(100_0000_0000))
	_, err := fx.service.Price(context.Background(), weth)
	var frozen *circuitbreaker.FrozenError
	require.ErrorAs(t, err, &frozen)

	_, err = fx.service.AccountCollateralValueUSD(context.Background(), alice)
	assert.ErrorAs(t, err, &frozen)
	assert.Greater(t, frozen.Remaining, time.Duration(0))
}

func TestValuation_StaleFeedFailsHard(t *testing.T) {
	fx := newFixture(t, map[model.Asset]int64{weth: 2000_0000_0000})
	fx.feeds[weth].SetUpdatedAt(time.Now().Add(-4 * time.Hour))

	_, err := fx.service.USDValue(context.Background(), weth, numeric.Wad)
	assert.ErrorIs(t, err, oracle.ErrStalePrice)
}

func TestTotalCollateralValueUSD(t *testing.T) {
	fx := newFixture(t, map[model.Asset]int64{weth: 2000_0000_0000})
	bob := common.HexToAddress("0x00000000000000000000000000000000000000b2")
	fx.collateral.Credit(alice, weth, numeric.MustBig("1000000000000000000"))
	fx.collateral.Credit(bob, weth, numeric.MustBig("3000000000000000000"))

	total, err := fx.service.TotalCollateralValueUSD(context.Background())
	require.NoError(t, err)
	assert.Equal(t, numeric.MustBig("8000000000000000000000"), total)
}

func TestPrice_UnsupportedAsset(t *testing.T) {
	fx := newFixture(t, map[model.Asset]int64{weth: 2000_0000_0000})

	_, err := fx.service.Price(context.Background(), "LINK")
	assert.Error(t, err)
	assert.False(t, fx.service.Supported("LINK"))
	assert.True(t, fx.service.Supported(weth))
}
