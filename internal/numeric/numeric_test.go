package numeric

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMulWad(t *testing.T) {
	// 15 units at 2000 USD -> 30_000 USD, all wad scaled
	amount := MustBig("15000000000000000000")
	price := MustBig("2000000000000000000000")

	got := MulWad(amount, price)
	assert.Equal(t, MustBig("30000000000000000000000"), got)
}

func TestDivWad(t *testing.T) {
	// 100 USD at 2000 USD/unit -> 0.05 units
	usd := MustBig("100000000000000000000")
	price := MustBig("2000000000000000000000")

	got := DivWad(usd, price)
	assert.Equal(t, MustBig("50000000000000000"), got)
}

func TestDivWadZeroDenominator(t *testing.T) {
	assert.Equal(t, int64(0), DivWad(big.NewInt(5), big.NewInt(0)).Int64())
	assert.Equal(t, int64(0), DivWad(big.NewInt(5), nil).Int64())
}

func TestApplyBps(t *testing.T) {
	value := big.NewInt(10_000)

	assert.Equal(t, int64(5_000), ApplyBps(value, 5_000).Int64())
	assert.Equal(t, int64(1_000), ApplyBps(value, 1_000).Int64())
	assert.Equal(t, int64(0), ApplyBps(value, 0).Int64())
	assert.Equal(t, int64(0), ApplyBps(nil, 5_000).Int64())
}

func TestPow10(t *testing.T) {
	assert.Equal(t, MustBig("10000000000"), Pow10(10))
	assert.Equal(t, big.NewInt(1), Pow10(0))
}

func TestTruncationMatchesIntegerDivision(t *testing.T) {
	// 10_000e18 * 1e18 / 15_000e18 truncates to 0.666...e18
	adjusted := MustBig("10000000000000000000000")
	debt := MustBig("15000000000000000000000")

	assert.Equal(t, MustBig("666666666666666666"), DivWad(adjusted, debt))
}
