// Package numeric provides the fixed-point arithmetic used for prices,
// valuations and health factors. All internal values carry 18 decimals
// (wad); ratios are expressed in basis points.
package numeric

import "math/big"

var (
	// Wad is the 18-decimal fixed-point scale.
	Wad = big.NewInt(1_000_000_000_000_000_000)

	// BasisPoints is the denominator for ratio parameters (10_000 = 100%).
	BasisPoints = big.NewInt(10_000)
)

// MustBig parses a base-10 integer literal and panics on malformed input.
// Reserved for package-level constants.
func MustBig(value string) *big.Int {
	v, ok := new(big.Int).SetString(value, 10)
	if !ok {
		panic("numeric: invalid big integer constant: " + value)
	}
	return v
}

// MulWad multiplies two wad values, truncating toward zero: a*b/1e18.
func MulWad(a, b *big.Int) *big.Int {
	if a == nil || b == nil {
		return big.NewInt(0)
	}
	product := new(big.Int).Mul(a, b)
	return product.Quo(product, Wad)
}

// DivWad divides two wad values, truncating toward zero: a*1e18/b.
// A nil or zero denominator yields zero; callers guard the zero branch
// explicitly where it is meaningful.
func DivWad(a, b *big.Int) *big.Int {
	if a == nil || b == nil || b.Sign() == 0 {
		return big.NewInt(0)
	}
	numerator := new(big.Int).Mul(a, Wad)
	return numerator.Quo(numerator, b)
}

// ApplyBps scales a value by a basis-point ratio: a*bps/10_000.
func ApplyBps(a *big.Int, bps uint64) *big.Int {
	if a == nil || bps == 0 {
		return big.NewInt(0)
	}
	scaled := new(big.Int).Mul(a, new(big.Int).SetUint64(bps))
	return scaled.Quo(scaled, BasisPoints)
}

// Pow10 returns 10^n as a big integer.
func Pow10(n uint) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// Clone returns a defensive copy of x, treating nil as zero.
func Clone(x *big.Int) *big.Int {
	if x == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(x)
}
