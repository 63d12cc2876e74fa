package game

import "math/bits"

// PermilleBase is the denominator of every Permille fraction.
const PermilleBase uint64 = 1000

// Permille is a fraction expressed in parts per 1000.
type Permille uint64

// Of returns amount × p / 1000. The multiplication is checked in 64 bits:
// ok is false when the intermediate product overflows, and the caller picks
// the fallback that is safe for its call site.
func (p Permille) Of(amount uint64) (uint64, bool) {
	return MulDiv(amount, uint64(p), PermilleBase)
}

// OfOr is Of with an explicit fallback on overflow.
func (p Permille) OfOr(amount, fallback uint64) uint64 {
	v, ok := p.Of(amount)
	if !ok {
		return fallback
	}
	return v
}

// MulDiv computes a × b / d with a checked 64-bit product.
func MulDiv(a, b, d uint64) (uint64, bool) {
	if d == 0 {
		return 0, false
	}
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, false
	}
	return lo / d, true
}

// MulDivOr is MulDiv with an explicit fallback on overflow.
func MulDivOr(a, b, d, fallback uint64) uint64 {
	v, ok := MulDiv(a, b, d)
	if !ok {
		return fallback
	}
	return v
}

// mulDiv128 keeps the full 128-bit product and only fails when the quotient
// does not fit in 64 bits.
func mulDiv128(a, b, d uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	if d == 0 || hi >= d {
		return 0, false
	}
	q, _ := bits.Div64(hi, lo, d)
	return q, true
}

func checkedAdd(a, b uint64) (uint64, bool) {
	sum, carry := bits.Add64(a, b, 0)
	return sum, carry == 0
}

func checkedMul(a, b uint64) (uint64, bool) {
	hi, lo := bits.Mul64(a, b)
	return lo, hi == 0
}

func saturatingAdd(a, b uint64) uint64 {
	if sum, ok := checkedAdd(a, b); ok {
		return sum
	}
	return maxAmount
}

func saturatingMul(a, b uint64) uint64 {
	if p, ok := checkedMul(a, b); ok {
		return p
	}
	return maxAmount
}

func saturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}
