package game

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPermilleOf(t *testing.T) {
	v, ok := Permille(735).Of(2_400_000)
	assert.True(t, ok)
	assert.Equal(t, uint64(1_764_000), v)

	v, ok = Permille(1).Of(999)
	assert.True(t, ok)
	assert.Equal(t, uint64(0), v, "truncates")
}

func TestPermilleOf_Overflow(t *testing.T) {
	_, ok := Permille(2).Of(math.MaxUint64)
	assert.False(t, ok)
	assert.Equal(t, uint64(7), Permille(2).OfOr(math.MaxUint64, 7))
	assert.Equal(t, uint64(0), Permille(1000).OfOr(math.MaxUint64, 0), "the product is checked, not the result")
}

func TestMulDiv(t *testing.T) {
	v, ok := MulDiv(20_000_000, 112, 100)
	assert.True(t, ok)
	assert.Equal(t, uint64(22_400_000), v)

	_, ok = MulDiv(1, 1, 0)
	assert.False(t, ok, "division by zero")

	assert.Equal(t, uint64(42), MulDivOr(math.MaxUint64, 3, 2, 42))
}

func TestMulDiv128(t *testing.T) {
	v, ok := mulDiv128(math.MaxUint64, 1000, 1000)
	assert.True(t, ok)
	assert.Equal(t, uint64(math.MaxUint64), v)

	_, ok = mulDiv128(math.MaxUint64, 1001, 1000)
	assert.False(t, ok)
}

func TestSaturating(t *testing.T) {
	assert.Equal(t, uint64(math.MaxUint64), saturatingAdd(math.MaxUint64, 1))
	assert.Equal(t, uint64(math.MaxUint64), saturatingMul(math.MaxUint64, 2))
	assert.Equal(t, uint64(0), saturatingSub(1, 2))
}
