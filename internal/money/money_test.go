package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRoundRupees(t *testing.T) {
	assert.True(t, RoundRupees(decimal.NewFromFloat(100.49)).Equal(decimal.NewFromInt(100)))
	assert.True(t, RoundRupees(decimal.NewFromFloat(100.5)).Equal(decimal.NewFromInt(101)))
	assert.True(t, RoundRupees(decimal.NewFromFloat(-100.5)).Equal(decimal.NewFromInt(-101)))
}

func TestClampNonNegative(t *testing.T) {
	assert.True(t, ClampNonNegative(decimal.NewFromInt(-5)).IsZero())
	assert.True(t, ClampNonNegative(decimal.NewFromInt(5)).Equal(decimal.NewFromInt(5)))
}

func TestPercent(t *testing.T) {
	assert.True(t, Percent(decimal.NewFromInt(1_000_000), decimal.NewFromInt(15)).Equal(decimal.NewFromInt(150_000)))
}

func TestMin(t *testing.T) {
	a := decimal.NewFromInt(3)
	b := decimal.NewFromInt(7)
	assert.True(t, Min(a, b).Equal(a))
	assert.True(t, Min(b, a).Equal(a))
}
