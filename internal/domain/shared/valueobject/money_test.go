package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with amount and currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromInt(100), USD)

		require.NoError(t, err)
		assert.Equal(t, USD, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.NewFromInt(100)))
	})

	t.Run("fails with empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(100), "")
		assert.Error(t, err)
	})
}

func TestNewMoneyFromString(t *testing.T) {
	t.Run("parses valid amount", func(t *testing.T) {
		m, err := NewMoneyFromString("12.5000", USD)

		require.NoError(t, err)
		assert.Equal(t, "12.50 USD", m.String())
	})

	t.Run("rejects invalid amount", func(t *testing.T) {
		_, err := NewMoneyFromString("twelve", USD)
		assert.Error(t, err)
	})
}

func TestMoney_Add(t *testing.T) {
	t.Run("adds same currency", func(t *testing.T) {
		a := NewMoneyUSDFromFloat(10.25)
		b := NewMoneyUSDFromFloat(4.75)

		sum, err := a.Add(b)

		require.NoError(t, err)
		assert.True(t, sum.Amount().Equal(decimal.NewFromInt(15)))
	})

	t.Run("rejects mixed currencies", func(t *testing.T) {
		a := NewMoneyUSDFromFloat(10)
		b := NewMoneyARS(decimal.NewFromInt(10))

		_, err := a.Add(b)
		assert.Error(t, err)
	})
}

func TestMoney_Subtract(t *testing.T) {
	a := NewMoneyUSDFromFloat(10)
	b := NewMoneyUSDFromFloat(4)

	diff, err := a.Subtract(b)

	require.NoError(t, err)
	assert.True(t, diff.Amount().Equal(decimal.NewFromInt(6)))
}

func TestMoney_Multiply(t *testing.T) {
	m := NewMoneyUSDFromFloat(2.5)

	result := m.Multiply(decimal.NewFromInt(4))

	assert.True(t, result.Amount().Equal(decimal.NewFromInt(10)))
	assert.Equal(t, USD, result.Currency())
}

func TestMoney_Divide(t *testing.T) {
	t.Run("divides by non-zero", func(t *testing.T) {
		m := NewMoneyUSDFromFloat(10)

		result, err := m.Divide(decimal.NewFromInt(4))

		require.NoError(t, err)
		assert.True(t, result.Amount().Equal(decimal.NewFromFloat(2.5)))
	})

	t.Run("rejects division by zero", func(t *testing.T) {
		m := NewMoneyUSDFromFloat(10)

		_, err := m.Divide(decimal.Zero)
		assert.Error(t, err)
	})
}

func TestMoney_Comparisons(t *testing.T) {
	a := NewMoneyUSDFromFloat(10)
	b := NewMoneyUSDFromFloat(5)

	gt, err := a.GreaterThan(b)
	require.NoError(t, err)
	assert.True(t, gt)

	assert.True(t, a.Equals(NewMoneyUSDFromFloat(10)))
	assert.False(t, a.Equals(NewMoneyARS(decimal.NewFromInt(10))))

	_, err = a.GreaterThan(NewMoneyARS(decimal.NewFromInt(1)))
	assert.Error(t, err)
}

func TestMoney_Round(t *testing.T) {
	m := NewMoneyUSDFromFloat(3.14159)

	assert.Equal(t, "3.14 USD", m.Round(2).String())
}

func TestZero(t *testing.T) {
	assert.True(t, ZeroUSD().IsZero())
	assert.False(t, NewMoneyUSDFromFloat(0.01).IsZero())
	assert.True(t, NewMoneyUSDFromFloat(0.01).IsPositive())
	assert.True(t, NewMoneyUSDFromFloat(-0.01).IsNegative())
}
