package billing

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waterbill/backend/internal/domain/shared"
)

func TestNewCustomer(t *testing.T) {
	tariffID := uuid.New()

	t.Run("creates active customer", func(t *testing.T) {
		c, err := NewCustomer(" MTR-1 ", " Siti ", "Jl. Merdeka 1", tariffID)
		require.NoError(t, err)
		assert.Equal(t, "MTR-1", c.MeterNumber)
		assert.Equal(t, "Siti", c.Name)
		assert.True(t, c.IsActive())
		assert.Equal(t, tariffID, c.TariffID)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := NewCustomer("", "Siti", "", tariffID)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		_, err = NewCustomer("MTR-1", "", "", tariffID)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		_, err = NewCustomer("MTR-1", "Siti", "", uuid.Nil)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})
}

func TestCustomer_StatusFlip(t *testing.T) {
	c, err := NewCustomer("MTR-1", "Siti", "", uuid.New())
	require.NoError(t, err)

	require.NoError(t, c.Deactivate())
	assert.False(t, c.IsActive())
	assert.True(t, errors.Is(c.Deactivate(), shared.ErrInvalidState))

	require.NoError(t, c.Activate())
	assert.True(t, c.IsActive())
	assert.True(t, errors.Is(c.Activate(), shared.ErrInvalidState))
	assert.Equal(t, 3, c.Version)
}

func TestCustomer_AssignTariff(t *testing.T) {
	c, err := NewCustomer("MTR-1", "Siti", "", uuid.New())
	require.NoError(t, err)

	next := uuid.New()
	a, err := c.AssignTariff(next, "2024-06")
	require.NoError(t, err)
	assert.Equal(t, next, c.TariffID)
	assert.Equal(t, c.ID, a.CustomerID)
	assert.Equal(t, BillingPeriod("2024-06"), a.EffectiveFrom)

	_, err = c.AssignTariff(next, "June")
	assert.Error(t, err)
}

func TestTariff(t *testing.T) {
	t.Run("rejects negative rates", func(t *testing.T) {
		_, err := NewTariff("Bad", decimal.NewFromInt(-1), decimal.Zero)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		_, err = NewTariff("Bad", decimal.Zero, decimal.NewFromInt(-1))
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})

	t.Run("update raises event with previous rates", func(t *testing.T) {
		tariff, err := NewTariff("Residential", decimal.NewFromInt(10000), decimal.NewFromInt(2500))
		require.NoError(t, err)

		require.NoError(t, tariff.Update("Residential B", decimal.NewFromInt(11000), decimal.NewFromInt(2600), "2025 rates"))
		assert.Equal(t, 2, tariff.Version)

		events := tariff.GetDomainEvents()
		require.Len(t, events, 1)
		ev, ok := events[0].(*TariffUpdatedEvent)
		require.True(t, ok)
		assert.Equal(t, "10000", ev.Previous.BaseFee.String())
		assert.Equal(t, "11000", ev.BaseFee.String())
	})

	t.Run("invalid update leaves tariff untouched", func(t *testing.T) {
		tariff, err := NewTariff("Residential", decimal.NewFromInt(10000), decimal.NewFromInt(2500))
		require.NoError(t, err)
		assert.Error(t, tariff.Update("", decimal.Zero, decimal.Zero, ""))
		assert.Equal(t, "Residential", tariff.Name)
		assert.Empty(t, tariff.GetDomainEvents())
	})
}
