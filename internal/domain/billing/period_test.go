package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBillingPeriod(t *testing.T) {
	p, err := ParseBillingPeriod("2024-05")
	require.NoError(t, err)
	assert.Equal(t, BillingPeriod("2024-05"), p)

	for _, bad := range []string{"", "2024-5", "2024/05", "2024-13", "May 2024"} {
		_, err := ParseBillingPeriod(bad)
		assert.Error(t, err, bad)
	}
}

func TestBillingPeriod_Previous(t *testing.T) {
	assert.Equal(t, BillingPeriod("2024-04"), BillingPeriod("2024-05").Previous())
	assert.Equal(t, BillingPeriod("2023-12"), BillingPeriod("2024-01").Previous())
	assert.True(t, BillingPeriod("2023-12").Before("2024-01"))
	assert.False(t, BillingPeriod("2024-02").Before("2024-01"))
}

func TestDateRange(t *testing.T) {
	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 5, 31, 15, 0, 0, 0, time.UTC)

	r, err := NewDateRangeFromDays(from, to)
	require.NoError(t, err)

	assert.True(t, r.Contains(from))
	assert.True(t, r.Contains(time.Date(2024, 5, 31, 23, 59, 59, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, r.Contains(from.Add(-time.Second)))

	_, err = NewDateRange(to, from)
	assert.Error(t, err)
	_, err = NewDateRange(time.Time{}, to)
	assert.Error(t, err)
}
