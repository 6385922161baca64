package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryTokenBlacklist_Revoke(t *testing.T) {
	blacklist := NewInMemoryTokenBlacklist()
	ctx := context.Background()

	require.NoError(t, blacklist.Revoke(ctx, "jti-1", time.Hour))

	revoked, err := blacklist.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = blacklist.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestInMemoryTokenBlacklist_ExpiredEntryIsDropped(t *testing.T) {
	blacklist := NewInMemoryTokenBlacklist()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	blacklist.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, blacklist.Revoke(ctx, "jti-expire", time.Minute))

	now = now.Add(2 * time.Minute)
	revoked, err := blacklist.IsRevoked(ctx, "jti-expire")
	require.NoError(t, err)
	assert.False(t, revoked)
	assert.Empty(t, blacklist.revoked)
}

func TestInMemoryTokenBlacklist_NonPositiveTTLIsIgnored(t *testing.T) {
	blacklist := NewInMemoryTokenBlacklist()
	ctx := context.Background()

	require.NoError(t, blacklist.Revoke(ctx, "jti-0", 0))

	revoked, err := blacklist.IsRevoked(ctx, "jti-0")
	require.NoError(t, err)
	assert.False(t, revoked)
}
