package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waterbill/backend/internal/domain/identity"
	"github.com/waterbill/backend/internal/infrastructure/config"
)

func newTestJWTService() *JWTService {
	cfg := config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "test-issuer",
		MaxRefreshCount:        3,
	}
	return NewJWTService(cfg)
}

func newTestInput() GenerateTokenInput {
	return GenerateTokenInput{
		UserID:   uuid.New(),
		Username: "treasurer1",
		Role:     identity.RoleTreasurer,
	}
}

func TestNewJWTService_UsesSecretForRefreshIfNotProvided(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{Secret: "test-secret"})

	assert.Equal(t, []byte("test-secret"), svc.refreshSecret)
}

func TestGenerateTokenPair(t *testing.T) {
	svc := newTestJWTService()

	pair, err := svc.GenerateTokenPair(newTestInput())
	require.NoError(t, err)

	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.True(t, pair.AccessTokenExpiresAt.Before(pair.RefreshTokenExpiresAt))
}

func TestValidateAccessToken_Success(t *testing.T) {
	svc := newTestJWTService()
	input := newTestInput()

	pair, err := svc.GenerateTokenPair(input)
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, input.UserID.String(), claims.UserID)
	assert.Equal(t, input.Username, claims.Username)
	assert.Equal(t, "TREASURER", claims.Role)
	assert.Empty(t, claims.CustomerID)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
}

func TestValidateAccessToken_ExpiredToken(t *testing.T) {
	svc := NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		AccessTokenExpiration:  -time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "test-issuer",
	})

	pair, err := svc.GenerateTokenPair(newTestInput())
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateAccessToken_InvalidToken(t *testing.T) {
	svc := newTestJWTService()

	_, err := svc.ValidateAccessToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAccessToken_WrongTokenType(t *testing.T) {
	// Both secrets equal so the refresh token parses as an access token
	svc := NewJWTService(config.JWTConfig{
		Secret:                 "shared-secret-key-at-least-32-chars",
		AccessTokenExpiration:  time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "test-issuer",
	})

	pair, err := svc.GenerateTokenPair(newTestInput())
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidTokenType)
}

func TestValidateAccessToken_DifferentSecret(t *testing.T) {
	svc := newTestJWTService()
	other := NewJWTService(config.JWTConfig{
		Secret:                 "another-secret-key-at-least-32ch",
		AccessTokenExpiration:  time.Minute,
		RefreshTokenExpiration: time.Hour,
	})

	pair, err := other.GenerateTokenPair(newTestInput())
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateAccessToken_MissingRole(t *testing.T) {
	svc := newTestJWTService()
	claims := &Claims{
		RegisteredClaims: svc.registered(uuid.New(), time.Now(), time.Minute),
		UserID:           uuid.New().String(),
		TokenType:        TokenTypeAccess,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.accessSecret)
	require.NoError(t, err)

	_, err = svc.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrMissingRole)
}

func TestRefreshTokenPair_IncrementsRefreshCount(t *testing.T) {
	svc := newTestJWTService()

	pair, err := svc.GenerateTokenPair(newTestInput())
	require.NoError(t, err)

	refreshed, err := svc.RefreshTokenPair(pair.RefreshToken, identity.RoleAdmin, nil)
	require.NoError(t, err)

	claims, err := svc.ValidateRefreshToken(refreshed.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, 1, claims.RefreshCount)

	access, err := svc.ValidateAccessToken(refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", access.Role)
}

func TestRefreshTokenPair_MaxRefreshExceeded(t *testing.T) {
	svc := newTestJWTService()

	pair, err := svc.GenerateTokenPair(newTestInput())
	require.NoError(t, err)

	token := pair.RefreshToken
	for i := 0; i < 3; i++ {
		next, err := svc.RefreshTokenPair(token, identity.RoleTreasurer, nil)
		require.NoError(t, err)
		token = next.RefreshToken
	}

	_, err = svc.RefreshTokenPair(token, identity.RoleTreasurer, nil)
	assert.ErrorIs(t, err, ErrMaxRefreshExceeded)
}

func TestRefreshTokenPair_WithAccessToken(t *testing.T) {
	svc := newTestJWTService()

	pair, err := svc.GenerateTokenPair(newTestInput())
	require.NoError(t, err)

	_, err = svc.RefreshTokenPair(pair.AccessToken, identity.RoleTreasurer, nil)
	assert.Error(t, err)
}

func TestClaims_Actor(t *testing.T) {
	svc := newTestJWTService()
	customerID := uuid.New()
	input := GenerateTokenInput{
		UserID:     uuid.New(),
		Username:   "cust-001",
		Role:       identity.RoleCustomer,
		CustomerID: &customerID,
	}

	pair, err := svc.GenerateTokenPair(input)
	require.NoError(t, err)
	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	actor, err := claims.Actor()
	require.NoError(t, err)
	assert.Equal(t, input.UserID, actor.UserID)
	assert.Equal(t, identity.RoleCustomer, actor.Role)
	require.NotNil(t, actor.CustomerID)
	assert.Equal(t, customerID, *actor.CustomerID)
	assert.True(t, actor.OwnsCustomer(customerID))
}

func TestClaims_Actor_UnknownRole(t *testing.T) {
	claims := &Claims{UserID: uuid.New().String(), Role: "JANITOR"}

	_, err := claims.Actor()
	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestClaims_GetRemainingTTL(t *testing.T) {
	claims := &Claims{}
	assert.Equal(t, time.Duration(0), claims.GetRemainingTTL())

	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	assert.Equal(t, time.Duration(0), claims.GetRemainingTTL())

	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	assert.Greater(t, claims.GetRemainingTTL(), 59*time.Minute)
}
