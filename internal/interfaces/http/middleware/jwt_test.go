package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waterbill/backend/internal/domain/identity"
	"github.com/waterbill/backend/internal/infrastructure/auth"
	"github.com/waterbill/backend/internal/infrastructure/config"
	"github.com/waterbill/backend/internal/interfaces/http/dto"
)

func newTestJWTService(accessTTL time.Duration) *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  accessTTL,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "waterbill-test",
		MaxRefreshCount:        10,
	})
}

func issueTokens(t *testing.T, svc *auth.JWTService, role identity.Role, customerID *uuid.UUID) (*auth.TokenPair, auth.GenerateTokenInput) {
	t.Helper()
	input := auth.GenerateTokenInput{
		UserID:     uuid.New(),
		Username:   "kasir01",
		Role:       role,
		CustomerID: customerID,
	}
	pair, err := svc.GenerateTokenPair(input)
	require.NoError(t, err)
	return pair, input
}

func actorRouter(mw gin.HandlerFunc, seen *identity.Actor) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), mw)
	handler := func(c *gin.Context) {
		*seen = GetActor(c)
		c.Status(http.StatusOK)
	}
	router.GET("/api/v1/bills", handler)
	router.GET("/api/v1/health", handler)
	router.GET("/api/v1/public/bills/unpaid", handler)
	return router
}

func sendWithToken(router *gin.Engine, path, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set(AuthHeaderKey, header)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	customerID := uuid.New()
	pair, input := issueTokens(t, svc, identity.RoleCustomer, &customerID)

	var actor identity.Actor
	w := sendWithToken(actorRouter(JWTAuthMiddleware(svc), &actor), "/api/v1/bills", BearerPrefix+pair.AccessToken)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, input.UserID, actor.UserID)
	assert.Equal(t, identity.RoleCustomer, actor.Role)
	require.NotNil(t, actor.CustomerID)
	assert.Equal(t, customerID, *actor.CustomerID)
}

func TestJWTAuthMiddleware_Rejections(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	pair, _ := issueTokens(t, svc, identity.RoleTreasurer, nil)
	expired, _ := issueTokens(t, newTestJWTService(-time.Minute), identity.RoleTreasurer, nil)

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", dto.ErrCodeUnauthorized},
		{"not bearer", "Basic dXNlcjpwYXNz", dto.ErrCodeUnauthorized},
		{"empty bearer", BearerPrefix, dto.ErrCodeUnauthorized},
		{"garbage token", BearerPrefix + "not.a.jwt", dto.ErrCodeTokenInvalid},
		{"expired", BearerPrefix + expired.AccessToken, dto.ErrCodeTokenExpired},
		{"refresh used as access", BearerPrefix + pair.RefreshToken, dto.ErrCodeTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var actor identity.Actor
			w := sendWithToken(actorRouter(JWTAuthMiddleware(svc), &actor), "/api/v1/bills", tt.header)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, tt.code, errorCode(t, w))
		})
	}
}

func TestJWTAuthMiddleware_RevokedToken(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	pair, _ := issueTokens(t, svc, identity.RoleAdmin, nil)
	claims, err := svc.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	blacklist := auth.NewInMemoryTokenBlacklist()
	require.NoError(t, blacklist.Revoke(context.Background(), claims.ID, time.Hour))

	cfg := DefaultJWTConfig(svc)
	cfg.TokenBlacklist = blacklist
	var actor identity.Actor
	w := sendWithToken(actorRouter(JWTAuthMiddlewareWithConfig(cfg), &actor), "/api/v1/bills", BearerPrefix+pair.AccessToken)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeTokenInvalid, errorCode(t, w))
}

func TestJWTAuthMiddleware_SkipPaths(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)

	for _, path := range []string{"/api/v1/health", "/api/v1/public/bills/unpaid"} {
		var actor identity.Actor
		w := sendWithToken(actorRouter(JWTAuthMiddleware(svc), &actor), path, "")

		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, identity.RoleAnonymous, actor.Role, path)
	}
}

func TestJWTAuthMiddleware_CustomOnError(t *testing.T) {
	cfg := DefaultJWTConfig(newTestJWTService(15 * time.Minute))
	cfg.OnError = func(c *gin.Context, err error) {
		c.AbortWithStatus(http.StatusTeapot)
	}
	var actor identity.Actor
	w := sendWithToken(actorRouter(JWTAuthMiddlewareWithConfig(cfg), &actor), "/api/v1/bills", "")

	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestOptionalJWTAuthMiddleware(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	pair, input := issueTokens(t, svc, identity.RoleMeterReader, nil)

	t.Run("no token is anonymous", func(t *testing.T) {
		var actor identity.Actor
		w := sendWithToken(actorRouter(OptionalJWTAuthMiddleware(svc), &actor), "/api/v1/bills", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, identity.Anonymous(), actor)
	})

	t.Run("bad token is anonymous", func(t *testing.T) {
		var actor identity.Actor
		w := sendWithToken(actorRouter(OptionalJWTAuthMiddleware(svc), &actor), "/api/v1/bills", BearerPrefix+"junk")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, identity.RoleAnonymous, actor.Role)
	})

	t.Run("valid token sets actor", func(t *testing.T) {
		var actor identity.Actor
		w := sendWithToken(actorRouter(OptionalJWTAuthMiddleware(svc), &actor), "/api/v1/bills", BearerPrefix+pair.AccessToken)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, input.UserID, actor.UserID)
		assert.Equal(t, identity.RoleMeterReader, actor.Role)
	})
}

func TestGetJWTClaims_NotSet(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, GetJWTClaims(c))
	assert.Equal(t, identity.Anonymous(), GetActor(c))
}
