package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/waterbill/backend/internal/application/identity"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required,min=3,max=100"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// SessionResponse is returned by login and refresh. User is omitted on refresh.
type SessionResponse struct {
	Token SessionToken      `json:"token"`
	User  *AuthUserResponse `json:"user,omitempty"`
}

// SessionToken carries the bearer pair issued for a session
type SessionToken struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// AuthUserResponse is the signed-in account. Customer accounts carry the
// customer they are bound to.
type AuthUserResponse struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	DisplayName string     `json:"display_name"`
	Role        string     `json:"role"`
	CustomerID  *uuid.UUID `json:"customer_id,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

type LogoutResponse struct {
	Message string `json:"message"`
}

func toSessionResponse(s *identity.Session) SessionResponse {
	resp := SessionResponse{Token: SessionToken{
		AccessToken:           s.AccessToken,
		RefreshToken:          s.RefreshToken,
		AccessTokenExpiresAt:  s.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: s.RefreshTokenExpiresAt,
		TokenType:             s.TokenType,
	}}
	if s.User != nil {
		u := toAuthUserResponse(*s.User)
		resp.User = &u
	}
	return resp
}

func toAuthUserResponse(u identity.UserInfo) AuthUserResponse {
	return AuthUserResponse{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
		CustomerID:  u.CustomerID,
		LastLoginAt: u.LastLoginAt,
	}
}
