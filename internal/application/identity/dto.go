package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/waterbill/backend/internal/domain/identity"
	"github.com/waterbill/backend/internal/infrastructure/auth"
)

// LoginInput contains the input for user login
type LoginInput struct {
	Username string
	Password string
	IP       string
}

// Session is a freshly issued token pair. User is only set on login.
type Session struct {
	auth.TokenPair
	User *UserInfo
}

// UserInfo describes the signed-in account. CustomerID is set for customer
// accounts and scopes every read they make.
type UserInfo struct {
	ID          uuid.UUID
	Username    string
	DisplayName string
	Role        identity.Role
	CustomerID  *uuid.UUID
	LastLoginAt *time.Time
}

// IsCustomer reports whether the account is bound to a single customer
func (u UserInfo) IsCustomer() bool { return u.CustomerID != nil }

// RefreshTokenInput contains the input for token refresh
type RefreshTokenInput struct {
	RefreshToken string
}

// LogoutInput identifies the access token to revoke
type LogoutInput struct {
	UserID    uuid.UUID
	TokenID   string
	ExpiresAt time.Time
}

func toUserInfo(u *identity.User) UserInfo {
	display := u.DisplayName
	if display == "" {
		display = u.Username
	}
	return UserInfo{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: display,
		Role:        u.Role,
		CustomerID:  u.CustomerID,
		LastLoginAt: u.LastLoginAt,
	}
}
