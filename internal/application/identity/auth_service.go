package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/waterbill/backend/internal/domain/identity"
	"github.com/waterbill/backend/internal/domain/shared"
	"github.com/waterbill/backend/internal/infrastructure/auth"
	"github.com/waterbill/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

var errInvalidCredentials = shared.NewDomainError(shared.CodeUnauthorized, "Invalid username or password")

// AuthService handles authentication operations
type AuthService struct {
	userRepo   identity.UserRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service. blacklist may be nil,
// in which case logout only drops the client's tokens.
func NewAuthService(
	userRepo identity.UserRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtService: jwtService,
		blacklist:  blacklist,
		logger:     logger,
	}
}

// Login authenticates a user and returns tokens carrying its role
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*Session, error) {
	s.logger.Info("Login attempt", zap.String("username", input.Username))

	user, err := s.userRepo.FindByUsername(ctx, input.Username)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		s.logger.Warn("User not found during login", zap.String("username", input.Username))
		return nil, errInvalidCredentials
	}

	if !user.VerifyPassword(input.Password) {
		s.logger.Warn("Invalid password attempt", zap.String("username", input.Username))
		return nil, errInvalidCredentials
	}
	// checked after the password so a caller cannot tell deactivated accounts apart
	if !user.CanLogin() {
		s.logger.Warn("Login attempt for deactivated account", zap.String("username", input.Username))
		return nil, shared.NewDomainError(shared.CodeUnauthorized, "Account has been deactivated")
	}

	tokenPair, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		UserID:     user.ID,
		Username:   user.Username,
		Role:       user.Role,
		CustomerID: user.CustomerID,
	})
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, fmt.Errorf("generate tokens: %w", err)
	}

	user.RecordLogin()
	if err := s.userRepo.RecordLogin(ctx, user.ID, *user.LastLoginAt); err != nil {
		// the login itself succeeded
		s.logger.Error("Failed to update user after successful login", zap.Error(err))
	}

	s.logger.Info("User logged in successfully",
		zap.String("username", user.Username),
		zap.String("user_id", user.ID.String()),
		zap.String("role", user.Role.String()),
		zap.String("ip", input.IP))

	info := toUserInfo(user)
	return &Session{TokenPair: *tokenPair, User: &info}, nil
}

// RefreshToken exchanges a refresh token for a new pair. The user's stored
// role is re-read, so a role change applies from the next refresh.
func (s *AuthService) RefreshToken(ctx context.Context, input RefreshTokenInput) (*Session, error) {
	claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		s.logger.Warn("Refresh token validation failed", zap.Error(err))
		return nil, tokenError(err)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, shared.NewDomainError(shared.CodeUnauthorized, "Invalid user ID in token")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		s.logger.Warn("User not found during token refresh", zap.String("user_id", userID.String()))
		return nil, shared.NewDomainError(shared.CodeUnauthorized, "User no longer exists")
	}
	if !user.CanLogin() {
		s.logger.Warn("Token refresh for inactive user", zap.String("user_id", userID.String()))
		return nil, shared.NewDomainError(shared.CodeUnauthorized, "Account is no longer active")
	}

	tokenPair, err := s.jwtService.RefreshTokenPair(input.RefreshToken, user.Role, user.CustomerID)
	if err != nil {
		s.logger.Warn("Token refresh failed", zap.Error(err))
		return nil, tokenError(err)
	}

	s.logger.Info("Token refreshed successfully", zap.String("user_id", userID.String()))

	return &Session{TokenPair: *tokenPair}, nil
}

// Logout revokes the access token for the rest of its lifetime
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	s.logger.Info("User logout", zap.String("user_id", input.UserID.String()))

	if s.blacklist == nil || input.TokenID == "" {
		return nil
	}
	ttl := time.Until(input.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.blacklist.Revoke(ctx, input.TokenID, ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// GetCurrentUser returns the profile of the logged-in user
func (s *AuthService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*UserInfo, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "User not found")
	}
	info := toUserInfo(user)
	return &info, nil
}

// Bootstrap creates the configured SUPER_ADMIN unless a user with that name
// already exists. An empty username disables it.
func (s *AuthService) Bootstrap(ctx context.Context, cfg config.BootstrapConfig) error {
	if cfg.AdminUsername == "" {
		return nil
	}

	existing, err := s.userRepo.FindByUsername(ctx, cfg.AdminUsername)
	if err != nil {
		return fmt.Errorf("find bootstrap admin: %w", err)
	}
	if existing != nil {
		s.logger.Debug("Bootstrap admin already present", zap.String("username", existing.Username))
		return nil
	}

	admin, err := identity.NewUser(cfg.AdminUsername, cfg.AdminPassword, identity.RoleSuperAdmin)
	if err != nil {
		return err
	}
	admin.DisplayName = "Administrator"
	if err := s.userRepo.Create(ctx, admin); err != nil {
		// another instance won the race
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil
		}
		return fmt.Errorf("create bootstrap admin: %w", err)
	}

	s.logger.Info("Bootstrap admin created", zap.String("username", admin.Username))
	return nil
}

func tokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError(shared.CodeUnauthorized, "Refresh token has expired")
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return shared.NewDomainError(shared.CodeUnauthorized, "Maximum token refresh count exceeded. Please log in again")
	default:
		return shared.NewDomainError(shared.CodeUnauthorized, "Invalid refresh token")
	}
}
