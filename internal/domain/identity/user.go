package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/waterbill/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// UserStatus represents the status of a user
type UserStatus string

const (
	UserStatusActive      UserStatus = "active"
	UserStatusDeactivated UserStatus = "deactivated"
)

// Password cost for bcrypt
const bcryptCost = 12

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-.]+$`)

// User is a staff member or customer account able to log in
type User struct {
	shared.BaseAggregateRoot
	Username     string
	PasswordHash string
	DisplayName  string
	Role         Role
	CustomerID   *uuid.UUID
	Status       UserStatus
	LastLoginAt  *time.Time
}

// NewUser creates an active user with a hashed password
func NewUser(username, password string, role Role) (*User, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Invalid role")
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	return &User{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Username:          strings.ToLower(strings.TrimSpace(username)),
		PasswordHash:      hash,
		Role:              role,
		Status:            UserStatusActive,
	}, nil
}

// NewCustomerUser creates a login bound to a customer account
func NewCustomerUser(username, password string, customerID uuid.UUID) (*User, error) {
	u, err := NewUser(username, password, RoleCustomer)
	if err != nil {
		return nil, err
	}
	u.CustomerID = &customerID
	return u, nil
}

// VerifyPassword checks a plaintext password against the stored hash
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// CanLogin reports whether the user may authenticate
func (u *User) CanLogin() bool {
	return u.Status == UserStatusActive
}

// RecordLogin stamps the last successful login
func (u *User) RecordLogin() {
	now := time.Now().UTC()
	u.LastLoginAt = &now
	u.UpdatedAt = now
}

// Deactivate blocks further logins
func (u *User) Deactivate() error {
	if u.Status == UserStatusDeactivated {
		return shared.NewDomainError(shared.CodeInvalidState, "User is already deactivated")
	}
	u.Status = UserStatusDeactivated
	u.MarkModified(time.Now())
	return nil
}

// Actor returns the principal this user acts as
func (u *User) Actor() Actor {
	return Actor{
		UserID:     u.ID,
		Username:   u.Username,
		Role:       u.Role,
		CustomerID: u.CustomerID,
	}
}

func validateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot be empty")
	}
	if len(username) < 3 {
		return shared.NewDomainError("INVALID_USERNAME", "Username must be at least 3 characters")
	}
	if len(username) > 100 {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot exceed 100 characters")
	}
	if !usernameRegex.MatchString(username) {
		return shared.NewDomainError("INVALID_USERNAME", "Username can only contain letters, numbers, underscores, hyphens, and dots")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 characters")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
