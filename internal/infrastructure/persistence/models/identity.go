package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/waterbill/backend/internal/domain/identity"
)

// UserModel is the persistence model for the User aggregate
type UserModel struct {
	AggregateModel
	Username     string              `gorm:"type:varchar(100);not null;uniqueIndex"`
	PasswordHash string              `gorm:"type:varchar(255);not null"`
	DisplayName  string              `gorm:"type:varchar(200)"`
	Role         identity.Role       `gorm:"type:varchar(30);not null;index"`
	CustomerID   *uuid.UUID          `gorm:"type:uuid;index"`
	Status       identity.UserStatus `gorm:"type:varchar(20);not null;default:'active'"`
	LastLoginAt  *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Username:          m.Username,
		PasswordHash:      m.PasswordHash,
		DisplayName:       m.DisplayName,
		Role:              m.Role,
		CustomerID:        m.CustomerID,
		Status:            m.Status,
		LastLoginAt:       m.LastLoginAt,
	}
}

// FromDomain populates the persistence model from a domain User
func (m *UserModel) FromDomain(u *identity.User) {
	m.FromDomainAggregateRoot(u.BaseAggregateRoot)
	m.Username = u.Username
	m.PasswordHash = u.PasswordHash
	m.DisplayName = u.DisplayName
	m.Role = u.Role
	m.CustomerID = u.CustomerID
	m.Status = u.Status
	m.LastLoginAt = u.LastLoginAt
}

// UserModelFromDomain creates a new persistence model from a domain User
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{}
	m.FromDomain(u)
	return m
}
