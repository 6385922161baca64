package identity

import (
	"github.com/google/uuid"
)

// Actor is the acting principal supplied by the session provider on every call
type Actor struct {
	UserID     uuid.UUID
	Username   string
	Role       Role
	CustomerID *uuid.UUID // set only for RoleCustomer
}

// Anonymous returns the actor used on the public read path
func Anonymous() Actor {
	return Actor{Role: RoleAnonymous}
}

// OwnsCustomer reports whether the actor is the customer with the given id
func (a Actor) OwnsCustomer(customerID uuid.UUID) bool {
	return a.CustomerID != nil && *a.CustomerID == customerID
}

// IsAuthenticated reports whether the actor came from a session
func (a Actor) IsAuthenticated() bool {
	return a.Role != RoleAnonymous && a.UserID != uuid.Nil
}
