// Package models contains GORM persistence models that map to database tables.
// They are kept apart from domain entities so the domain layer stays free of
// ORM concerns; each model has ToDomain/FromDomain mappers.
//
// Structure:
// - base.go: BaseModel and AggregateModel
// - billing.go: customers, tariffs, tariff assignments, readings, bills, transactions
// - identity.go: users
package models
