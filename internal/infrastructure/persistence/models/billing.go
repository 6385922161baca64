package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/waterbill/backend/internal/domain/billing"
)

// CustomerModel is the persistence model for the Customer aggregate
type CustomerModel struct {
	AggregateModel
	MeterNumber string                 `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name        string                 `gorm:"type:varchar(200);not null"`
	Address     string                 `gorm:"type:text"`
	Phone       string                 `gorm:"type:varchar(50)"`
	Status      billing.CustomerStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	TariffID    uuid.UUID              `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer
func (m *CustomerModel) ToDomain() *billing.Customer {
	return &billing.Customer{
		BaseAggregateRoot: m.ToAggregateRoot(),
		MeterNumber:       m.MeterNumber,
		Name:              m.Name,
		Address:           m.Address,
		Phone:             m.Phone,
		Status:            m.Status,
		TariffID:          m.TariffID,
	}
}

// FromDomain populates the persistence model from a domain Customer
func (m *CustomerModel) FromDomain(c *billing.Customer) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.MeterNumber = c.MeterNumber
	m.Name = c.Name
	m.Address = c.Address
	m.Phone = c.Phone
	m.Status = c.Status
	m.TariffID = c.TariffID
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer
func CustomerModelFromDomain(c *billing.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}

// TariffModel is the persistence model for the Tariff aggregate
type TariffModel struct {
	AggregateModel
	Name         string          `gorm:"type:varchar(100);not null"`
	BaseFee      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	RatePerCubic decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Description  string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (TariffModel) TableName() string {
	return "tariffs"
}

// ToDomain converts the persistence model to a domain Tariff
func (m *TariffModel) ToDomain() *billing.Tariff {
	return &billing.Tariff{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		BaseFee:           m.BaseFee,
		RatePerCubic:      m.RatePerCubic,
		Description:       m.Description,
	}
}

// FromDomain populates the persistence model from a domain Tariff
func (m *TariffModel) FromDomain(t *billing.Tariff) {
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.Name = t.Name
	m.BaseFee = t.BaseFee
	m.RatePerCubic = t.RatePerCubic
	m.Description = t.Description
}

// TariffModelFromDomain creates a new persistence model from a domain Tariff
func TariffModelFromDomain(t *billing.Tariff) *TariffModel {
	m := &TariffModel{}
	m.FromDomain(t)
	return m
}

// TariffAssignmentModel records a customer's tariff history
type TariffAssignmentModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	CustomerID    uuid.UUID `gorm:"type:uuid;not null;index:idx_tariff_assignments_customer_from,priority:1"`
	TariffID      uuid.UUID `gorm:"type:uuid;not null;index"`
	EffectiveFrom string    `gorm:"type:varchar(7);not null;index:idx_tariff_assignments_customer_from,priority:2"`
	CreatedAt     time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TariffAssignmentModel) TableName() string {
	return "tariff_assignments"
}

// ToDomain converts the persistence model to a domain TariffAssignment
func (m *TariffAssignmentModel) ToDomain() *billing.TariffAssignment {
	return &billing.TariffAssignment{
		ID:            m.ID,
		CustomerID:    m.CustomerID,
		TariffID:      m.TariffID,
		EffectiveFrom: billing.BillingPeriod(m.EffectiveFrom),
		CreatedAt:     m.CreatedAt,
	}
}

// TariffAssignmentModelFromDomain creates a new persistence model from a domain TariffAssignment
func TariffAssignmentModelFromDomain(a *billing.TariffAssignment) *TariffAssignmentModel {
	return &TariffAssignmentModel{
		ID:            a.ID,
		CustomerID:    a.CustomerID,
		TariffID:      a.TariffID,
		EffectiveFrom: a.EffectiveFrom.String(),
		CreatedAt:     a.CreatedAt,
	}
}

// ReadingModel is the persistence model for meter readings.
// One reading exists per customer and period.
type ReadingModel struct {
	BaseModel
	CustomerID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_readings_customer_period,priority:1"`
	Period        string          `gorm:"type:varchar(7);not null;uniqueIndex:idx_readings_customer_period,priority:2"`
	PreviousIndex decimal.Decimal `gorm:"type:decimal(18,3);not null"`
	CurrentIndex  decimal.Decimal `gorm:"type:decimal(18,3);not null"`
	MeterReset    bool            `gorm:"not null;default:false"`
	ReadAt        time.Time       `gorm:"not null"`
	RecordedBy    *uuid.UUID      `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (ReadingModel) TableName() string {
	return "readings"
}

// ToDomain converts the persistence model to a domain Reading
func (m *ReadingModel) ToDomain() *billing.Reading {
	return &billing.Reading{
		BaseEntity:    m.BaseModel.ToDomain(),
		CustomerID:    m.CustomerID,
		Period:        billing.BillingPeriod(m.Period),
		PreviousIndex: m.PreviousIndex,
		CurrentIndex:  m.CurrentIndex,
		MeterReset:    m.MeterReset,
		ReadAt:        m.ReadAt,
		RecordedBy:    m.RecordedBy,
	}
}

// ReadingModelFromDomain creates a new persistence model from a domain Reading
func ReadingModelFromDomain(r *billing.Reading) *ReadingModel {
	m := &ReadingModel{
		CustomerID:    r.CustomerID,
		Period:        r.Period.String(),
		PreviousIndex: r.PreviousIndex,
		CurrentIndex:  r.CurrentIndex,
		MeterReset:    r.MeterReset,
		ReadAt:        r.ReadAt,
		RecordedBy:    r.RecordedBy,
	}
	m.FromDomainBaseEntity(r.BaseEntity)
	return m
}

// BillModel is the persistence model for the Bill aggregate. The tariff
// columns are a snapshot taken when the bill was priced.
//
// idx_bills_active_period is partial: a cancelled bill frees its
// (customer, period) slot for a replacement.
type BillModel struct {
	AggregateModel
	CustomerID   uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex:idx_bills_active_period,priority:1,where:status <> 'CANCELLED'"`
	Period       string             `gorm:"type:varchar(7);not null;uniqueIndex:idx_bills_active_period,priority:2;index"`
	ReadingID    uuid.UUID          `gorm:"type:uuid;not null;index"`
	Usage        decimal.Decimal    `gorm:"type:decimal(18,3);not null"`
	TariffID     uuid.UUID          `gorm:"type:uuid;not null;index"`
	TariffName   string             `gorm:"type:varchar(100);not null"`
	BaseFee      decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	RatePerCubic decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	Amount       decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	Currency     string             `gorm:"type:varchar(3);not null"`
	Status       billing.BillStatus `gorm:"type:varchar(20);not null;default:'UNPAID';index"`
	PaidAt       *time.Time
	CancelledAt  *time.Time
	CancelReason string     `gorm:"type:varchar(500)"`
	CreatedBy    *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (BillModel) TableName() string {
	return "bills"
}

// ToDomain converts the persistence model to a domain Bill
func (m *BillModel) ToDomain() *billing.Bill {
	return &billing.Bill{
		BaseAggregateRoot: m.ToAggregateRoot(),
		CustomerID:        m.CustomerID,
		ReadingID:         m.ReadingID,
		Period:            billing.BillingPeriod(m.Period),
		Usage:             m.Usage,
		Tariff: billing.TariffSnapshot{
			TariffID:     m.TariffID,
			Name:         m.TariffName,
			BaseFee:      m.BaseFee,
			RatePerCubic: m.RatePerCubic,
		},
		Amount:       m.Amount,
		Currency:     m.Currency,
		Status:       m.Status,
		PaidAt:       m.PaidAt,
		CancelledAt:  m.CancelledAt,
		CancelReason: m.CancelReason,
		CreatedBy:    m.CreatedBy,
	}
}

// FromDomain populates the persistence model from a domain Bill
func (m *BillModel) FromDomain(b *billing.Bill) {
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	m.CustomerID = b.CustomerID
	m.Period = b.Period.String()
	m.ReadingID = b.ReadingID
	m.Usage = b.Usage
	m.TariffID = b.Tariff.TariffID
	m.TariffName = b.Tariff.Name
	m.BaseFee = b.Tariff.BaseFee
	m.RatePerCubic = b.Tariff.RatePerCubic
	m.Amount = b.Amount
	m.Currency = b.Currency
	m.Status = b.Status
	m.PaidAt = b.PaidAt
	m.CancelledAt = b.CancelledAt
	m.CancelReason = b.CancelReason
	m.CreatedBy = b.CreatedBy
}

// BillModelFromDomain creates a new persistence model from a domain Bill
func BillModelFromDomain(b *billing.Bill) *BillModel {
	m := &BillModel{}
	m.FromDomain(b)
	return m
}

// TransactionModel is the persistence model for payment transactions.
// Rows are inserted once and never updated.
type TransactionModel struct {
	ID              uuid.UUID             `gorm:"type:uuid;primary_key"`
	BillID          uuid.UUID             `gorm:"type:uuid;not null;uniqueIndex"`
	CustomerID      uuid.UUID             `gorm:"type:uuid;not null;index"`
	ReferenceNumber string                `gorm:"type:varchar(64);not null;uniqueIndex"`
	Amount          decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	Currency        string                `gorm:"type:varchar(3);not null"`
	Method          billing.PaymentMethod `gorm:"type:varchar(30);not null;index"`
	PaidAt          time.Time             `gorm:"not null"`
	RecordedBy      uuid.UUID             `gorm:"type:uuid;not null"`
	CreatedAt       time.Time             `gorm:"not null;index"`
	UpdatedAt       time.Time             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TransactionModel) TableName() string {
	return "transactions"
}

// ToDomain converts the persistence model to a domain Transaction
func (m *TransactionModel) ToDomain() *billing.Transaction {
	return &billing.Transaction{
		ID:              m.ID,
		BillID:          m.BillID,
		CustomerID:      m.CustomerID,
		ReferenceNumber: m.ReferenceNumber,
		Amount:          m.Amount,
		Currency:        m.Currency,
		Method:          m.Method,
		PaidAt:          m.PaidAt,
		RecordedBy:      m.RecordedBy,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// TransactionModelFromDomain creates a new persistence model from a domain Transaction
func TransactionModelFromDomain(t *billing.Transaction) *TransactionModel {
	return &TransactionModel{
		ID:              t.ID,
		BillID:          t.BillID,
		CustomerID:      t.CustomerID,
		ReferenceNumber: t.ReferenceNumber,
		Amount:          t.Amount,
		Currency:        t.Currency,
		Method:          t.Method,
		PaidAt:          t.PaidAt.UTC(),
		RecordedBy:      t.RecordedBy,
		CreatedAt:       t.CreatedAt.UTC(),
		UpdatedAt:       t.UpdatedAt.UTC(),
	}
}

// AllModels lists every model in migration order
func AllModels() []any {
	return []any{
		&UserModel{},
		&TariffModel{},
		&CustomerModel{},
		&TariffAssignmentModel{},
		&ReadingModel{},
		&BillModel{},
		&TransactionModel{},
	}
}
