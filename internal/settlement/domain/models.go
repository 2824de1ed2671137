// Package domain contains persistence models for rent settlement.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// SettlementState classifies a billing term after reconciliation.
type SettlementState string

const (
	StatePaid          SettlementState = "paid"
	StatePartiallyPaid SettlementState = "partially_paid"
	StateUnpaid        SettlementState = "unpaid"
)

// BillingTerm is one rent period's financial record for a tenant.
// Term encodes year and month as YYYYMM.
type BillingTerm struct {
	ID          snowflake.ID      `gorm:"primaryKey"`
	TenantID    snowflake.ID      `gorm:"not null;index;uniqueIndex:ux_billing_terms_tenant_term"`
	Term        int               `gorm:"not null;uniqueIndex:ux_billing_terms_tenant_term"`
	Description string            `gorm:"type:text"`
	Currency    string            `gorm:"type:text;not null"`
	DueAt       *time.Time        `gorm:""`
	Archived    bool              `gorm:"not null;default:false"`
	Metadata    datatypes.JSONMap `gorm:"serializer:json"`

	PreTaxAmount float64 `gorm:"not null;default:0"`
	GrandTotal   float64 `gorm:"not null;default:0"`
	Payment      float64 `gorm:"not null;default:0"`
	Balance      float64 `gorm:"not null;default:0"`

	Charges   []ChargeLine   `gorm:"foreignKey:TermID"`
	Discounts []DiscountLine `gorm:"foreignKey:TermID"`
	Debts     []DebtLine     `gorm:"foreignKey:TermID"`
	Payments  []PaymentLine  `gorm:"foreignKey:TermID"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (BillingTerm) TableName() string { return "billing_terms" }

// ChargeLine is a pre-tax charge on a billing term.
type ChargeLine struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	TermID      snowflake.ID `gorm:"not null;index"`
	Description string       `gorm:"type:text"`
	Amount      float64      `gorm:"not null"`
}

func (ChargeLine) TableName() string { return "billing_term_charges" }

// DiscountLine reduces the amount due on a billing term.
type DiscountLine struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	TermID      snowflake.ID `gorm:"not null;index"`
	Origin      string       `gorm:"type:text"`
	Description string       `gorm:"type:text"`
	Amount      float64      `gorm:"not null"`
}

func (DiscountLine) TableName() string { return "billing_term_discounts" }

// DebtLine adds a carried-over debt to a billing term.
type DebtLine struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	TermID      snowflake.ID `gorm:"not null;index"`
	Description string       `gorm:"type:text"`
	Amount      float64      `gorm:"not null"`
}

func (DebtLine) TableName() string { return "billing_term_debts" }

// PaymentLine records a payment received against a billing term.
type PaymentLine struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	TermID      snowflake.ID `gorm:"not null;index"`
	PaidAt      time.Time    `gorm:"not null"`
	Amount      float64      `gorm:"not null"`
	Method      string       `gorm:"type:text"`
	Reference   string       `gorm:"type:text"`
	Description string       `gorm:"type:text"`
}

func (PaymentLine) TableName() string { return "billing_term_payments" }

// Totals is the computed settlement snapshot of a billing term.
type Totals struct {
	PreTaxAmount float64
	GrandTotal   float64
	Payment      float64
	Balance      float64
}

// State classifies the term from its computed totals.
func (t Totals) State() SettlementState {
	switch {
	case t.GrandTotal <= 0 || t.Balance <= 0:
		return StatePaid
	case t.Payment > 0 && t.Balance < t.GrandTotal:
		return StatePartiallyPaid
	default:
		return StateUnpaid
	}
}
