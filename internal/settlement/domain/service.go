package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("billing term not found")
	ErrTermArchived  = errors.New("billing term is archived")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidTerm   = errors.New("invalid term")
)

// Service reconciles billing terms.
type Service interface {
	CreateTerm(ctx context.Context, term *BillingTerm) (*BillingTerm, error)
	GetTerm(ctx context.Context, tenantID snowflake.ID, term int) (*BillingTerm, error)
	RecordPayment(ctx context.Context, tenantID snowflake.ID, term int, payment PaymentLine) (*BillingTerm, error)
	RecordDiscount(ctx context.Context, tenantID snowflake.ID, term int, discount DiscountLine) (*BillingTerm, error)
	RecordDebt(ctx context.Context, tenantID snowflake.ID, term int, debt DebtLine) (*BillingTerm, error)
	ArchiveTerm(ctx context.Context, tenantID snowflake.ID, term int) error
}

// Repository persists billing terms.
type Repository interface {
	Find(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, term int) (*BillingTerm, error)
	Insert(ctx context.Context, db *gorm.DB, term *BillingTerm) error
	UpdateSnapshot(ctx context.Context, db *gorm.DB, id snowflake.ID, totals Totals, updatedAt time.Time) error
	InsertPayment(ctx context.Context, db *gorm.DB, payment *PaymentLine) error
	InsertDiscount(ctx context.Context, db *gorm.DB, discount *DiscountLine) error
	InsertDebt(ctx context.Context, db *gorm.DB, debt *DebtLine) error
	MarkArchived(ctx context.Context, db *gorm.DB, id snowflake.ID, updatedAt time.Time) error
}
