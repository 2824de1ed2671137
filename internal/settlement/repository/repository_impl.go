package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rentstack/rentstack/internal/settlement/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, term int) (*domain.BillingTerm, error) {
	var item domain.BillingTerm
	err := db.WithContext(ctx).
		Preload("Charges").
		Preload("Discounts").
		Preload("Debts").
		Preload("Payments").
		Where("tenant_id = ? AND term = ?", tenantID, term).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, term *domain.BillingTerm) error {
	return db.WithContext(ctx).Create(term).Error
}

func (r *repo) UpdateSnapshot(ctx context.Context, db *gorm.DB, id snowflake.ID, totals domain.Totals, updatedAt time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.BillingTerm{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"pre_tax_amount": totals.PreTaxAmount,
			"grand_total":    totals.GrandTotal,
			"payment":        totals.Payment,
			"balance":        totals.Balance,
			"updated_at":     updatedAt,
		}).Error
}

func (r *repo) InsertPayment(ctx context.Context, db *gorm.DB, payment *domain.PaymentLine) error {
	return db.WithContext(ctx).Create(payment).Error
}

func (r *repo) InsertDiscount(ctx context.Context, db *gorm.DB, discount *domain.DiscountLine) error {
	return db.WithContext(ctx).Create(discount).Error
}

func (r *repo) InsertDebt(ctx context.Context, db *gorm.DB, debt *domain.DebtLine) error {
	return db.WithContext(ctx).Create(debt).Error
}

func (r *repo) MarkArchived(ctx context.Context, db *gorm.DB, id snowflake.ID, updatedAt time.Time) error {
	return db.WithContext(ctx).
		Model(&domain.BillingTerm{}).
		Where("id = ?", id).
		Updates(map[string]any{"archived": true, "updated_at": updatedAt}).Error
}
