package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rentstack/rentstack/internal/settlement/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func NewService(p Params) *Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("settlement.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

var _ domain.Service = (*Service)(nil)

func (s *Service) CreateTerm(ctx context.Context, term *domain.BillingTerm) (*domain.BillingTerm, error) {
	if term == nil || term.TenantID == 0 || !validTermID(term.Term) {
		return nil, domain.ErrInvalidTerm
	}

	totals, err := ComputeTotals(term.Charges, term.Discounts, term.Debts, term.Payments)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	term.ID = s.genID.Generate()
	term.CreatedAt = now
	term.UpdatedAt = now
	applyTotals(term, totals)
	for i := range term.Charges {
		term.Charges[i].ID = s.genID.Generate()
		term.Charges[i].TermID = term.ID
	}
	for i := range term.Discounts {
		term.Discounts[i].ID = s.genID.Generate()
		term.Discounts[i].TermID = term.ID
	}
	for i := range term.Debts {
		term.Debts[i].ID = s.genID.Generate()
		term.Debts[i].TermID = term.ID
	}
	for i := range term.Payments {
		term.Payments[i].ID = s.genID.Generate()
		term.Payments[i].TermID = term.ID
	}

	if err := s.repo.Insert(ctx, s.db, term); err != nil {
		return nil, err
	}
	return term, nil
}

func (s *Service) GetTerm(ctx context.Context, tenantID snowflake.ID, term int) (*domain.BillingTerm, error) {
	record, err := s.repo.Find(ctx, s.db, tenantID, term)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if record == nil {
		return nil, domain.ErrNotFound
	}
	return record, nil
}

func (s *Service) RecordPayment(ctx context.Context, tenantID snowflake.ID, term int, payment domain.PaymentLine) (*domain.BillingTerm, error) {
	return s.mutate(ctx, tenantID, term, func(tx *gorm.DB, record *domain.BillingTerm) error {
		payment.ID = s.genID.Generate()
		payment.TermID = record.ID
		if payment.PaidAt.IsZero() {
			payment.PaidAt = time.Now().UTC()
		}
		record.Payments = append(record.Payments, payment)
		return s.repo.InsertPayment(ctx, tx, &payment)
	})
}

func (s *Service) RecordDiscount(ctx context.Context, tenantID snowflake.ID, term int, discount domain.DiscountLine) (*domain.BillingTerm, error) {
	return s.mutate(ctx, tenantID, term, func(tx *gorm.DB, record *domain.BillingTerm) error {
		discount.ID = s.genID.Generate()
		discount.TermID = record.ID
		record.Discounts = append(record.Discounts, discount)
		return s.repo.InsertDiscount(ctx, tx, &discount)
	})
}

func (s *Service) RecordDebt(ctx context.Context, tenantID snowflake.ID, term int, debt domain.DebtLine) (*domain.BillingTerm, error) {
	return s.mutate(ctx, tenantID, term, func(tx *gorm.DB, record *domain.BillingTerm) error {
		debt.ID = s.genID.Generate()
		debt.TermID = record.ID
		record.Debts = append(record.Debts, debt)
		return s.repo.InsertDebt(ctx, tx, &debt)
	})
}

func (s *Service) ArchiveTerm(ctx context.Context, tenantID snowflake.ID, term int) error {
	record, err := s.GetTerm(ctx, tenantID, term)
	if err != nil {
		return err
	}
	if record.Archived {
		return nil
	}
	return s.repo.MarkArchived(ctx, s.db, record.ID, time.Now().UTC())
}

// mutate loads the term, applies the line-item insert and recomputes the
// snapshot inside one transaction. Archived terms are immutable.
func (s *Service) mutate(ctx context.Context, tenantID snowflake.ID, term int, apply func(tx *gorm.DB, record *domain.BillingTerm) error) (*domain.BillingTerm, error) {
	var result *domain.BillingTerm

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := s.repo.Find(ctx, tx, tenantID, term)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		if record == nil {
			return domain.ErrNotFound
		}
		if record.Archived {
			return domain.ErrTermArchived
		}

		if err := apply(tx, record); err != nil {
			return err
		}

		totals, err := ComputeTotals(record.Charges, record.Discounts, record.Debts, record.Payments)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		if err := s.repo.UpdateSnapshot(ctx, tx, record.ID, totals, now); err != nil {
			return err
		}
		applyTotals(record, totals)
		record.UpdatedAt = now
		result = record
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("billing term reconciled",
		zap.Int64("tenant_id", int64(tenantID)),
		zap.Int("term", term),
		zap.Float64("balance", result.Balance),
		zap.String("state", string(totalsOf(result).State())),
	)
	return result, nil
}

func applyTotals(term *domain.BillingTerm, totals domain.Totals) {
	term.PreTaxAmount = totals.PreTaxAmount
	term.GrandTotal = totals.GrandTotal
	term.Payment = totals.Payment
	term.Balance = totals.Balance
}

func totalsOf(term *domain.BillingTerm) domain.Totals {
	return domain.Totals{
		PreTaxAmount: term.PreTaxAmount,
		GrandTotal:   term.GrandTotal,
		Payment:      term.Payment,
		Balance:      term.Balance,
	}
}

// validTermID checks the YYYYMM encoding.
func validTermID(term int) bool {
	if term < 190001 || term > 999912 {
		return false
	}
	month := term % 100
	return month >= 1 && month <= 12
}
