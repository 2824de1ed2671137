package service

import (
	"fmt"
	"math"

	"github.com/rentstack/rentstack/internal/settlement/domain"
)

// ComputeTotals reconciles a billing term's line items into a settlement snapshot.
//
//	grandTotal = Σcharges − Σdiscounts + Σdebts
//	balance    = grandTotal − Σpayments
//
// A negative balance means the tenant overpaid and carries a credit.
// Malformed amounts (NaN, ±Inf, negative line amounts) are rejected rather
// than coerced, so an unset value can never leak into user-facing output.
func ComputeTotals(charges []domain.ChargeLine, discounts []domain.DiscountLine, debts []domain.DebtLine, payments []domain.PaymentLine) (domain.Totals, error) {
	var totals domain.Totals

	for _, c := range charges {
		if err := validAmount("charge", c.Amount); err != nil {
			return domain.Totals{}, err
		}
		totals.PreTaxAmount += c.Amount
	}

	discountSum := 0.0
	for _, d := range discounts {
		if err := validAmount("discount", d.Amount); err != nil {
			return domain.Totals{}, err
		}
		discountSum += d.Amount
	}

	debtSum := 0.0
	for _, d := range debts {
		if err := validAmount("debt", d.Amount); err != nil {
			return domain.Totals{}, err
		}
		debtSum += d.Amount
	}

	for _, p := range payments {
		if err := validAmount("payment", p.Amount); err != nil {
			return domain.Totals{}, err
		}
		totals.Payment += p.Amount
	}

	totals.GrandTotal = totals.PreTaxAmount - discountSum + debtSum
	totals.Balance = totals.GrandTotal - totals.Payment
	return totals, nil
}

func validAmount(kind string, amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return fmt.Errorf("%w: %s amount is not a number", domain.ErrInvalidAmount, kind)
	}
	if amount < 0 {
		return fmt.Errorf("%w: %s amount must not be negative", domain.ErrInvalidAmount, kind)
	}
	return nil
}
