// Package pricing holds the money rules of a custom order: customer price,
// profit clamping, balance and payment status derivation.
package pricing

import (
	"github.com/sangkips/atelier-api/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// DefaultProfitCap is the highest markup percentage accepted at creation
const DefaultProfitCap = 15

var hundred = decimal.NewFromInt(100)

// NormalizeQuantity treats a missing or non-positive quantity as one piece
func NormalizeQuantity(quantity int) int {
	if quantity <= 0 {
		return 1
	}
	return quantity
}

// CustomerPrice returns (E + E*p/100) * q, or E * q when p is not positive.
// The result is rounded to cents.
func CustomerPrice(estimated, profitPct decimal.Decimal, quantity int) decimal.Decimal {
	unit := estimated
	if profitPct.IsPositive() {
		unit = estimated.Add(estimated.Mul(profitPct).Div(hundred))
	}
	return unit.Mul(decimal.NewFromInt(int64(NormalizeQuantity(quantity)))).Round(2)
}

// ClampProfit bounds a requested markup to [0, limit]
func ClampProfit(profitPct, limit decimal.Decimal) decimal.Decimal {
	if profitPct.GreaterThan(limit) {
		return limit
	}
	if profitPct.IsNegative() {
		return decimal.Zero
	}
	return profitPct
}

// DeriveStatus computes the outstanding balance and the status label
func DeriveStatus(price, totalPaid decimal.Decimal) (decimal.Decimal, enum.PaymentStatus) {
	balance := price.Sub(totalPaid)
	switch {
	case !balance.IsPositive():
		return balance, enum.PaymentStatusFullyPaid
	case totalPaid.IsPositive():
		return balance, enum.PaymentStatusPartiallyPaid
	default:
		return balance, enum.PaymentStatusNotPaid
	}
}

// RemainingPayments is how many simple payments an order can still take
func RemainingPayments(limit int, count int64) int {
	remaining := int64(limit) - count
	if remaining < 0 {
		return 0
	}
	return int(remaining)
}

// Snapshot gathers the figures consulted when re-deriving payment status
type Snapshot struct {
	Price       decimal.Decimal
	TotalPaid   decimal.Decimal
	SimpleTotal decimal.Decimal
	LedgerTotal decimal.Decimal
	// LedgerMinBalance is the smallest balance recorded on a ledger row,
	// invalid when the order has no ledger rows.
	LedgerMinBalance decimal.NullDecimal
}

// ReconcileStatus applies the permissive rule: any source that shows the
// order settled wins over the others.
func ReconcileStatus(s Snapshot) enum.PaymentStatus {
	balance := s.Price.Sub(s.TotalPaid)
	fullyPaid := !balance.IsPositive() ||
		(s.LedgerMinBalance.Valid && !s.LedgerMinBalance.Decimal.IsPositive()) ||
		(s.LedgerTotal.IsPositive() && s.LedgerTotal.GreaterThanOrEqual(s.Price)) ||
		(s.SimpleTotal.IsPositive() && s.SimpleTotal.GreaterThanOrEqual(s.Price))

	switch {
	case fullyPaid:
		return enum.PaymentStatusFullyPaid
	case s.TotalPaid.IsPositive():
		return enum.PaymentStatusPartiallyPaid
	default:
		return enum.PaymentStatusNotPaid
	}
}
