package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aagamsoft/billing_backend/config"
	"github.com/shopspring/decimal"
)

// CommissionBasisSubTotal is the only recognized commission basis: goods
// value minus aggregate special discount, before packing/mahamai/tax. The
// net payable amount is deliberately NOT the basis.
const CommissionBasisSubTotal = "sub_total"

// CommissionRecord is the derived commission for one invoice, cached back
// onto the invoice whenever a statement run touches it.
type CommissionRecord struct {
	Rate          decimal.Decimal `json:"rate"`
	Amount        decimal.Decimal `json:"amount"`
	Basis         string          `json:"basis"`
	BasisDegraded bool            `json:"basis_degraded"`
	ComputedAt    time.Time       `json:"computed_at"`
}

// RecoverSubTotal resolves the commission basis for an invoice, walking the
// fallback chain for historical records that predate the sub_total field:
//
//  1. the stored sub_total, when present and non-negative
//  2. goods_value - special_discount, when both are present
//  3. the sub-total line scraped out of the invoice's rendered document text
//
// The second return reports whether the value came from a fallback step and
// is therefore worth caching back onto the record. ErrSubTotalUnavailable
// means every step failed.
func RecoverSubTotal(invoice *Invoice) (decimal.Decimal, bool, error) {
	if invoice.SubTotal != nil && !invoice.SubTotal.IsNegative() {
		return *invoice.SubTotal, false, nil
	}
	if invoice.GoodsValue != nil && invoice.SpecialDiscount != nil {
		return invoice.GoodsValue.Sub(*invoice.SpecialDiscount), true, nil
	}
	if v, ok := scanDocumentForSubTotal(invoice.LegacyDocumentText); ok {
		return v, true, nil
	}
	return decimal.Zero, false, ErrSubTotalUnavailable
}

var subTotalLabels = []string{"sub total", "sub-total", "subtotal"}

// scanDocumentForSubTotal walks the rendered bill text line by line looking
// for a sub-total label and parses the adjoining numeric value. The figure
// is untrusted legacy output: anything unparsable or negative is rejected.
func scanDocumentForSubTotal(text string) (decimal.Decimal, bool) {
	if text == "" {
		return decimal.Zero, false
	}
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		for _, label := range subTotalLabels {
			idx := strings.Index(lower, label)
			if idx < 0 {
				continue
			}
			if v, ok := parseAmountToken(line[idx+len(label):]); ok {
				return v, true
			}
		}
	}
	return decimal.Zero, false
}

func parseAmountToken(s string) (decimal.Decimal, bool) {
	s = strings.TrimLeft(s, " \t:=")
	s = strings.TrimPrefix(s, "Rs.")
	s = strings.TrimPrefix(s, "Rs")
	s = strings.TrimLeft(s, " \t")
	end := 0
	for end < len(s) {
		c := s[end]
		if (c >= '0' && c <= '9') || c == '.' || c == ',' {
			end++
			continue
		}
		break
	}
	if end == 0 {
		return decimal.Zero, false
	}
	token := strings.ReplaceAll(s[:end], ",", "")
	v, err := decimal.NewFromString(token)
	if err != nil || v.IsNegative() {
		return decimal.Zero, false
	}
	return v, true
}

// ResolveCommission computes the agent commission for one invoice. Pure:
// the amount is subTotal x rate / 100, unrounded (statement-level rounding
// is the caller's concern). A record with no recoverable basis yields a
// zero amount with BasisDegraded set so statement generation can warn the
// operator instead of silently underpaying.
func ResolveCommission(invoice *Invoice, rate decimal.Decimal, now time.Time) (*CommissionRecord, *decimal.Decimal) {
	subTotal, recovered, err := RecoverSubTotal(invoice)
	record := &CommissionRecord{
		Rate:       rate,
		Basis:      CommissionBasisSubTotal,
		ComputedAt: now,
	}
	if err != nil {
		record.Amount = decimal.Zero
		record.BasisDegraded = true
		return record, nil
	}
	record.Amount = subTotal.Mul(rate).Div(oneHundred)
	if recovered {
		return record, &subTotal
	}
	return record, nil
}

// ResolveAndCacheCommission resolves the commission for an invoice and
// writes the record back onto it — a deliberate cache-on-read, modeled as
// its own write. Idempotent: resolving twice with the same rate stores the
// same amount. The per-invoice lock keeps concurrent statement runs with
// different rates from interleaving the read and the write.
func ResolveAndCacheCommission(ctx context.Context, invoiceId int, rate decimal.Decimal) (*CommissionRecord, error) {
	db := config.GetDB()

	if locker := config.GetRedisLock(); locker != nil {
		lock, lockErr := locker.Obtain(ctx, fmt.Sprintf("invoice_commission:%d", invoiceId), 30*time.Second, nil)
		if lockErr == nil {
			defer lock.Release(context.Background())
		}
	}

	invoice, err := GetInvoice(ctx, invoiceId)
	if err != nil {
		return nil, err
	}

	record, recoveredSubTotal := ResolveCommission(invoice, rate, time.Now())

	updates := map[string]interface{}{
		"commission_rate":        record.Rate,
		"commission_amount":      record.Amount,
		"commission_basis":       record.Basis,
		"commission_degraded":    record.BasisDegraded,
		"commission_computed_at": record.ComputedAt,
	}
	// Cache a sub total recovered via fallback so the scan need not repeat.
	if recoveredSubTotal != nil {
		updates["sub_total"] = *recoveredSubTotal
	}
	if err := db.WithContext(ctx).Model(&Invoice{}).Where("id = ?", invoiceId).
		Updates(updates).Error; err != nil {
		return nil, err
	}
	return record, nil
}
