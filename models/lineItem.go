package models

import "github.com/shopspring/decimal"

// LineItem is one catalog line as entered by a clerk: a case count, a
// per-case factor, a rate with its divisor, and an optional row discount.
// It is immutable per computation; quantity is always derived, never typed
// in directly.
type LineItem struct {
	CaseCount       int
	PerCase         int
	Rate            decimal.Decimal
	Per             int
	UnitType        UnitType
	DiscountPercent decimal.Decimal
}

// LineItemValue is the result of valuating one line.
//
// GrossAmount is the undiscounted row amount and is what gets persisted on
// the row. The discount is tracked per row but netted once at the invoice
// level, so line rows retain gross value for audit.
type LineItemValue struct {
	Quantity       int64
	GrossAmount    decimal.Decimal
	DiscountAmount decimal.Decimal
}

// Valuate computes quantity and amounts for one line. Pure; re-run on every
// edit so quantity always equals caseCount x perCase.
func (item LineItem) Valuate() (*LineItemValue, error) {
	if item.Per <= 0 {
		return nil, ErrInvalidQuantity
	}
	if item.CaseCount < 0 || item.PerCase < 0 {
		return nil, ErrInvalidQuantity
	}
	if item.Rate.IsNegative() {
		return nil, ErrInvalidParameter
	}
	if item.DiscountPercent.IsNegative() || item.DiscountPercent.GreaterThan(oneHundred) {
		return nil, ErrInvalidDiscount
	}

	quantity := int64(item.CaseCount) * int64(item.PerCase)
	qty := decimal.NewFromInt(quantity)

	// grossAmount = (rate / per) x quantity
	grossAmount := item.Rate.Mul(qty).Div(decimal.NewFromInt(int64(item.Per)))
	discountAmount := grossAmount.Mul(item.DiscountPercent).Div(oneHundred)

	return &LineItemValue{
		Quantity:       quantity,
		GrossAmount:    grossAmount,
		DiscountAmount: discountAmount,
	}, nil
}
