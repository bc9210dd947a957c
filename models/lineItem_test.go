package models_test

import (
	"errors"
	"testing"

	"github.com/aagamsoft/billing_backend/models"
	"github.com/shopspring/decimal"
)

func TestValuateBasic(t *testing.T) {
	item := models.LineItem{
		CaseCount:       10,
		PerCase:         12,
		Rate:            dec(t, "120"),
		Per:             1,
		UnitType:        models.UnitTypeUnit,
		DiscountPercent: dec(t, "10"),
	}
	value, err := item.Valuate()
	if err != nil {
		t.Fatalf("Valuate: %v", err)
	}
	if value.Quantity != 120 {
		t.Errorf("quantity = %d, want 120", value.Quantity)
	}
	if !value.GrossAmount.Equal(dec(t, "14400")) {
		t.Errorf("grossAmount = %s, want 14400", value.GrossAmount)
	}
	if !value.DiscountAmount.Equal(dec(t, "1440")) {
		t.Errorf("discountAmount = %s, want 1440", value.DiscountAmount)
	}
}

func TestValuatePerDivisor(t *testing.T) {
	// rate quoted per 10 units
	item := models.LineItem{CaseCount: 2, PerCase: 50, Rate: dec(t, "55"), Per: 10}
	value, err := item.Valuate()
	if err != nil {
		t.Fatalf("Valuate: %v", err)
	}
	if value.Quantity != 100 {
		t.Errorf("quantity = %d, want 100", value.Quantity)
	}
	if !value.GrossAmount.Equal(dec(t, "550")) {
		t.Errorf("grossAmount = %s, want 550", value.GrossAmount)
	}
}

func TestValuateQuantityIsExactProduct(t *testing.T) {
	for _, c := range []struct{ caseCount, perCase int }{{0, 0}, {0, 7}, {3, 0}, {7, 13}, {1000, 999}} {
		item := models.LineItem{CaseCount: c.caseCount, PerCase: c.perCase, Rate: dec(t, "1"), Per: 1}
		value, err := item.Valuate()
		if err != nil {
			t.Fatalf("Valuate(%d,%d): %v", c.caseCount, c.perCase, err)
		}
		want := int64(c.caseCount) * int64(c.perCase)
		if value.Quantity != want {
			t.Errorf("quantity(%d,%d) = %d, want %d", c.caseCount, c.perCase, value.Quantity, want)
		}
	}
}

func TestValuateErrors(t *testing.T) {
	cases := []struct {
		name string
		item models.LineItem
		want error
	}{
		{"zero per", models.LineItem{CaseCount: 1, PerCase: 1, Rate: decimal.NewFromInt(10), Per: 0}, models.ErrInvalidQuantity},
		{"negative per", models.LineItem{CaseCount: 1, PerCase: 1, Rate: decimal.NewFromInt(10), Per: -2}, models.ErrInvalidQuantity},
		{"negative caseCount", models.LineItem{CaseCount: -1, PerCase: 1, Rate: decimal.NewFromInt(10), Per: 1}, models.ErrInvalidQuantity},
		{"negative perCase", models.LineItem{CaseCount: 1, PerCase: -1, Rate: decimal.NewFromInt(10), Per: 1}, models.ErrInvalidQuantity},
		{"negative rate", models.LineItem{CaseCount: 1, PerCase: 1, Rate: decimal.NewFromInt(-10), Per: 1}, models.ErrInvalidParameter},
		{"discount over 100", models.LineItem{CaseCount: 1, PerCase: 1, Rate: decimal.NewFromInt(10), Per: 1, DiscountPercent: decimal.NewFromInt(101)}, models.ErrInvalidDiscount},
		{"negative discount", models.LineItem{CaseCount: 1, PerCase: 1, Rate: decimal.NewFromInt(10), Per: 1, DiscountPercent: decimal.NewFromInt(-1)}, models.ErrInvalidDiscount},
	}
	for _, tc := range cases {
		_, err := tc.item.Valuate()
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: err = %v, want %v", tc.name, err, tc.want)
		}
	}
}
