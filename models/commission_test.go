package models_test

import (
	"errors"
	"testing"
	"time"

	"github.com/aagamsoft/billing_backend/models"
	"github.com/shopspring/decimal"
)

func decPtr(t *testing.T, s string) *decimal.Decimal {
	t.Helper()
	d := dec(t, s)
	return &d
}

func TestResolveCommissionFromStoredSubTotal(t *testing.T) {
	invoice := &models.Invoice{SubTotal: decPtr(t, "10000")}
	record, cached := models.ResolveCommission(invoice, dec(t, "5"), time.Now())
	if !record.Amount.Equal(dec(t, "500")) {
		t.Errorf("amount = %s, want 500", record.Amount)
	}
	if record.BasisDegraded {
		t.Error("basis flagged degraded for a stored sub total")
	}
	if record.Basis != models.CommissionBasisSubTotal {
		t.Errorf("basis = %s, want %s", record.Basis, models.CommissionBasisSubTotal)
	}
	if cached != nil {
		t.Error("stored sub total should not trigger a cache write")
	}
}

func TestResolveCommissionRecomputesFromComponents(t *testing.T) {
	invoice := &models.Invoice{
		GoodsValue:      decPtr(t, "14400"),
		SpecialDiscount: decPtr(t, "1440"),
	}
	record, cached := models.ResolveCommission(invoice, dec(t, "2.5"), time.Now())
	if !record.Amount.Equal(dec(t, "324")) {
		t.Errorf("amount = %s, want 324 (12960 x 2.5%%)", record.Amount)
	}
	if cached == nil || !cached.Equal(dec(t, "12960")) {
		t.Errorf("recovered sub total = %v, want 12960 cached back", cached)
	}
}

func TestResolveCommissionRecoversFromDocumentText(t *testing.T) {
	invoice := &models.Invoice{
		LegacyDocumentText: "Goods Value: 14400.00\nSpecial Discount: 1440.00\nSub Total : Rs. 12,960.00\nNet Amount: 15645",
	}
	record, cached := models.ResolveCommission(invoice, dec(t, "5"), time.Now())
	if !record.Amount.Equal(dec(t, "648")) {
		t.Errorf("amount = %s, want 648 (12960 x 5%%)", record.Amount)
	}
	if record.BasisDegraded {
		t.Error("recovered basis flagged degraded")
	}
	if cached == nil || !cached.Equal(dec(t, "12960")) {
		t.Errorf("recovered sub total = %v, want 12960 cached back", cached)
	}
}

func TestResolveCommissionDegradesToZero(t *testing.T) {
	invoice := &models.Invoice{LegacyDocumentText: "Grand old bill with no totals section"}
	record, cached := models.ResolveCommission(invoice, dec(t, "5"), time.Now())
	if !record.Amount.IsZero() {
		t.Errorf("amount = %s, want 0", record.Amount)
	}
	if !record.BasisDegraded {
		t.Error("degraded basis not flagged")
	}
	if cached != nil {
		t.Error("nothing recoverable, no cache write expected")
	}
}

func TestResolveCommissionIdempotent(t *testing.T) {
	invoice := &models.Invoice{SubTotal: decPtr(t, "12960")}
	first, _ := models.ResolveCommission(invoice, dec(t, "5"), time.Now())
	second, _ := models.ResolveCommission(invoice, dec(t, "5"), time.Now())
	if first.Amount.String() != second.Amount.String() {
		t.Errorf("amounts differ across identical resolves: %s vs %s", first.Amount, second.Amount)
	}
}

func TestResolveCommissionAmountUnrounded(t *testing.T) {
	invoice := &models.Invoice{SubTotal: decPtr(t, "999.99")}
	record, _ := models.ResolveCommission(invoice, dec(t, "3"), time.Now())
	if !record.Amount.Equal(dec(t, "29.9997")) {
		t.Errorf("amount = %s, want 29.9997 (no statement rounding in the resolver)", record.Amount)
	}
}

func TestRecoverSubTotal(t *testing.T) {
	t.Run("stored value wins over components", func(t *testing.T) {
		invoice := &models.Invoice{
			SubTotal:        decPtr(t, "100"),
			GoodsValue:      decPtr(t, "900"),
			SpecialDiscount: decPtr(t, "50"),
		}
		got, recovered, err := models.RecoverSubTotal(invoice)
		if err != nil {
			t.Fatalf("RecoverSubTotal: %v", err)
		}
		if !got.Equal(dec(t, "100")) || recovered {
			t.Errorf("got %s (recovered=%v), want stored 100 without recovery", got, recovered)
		}
	})

	t.Run("negative stored value falls through", func(t *testing.T) {
		invoice := &models.Invoice{
			SubTotal:        decPtr(t, "-1"),
			GoodsValue:      decPtr(t, "900"),
			SpecialDiscount: decPtr(t, "50"),
		}
		got, recovered, err := models.RecoverSubTotal(invoice)
		if err != nil {
			t.Fatalf("RecoverSubTotal: %v", err)
		}
		if !got.Equal(dec(t, "850")) || !recovered {
			t.Errorf("got %s (recovered=%v), want recomputed 850", got, recovered)
		}
	})

	t.Run("nothing recoverable", func(t *testing.T) {
		_, _, err := models.RecoverSubTotal(&models.Invoice{})
		if !errors.Is(err, models.ErrSubTotalUnavailable) {
			t.Errorf("err = %v, want ErrSubTotalUnavailable", err)
		}
	})

	t.Run("document scan variants", func(t *testing.T) {
		cases := []struct {
			text string
			want string
		}{
			{"SUB TOTAL 12960", "12960"},
			{"subtotal: 1,234.56", "1234.56"},
			{"Sub-Total = Rs 42", "42"},
		}
		for _, tc := range cases {
			invoice := &models.Invoice{LegacyDocumentText: tc.text}
			got, recovered, err := models.RecoverSubTotal(invoice)
			if err != nil {
				t.Errorf("%q: %v", tc.text, err)
				continue
			}
			if !recovered || !got.Equal(dec(t, tc.want)) {
				t.Errorf("%q: got %s (recovered=%v), want %s", tc.text, got, recovered, tc.want)
			}
		}
	})
}
