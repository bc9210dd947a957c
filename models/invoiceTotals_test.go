package models_test

import (
	"errors"
	"testing"

	"github.com/aagamsoft/billing_backend/models"
	"github.com/shopspring/decimal"
)

func sampleItems(t *testing.T) []models.LineItem {
	return []models.LineItem{
		{CaseCount: 10, PerCase: 12, Rate: dec(t, "120"), Per: 1, DiscountPercent: dec(t, "10")},
	}
}

// Full worked example: one line of 10 cases x 12 per case at 120/unit with
// 10% discount, South region, 18% GST, 2% packing.
func TestAggregateSouthEndToEnd(t *testing.T) {
	totals, err := models.AggregateInvoiceTotals(sampleItems(t), models.RegionSouth, dec(t, "18"), dec(t, "2"))
	if err != nil {
		t.Fatalf("AggregateInvoiceTotals: %v", err)
	}

	expect := map[string]string{
		"goods_value":            "14400",
		"special_discount":       "1440",
		"sub_total":              "12960",
		"packing_charge":         "259.2",
		"sub_total_with_packing": "13219.2",
		"mahamai_charge":         "39.6576",
		"taxable_value":          "13258.8576",
		"cgst":                   "1193.297184",
		"sgst":                   "1193.297184",
		"igst":                   "0",
		"net_amount":             "15645",
		"round_off":              "-0.451968",
	}
	record := totals.ToRecord()
	for field, want := range expect {
		got, ok := record[field]
		if !ok {
			t.Fatalf("record missing field %s", field)
		}
		if !got.Equal(dec(t, want)) {
			t.Errorf("%s = %s, want %s", field, got, want)
		}
	}
}

func TestAggregateNorthUsesIgst(t *testing.T) {
	totals, err := models.AggregateInvoiceTotals(sampleItems(t), models.RegionNorth, dec(t, "18"), dec(t, "2"))
	if err != nil {
		t.Fatalf("AggregateInvoiceTotals: %v", err)
	}
	if !totals.Cgst.IsZero() || !totals.Sgst.IsZero() {
		t.Errorf("cgst/sgst = %s/%s, want both zero for North", totals.Cgst, totals.Sgst)
	}
	want := totals.TaxableValue.Mul(dec(t, "18")).Div(decimal.NewFromInt(100))
	if !totals.Igst.Equal(want) {
		t.Errorf("igst = %s, want %s", totals.Igst, want)
	}
}

func TestAggregateSouthSplitsEvenly(t *testing.T) {
	for _, gst := range []string{"0", "5", "12", "18", "28", "7.5"} {
		totals, err := models.AggregateInvoiceTotals(sampleItems(t), models.RegionSouth, dec(t, gst), dec(t, "0"))
		if err != nil {
			t.Fatalf("gst %s: %v", gst, err)
		}
		if !totals.Cgst.Equal(totals.Sgst) {
			t.Errorf("gst %s: cgst %s != sgst %s", gst, totals.Cgst, totals.Sgst)
		}
		if !totals.Igst.IsZero() {
			t.Errorf("gst %s: igst = %s, want 0", gst, totals.Igst)
		}
	}
}

func TestAggregateEmptyItemsYieldsZeroTotals(t *testing.T) {
	totals, err := models.AggregateInvoiceTotals(nil, models.RegionSouth, dec(t, "18"), dec(t, "2"))
	if err != nil {
		t.Fatalf("AggregateInvoiceTotals: %v", err)
	}
	for field, v := range totals.ToRecord() {
		if !v.IsZero() {
			t.Errorf("%s = %s, want 0 for empty invoice", field, v)
		}
	}
}

func TestAggregateRejectsBadParameters(t *testing.T) {
	items := sampleItems(t)
	if _, err := models.AggregateInvoiceTotals(items, models.Region("East"), dec(t, "18"), dec(t, "2")); !errors.Is(err, models.ErrInvalidParameter) {
		t.Errorf("unrecognized region: err = %v, want ErrInvalidParameter", err)
	}
	if _, err := models.AggregateInvoiceTotals(items, models.RegionSouth, dec(t, "-1"), dec(t, "2")); !errors.Is(err, models.ErrInvalidParameter) {
		t.Errorf("negative gst: err = %v, want ErrInvalidParameter", err)
	}
	if _, err := models.AggregateInvoiceTotals(items, models.RegionSouth, dec(t, "18"), dec(t, "-2")); !errors.Is(err, models.ErrInvalidParameter) {
		t.Errorf("negative packing: err = %v, want ErrInvalidParameter", err)
	}
}

func TestAggregateSumIdentityAndOrderIndependence(t *testing.T) {
	items := []models.LineItem{
		{CaseCount: 3, PerCase: 4, Rate: dec(t, "99.95"), Per: 1, DiscountPercent: dec(t, "5")},
		{CaseCount: 7, PerCase: 2, Rate: dec(t, "12.4"), Per: 2, DiscountPercent: dec(t, "0")},
		{CaseCount: 1, PerCase: 100, Rate: dec(t, "7"), Per: 10, DiscountPercent: dec(t, "12.5")},
	}
	reversed := []models.LineItem{items[2], items[1], items[0]}

	a, err := models.AggregateInvoiceTotals(items, models.RegionNorth, dec(t, "12"), dec(t, "1"))
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	b, err := models.AggregateInvoiceTotals(reversed, models.RegionNorth, dec(t, "12"), dec(t, "1"))
	if err != nil {
		t.Fatalf("aggregate reversed: %v", err)
	}

	if !a.SubTotal.Add(a.SpecialDiscount).Equal(a.GoodsValue) {
		t.Errorf("subTotal + specialDiscount = %s, want goodsValue %s",
			a.SubTotal.Add(a.SpecialDiscount), a.GoodsValue)
	}
	for field, v := range a.ToRecord() {
		if !v.Equal(b.ToRecord()[field]) {
			t.Errorf("%s differs by item order: %s vs %s", field, v, b.ToRecord()[field])
		}
	}
}

func TestAggregateIdempotent(t *testing.T) {
	items := sampleItems(t)
	first, err := models.AggregateInvoiceTotals(items, models.RegionSouth, dec(t, "18"), dec(t, "2"))
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	second, err := models.AggregateInvoiceTotals(items, models.RegionSouth, dec(t, "18"), dec(t, "2"))
	if err != nil {
		t.Fatalf("re-aggregate: %v", err)
	}
	for field, v := range first.ToRecord() {
		got := second.ToRecord()[field]
		if v.String() != got.String() {
			t.Errorf("%s not bit-identical across runs: %s vs %s", field, v, got)
		}
	}
}

func TestAggregatePropagatesLineItemErrors(t *testing.T) {
	items := []models.LineItem{{CaseCount: 1, PerCase: 1, Rate: dec(t, "10"), Per: 0}}
	if _, err := models.AggregateInvoiceTotals(items, models.RegionSouth, dec(t, "18"), dec(t, "0")); !errors.Is(err, models.ErrInvalidQuantity) {
		t.Errorf("err = %v, want ErrInvalidQuantity", err)
	}
}
