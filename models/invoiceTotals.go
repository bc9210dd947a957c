package models

import "github.com/shopspring/decimal"

var (
	oneHundred = decimal.NewFromInt(100)
	two        = decimal.NewFromInt(2)

	// mahamaiRate is a fixed 0.3% surcharge applied after packing charge and
	// before GST. Not user-configurable.
	mahamaiRate = decimal.New(3, -1)
)

// InvoiceTotals is the full tax breakdown of one invoice. It is always
// recomputed from the line items in one pass and persisted whole; no field
// is ever hand-edited or patched individually.
type InvoiceTotals struct {
	GoodsValue          decimal.Decimal `json:"goods_value"`
	SpecialDiscount     decimal.Decimal `json:"special_discount"`
	SubTotal            decimal.Decimal `json:"sub_total"`
	PackingCharge       decimal.Decimal `json:"packing_charge"`
	SubTotalWithPacking decimal.Decimal `json:"sub_total_with_packing"`
	MahamaiCharge       decimal.Decimal `json:"mahamai_charge"`
	TaxableValue        decimal.Decimal `json:"taxable_value"`
	Cgst                decimal.Decimal `json:"cgst"`
	Sgst                decimal.Decimal `json:"sgst"`
	Igst                decimal.Decimal `json:"igst"`
	NetAmount           decimal.Decimal `json:"net_amount"`
	RoundOff            decimal.Decimal `json:"round_off"`
}

// AggregateInvoiceTotals folds line items and regional/commercial parameters
// into the complete breakdown. The stage order is fixed: each stage's output
// is the next stage's input, so it must not be reordered.
//
// An empty item list yields all-zero totals; an invoice may legitimately be
// re-aggregated mid-edit with no rows.
func AggregateInvoiceTotals(items []LineItem, region Region, gstPercent, packingPercent decimal.Decimal) (*InvoiceTotals, error) {
	if !region.Valid() {
		return nil, ErrInvalidParameter
	}
	if gstPercent.IsNegative() || packingPercent.IsNegative() {
		return nil, ErrInvalidParameter
	}

	goodsValue := decimal.Zero
	specialDiscount := decimal.Zero
	for _, item := range items {
		value, err := item.Valuate()
		if err != nil {
			return nil, err
		}
		goodsValue = goodsValue.Add(value.GrossAmount)
		specialDiscount = specialDiscount.Add(value.DiscountAmount)
	}

	subTotal := goodsValue.Sub(specialDiscount)
	packingCharge := subTotal.Mul(packingPercent).Div(oneHundred)
	subTotalWithPacking := subTotal.Add(packingCharge)
	mahamaiCharge := subTotalWithPacking.Mul(mahamaiRate).Div(oneHundred)
	taxableValue := subTotalWithPacking.Add(mahamaiCharge)

	cgst, sgst, igst := decimal.Zero, decimal.Zero, decimal.Zero
	if region == RegionSouth {
		cgst = taxableValue.Mul(gstPercent.Div(two)).Div(oneHundred)
		sgst = cgst
	} else {
		igst = taxableValue.Mul(gstPercent).Div(oneHundred)
	}

	unroundedNet := taxableValue.Add(cgst).Add(sgst).Add(igst)
	netAmount, roundOff := RoundOffDelta(unroundedNet)

	return &InvoiceTotals{
		GoodsValue:          goodsValue,
		SpecialDiscount:     specialDiscount,
		SubTotal:            subTotal,
		PackingCharge:       packingCharge,
		SubTotalWithPacking: subTotalWithPacking,
		MahamaiCharge:       mahamaiCharge,
		TaxableValue:        taxableValue,
		Cgst:                cgst,
		Sgst:                sgst,
		Igst:                igst,
		NetAmount:           netAmount,
		RoundOff:            roundOff,
	}, nil
}

// ToRecord flattens the totals into a single persistable mapping. The engine
// always emits the complete object; partial updates are never produced.
func (t *InvoiceTotals) ToRecord() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"goods_value":            t.GoodsValue,
		"special_discount":       t.SpecialDiscount,
		"sub_total":              t.SubTotal,
		"packing_charge":         t.PackingCharge,
		"sub_total_with_packing": t.SubTotalWithPacking,
		"mahamai_charge":         t.MahamaiCharge,
		"taxable_value":          t.TaxableValue,
		"cgst":                   t.Cgst,
		"sgst":                   t.Sgst,
		"igst":                   t.Igst,
		"net_amount":             t.NetAmount,
		"round_off":              t.RoundOff,
	}
}
