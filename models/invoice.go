package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aagamsoft/billing_backend/config"
	"github.com/aagamsoft/billing_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Invoice is one issued document. Immutable once issued except through
// UpdateInvoice, which recomputes every derived total from the (possibly
// modified) line items; totals are never patched field by field.
type Invoice struct {
	ID             int             `gorm:"primary_key" json:"id"`
	OfficeCode     string          `gorm:"size:20;index;not null" json:"office_code" binding:"required"`
	InvoiceNumber  string          `gorm:"size:50;not null;uniqueIndex" json:"invoice_number" binding:"required"`
	InvoiceDate    time.Time       `gorm:"not null" json:"invoice_date" binding:"required"`
	PartyId        int             `gorm:"index;not null" json:"party_id" binding:"required"`
	AgentName      string          `gorm:"size:100;index" json:"agent_name"`
	IssuedBy       string          `gorm:"size:100" json:"issued_by"`
	Region         Region          `gorm:"type:enum('South','North');not null" json:"region" binding:"required"`
	GstPercent     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"gst_percent"`
	PackingPercent decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"packing_percent"`
	Details        []InvoiceDetail `gorm:"foreignKey:InvoiceId" json:"details"`

	// Derived totals, recomputed on every save. GoodsValue, SpecialDiscount
	// and SubTotal are nullable because records imported from the legacy
	// store may predate them; the commission resolver's fallback chain fills
	// SubTotal back in where it can.
	GoodsValue          *decimal.Decimal `gorm:"type:decimal(20,4);default:null" json:"goods_value"`
	SpecialDiscount     *decimal.Decimal `gorm:"type:decimal(20,4);default:null" json:"special_discount"`
	SubTotal            *decimal.Decimal `gorm:"type:decimal(20,4);default:null" json:"sub_total"`
	PackingCharge       decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"packing_charge"`
	SubTotalWithPacking decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"sub_total_with_packing"`
	MahamaiCharge       decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"mahamai_charge"`
	TaxableValue        decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"taxable_value"`
	Cgst                decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"cgst"`
	Sgst                decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"sgst"`
	Igst                decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"igst"`
	NetAmount           decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"net_amount"`
	RoundOff            decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"round_off"`

	// LegacyDocumentText keeps the rendered bill text carried over from the
	// legacy store. Only the commission resolver's recovery path reads it.
	LegacyDocumentText string `gorm:"type:text" json:"legacy_document_text,omitempty"`

	// Cached commission record, overwritten whenever a statement is
	// generated for this invoice's agent. Never written at issue time.
	CommissionRate       *decimal.Decimal `gorm:"type:decimal(20,4);default:null" json:"commission_rate"`
	CommissionAmount     *decimal.Decimal `gorm:"type:decimal(20,4);default:null" json:"commission_amount"`
	CommissionBasis      string           `gorm:"size:30" json:"commission_basis"`
	CommissionDegraded   bool             `gorm:"default:false" json:"commission_degraded"`
	CommissionComputedAt *time.Time       `json:"commission_computed_at"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// InvoiceDetail is one persisted line row. Amount holds the undiscounted
// gross value; the row's discount is netted once at the invoice level.
type InvoiceDetail struct {
	ID              int             `gorm:"primary_key" json:"id"`
	InvoiceId       int             `gorm:"index;not null" json:"invoice_id"`
	ProductId       int             `gorm:"index" json:"product_id"`
	Name            string          `gorm:"size:100;not null" json:"name"`
	UnitType        UnitType        `gorm:"type:enum('U','N','Box');default:'U'" json:"unit_type"`
	CaseCount       int             `gorm:"not null" json:"case_count"`
	PerCase         int             `gorm:"not null" json:"per_case"`
	Per             int             `gorm:"not null;default:1" json:"per"`
	Rate            decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"rate"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount_percent"`
	Quantity        int64           `gorm:"not null;default:0" json:"quantity"`
	Amount          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewInvoice struct {
	InvoiceNumber  string             `json:"invoice_number"`
	InvoiceDate    time.Time          `json:"invoice_date" binding:"required"`
	PartyId        int                `json:"party_id" binding:"required"`
	AgentName      string             `json:"agent_name"`
	Region         Region             `json:"region" binding:"required"`
	GstPercent     decimal.Decimal    `json:"gst_percent" binding:"percent"`
	PackingPercent decimal.Decimal    `json:"packing_percent" binding:"percent"`
	Details        []NewInvoiceDetail `json:"details"`
}

type NewInvoiceDetail struct {
	ProductId       int             `json:"product_id"`
	Name            string          `json:"name" binding:"required"`
	UnitType        UnitType        `json:"unit_type"`
	CaseCount       int             `json:"case_count"`
	PerCase         int             `json:"per_case"`
	Per             int             `json:"per" binding:"required"`
	Rate            decimal.Decimal `json:"rate"`
	DiscountPercent decimal.Decimal `json:"discount_percent" binding:"percent"`
}

func (input NewInvoice) lineItems() []LineItem {
	items := make([]LineItem, 0, len(input.Details))
	for _, d := range input.Details {
		items = append(items, LineItem{
			CaseCount:       d.CaseCount,
			PerCase:         d.PerCase,
			Rate:            d.Rate,
			Per:             d.Per,
			UnitType:        d.UnitType,
			DiscountPercent: d.DiscountPercent,
		})
	}
	return items
}

func (input NewInvoice) validate(ctx context.Context) error {
	if !input.Region.Valid() {
		return ErrInvalidParameter
	}
	for _, d := range input.Details {
		if d.UnitType != "" && !d.UnitType.Valid() {
			return ErrInvalidParameter
		}
	}
	if err := utils.ValidateResourceId[Party](ctx, input.PartyId); err != nil {
		return err
	}
	return nil
}

// buildDetails valuates every input row. Each row's persisted amount is the
// gross amount.
func (input NewInvoice) buildDetails() ([]InvoiceDetail, error) {
	details := make([]InvoiceDetail, 0, len(input.Details))
	for _, d := range input.Details {
		item := LineItem{
			CaseCount:       d.CaseCount,
			PerCase:         d.PerCase,
			Rate:            d.Rate,
			Per:             d.Per,
			UnitType:        d.UnitType,
			DiscountPercent: d.DiscountPercent,
		}
		value, err := item.Valuate()
		if err != nil {
			return nil, err
		}
		unitType := d.UnitType
		if unitType == "" {
			unitType = UnitTypeUnit
		}
		details = append(details, InvoiceDetail{
			ProductId:       d.ProductId,
			Name:            d.Name,
			UnitType:        unitType,
			CaseCount:       d.CaseCount,
			PerCase:         d.PerCase,
			Per:             d.Per,
			Rate:            d.Rate,
			DiscountPercent: d.DiscountPercent,
			Quantity:        value.Quantity,
			Amount:          value.GrossAmount,
		})
	}
	return details, nil
}

func (inv *Invoice) applyTotals(t *InvoiceTotals) {
	goodsValue := t.GoodsValue
	specialDiscount := t.SpecialDiscount
	subTotal := t.SubTotal
	inv.GoodsValue = &goodsValue
	inv.SpecialDiscount = &specialDiscount
	inv.SubTotal = &subTotal
	inv.PackingCharge = t.PackingCharge
	inv.SubTotalWithPacking = t.SubTotalWithPacking
	inv.MahamaiCharge = t.MahamaiCharge
	inv.TaxableValue = t.TaxableValue
	inv.Cgst = t.Cgst
	inv.Sgst = t.Sgst
	inv.Igst = t.Igst
	inv.NetAmount = t.NetAmount
	inv.RoundOff = t.RoundOff
}

func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "Duplicate entry")
}

// CreateInvoice issues a new invoice for the office in context.
//
// Numbering follows compute-then-propose with commit-level verification:
// the per-office lock serializes clerks on this instance, the unique index
// on invoice_number is the final arbiter, and an auto-numbered create that
// loses the race recomputes and retries. A manually supplied number is
// checked against existing numbers and rejected with
// ErrDuplicateDocumentNumber instead of retried.
func CreateInvoice(ctx context.Context, input *NewInvoice) (*Invoice, error) {
	db := config.GetDB()

	officeCode, ok := utils.GetOfficeCodeFromContext(ctx)
	if !ok || officeCode == "" {
		return nil, errors.New("office code is required")
	}
	if _, ok := OfficeByCode(officeCode); !ok {
		return nil, ErrInvalidParameter
	}

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	details, err := input.buildDetails()
	if err != nil {
		return nil, err
	}
	totals, err := AggregateInvoiceTotals(input.lineItems(), input.Region, input.GstPercent, input.PackingPercent)
	if err != nil {
		return nil, err
	}

	// Serialize the read-max/commit window per office. Redis being down only
	// loses this serialization; the unique index still prevents duplicates.
	if locker := config.GetRedisLock(); locker != nil {
		lock, lockErr := locker.Obtain(ctx, "invoice_seq:"+officeCode, 30*time.Second, nil)
		if lockErr == nil {
			defer lock.Release(context.Background())
		}
	}

	clerkName, _ := utils.GetClerkNameFromContext(ctx)

	manual := strings.TrimSpace(input.InvoiceNumber)

	var tx *gorm.DB
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				_ = tx.Rollback().Error
			}
			panic(r)
		}
	}()

	const maxAttempts = 3
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		existing, err := ExistingInvoiceNumbers(ctx, officeCode)
		if err != nil {
			return nil, err
		}

		number := manual
		if manual != "" {
			for _, n := range existing {
				if n == manual {
					return nil, ErrDuplicateDocumentNumber
				}
			}
		} else {
			number = NextInvoiceNumber(officeCode, existing)
		}

		invoice := Invoice{
			OfficeCode:     officeCode,
			InvoiceNumber:  number,
			InvoiceDate:    input.InvoiceDate,
			PartyId:        input.PartyId,
			AgentName:      input.AgentName,
			IssuedBy:       clerkName,
			Region:         input.Region,
			GstPercent:     input.GstPercent,
			PackingPercent: input.PackingPercent,
			Details:        details,
		}
		invoice.applyTotals(totals)

		tx = db.Begin()
		if err := tx.WithContext(ctx).Create(&invoice).Error; err != nil {
			tx.Rollback()
			if isDuplicateKeyError(err) {
				if manual != "" {
					return nil, ErrDuplicateDocumentNumber
				}
				// lost the race to another issuer, recompute and retry
				continue
			}
			return nil, err
		}
		if err := tx.Commit().Error; err != nil {
			return nil, err
		}
		return &invoice, nil
	}
	return nil, ErrDuplicateDocumentNumber
}

// UpdateInvoice is the explicit edit flow: details are replaced wholesale
// and every derived total is recomputed from the modified line items inside
// one transaction. Totals are never partially updated.
func UpdateInvoice(ctx context.Context, invoiceId int, input *NewInvoice) (*Invoice, error) {
	db := config.GetDB()

	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	var invoice Invoice
	if err := db.WithContext(ctx).Preload("Details").First(&invoice, invoiceId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}

	details, err := input.buildDetails()
	if err != nil {
		return nil, err
	}
	totals, err := AggregateInvoiceTotals(input.lineItems(), input.Region, input.GstPercent, input.PackingPercent)
	if err != nil {
		return nil, err
	}

	// The invoice number is assigned at issue time and not editable here;
	// renumbering goes through the void-and-reissue flow at the UI layer.
	invoice.InvoiceDate = input.InvoiceDate
	invoice.PartyId = input.PartyId
	invoice.AgentName = input.AgentName
	invoice.Region = input.Region
	invoice.GstPercent = input.GstPercent
	invoice.PackingPercent = input.PackingPercent
	invoice.applyTotals(totals)

	tx := db.Begin()
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()

	if err := tx.WithContext(ctx).Where("invoice_id = ?", invoice.ID).Delete(&InvoiceDetail{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	for i := range details {
		details[i].InvoiceId = invoice.ID
	}
	if len(details) > 0 {
		if err := tx.WithContext(ctx).Create(&details).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	invoice.Details = details

	if err := tx.WithContext(ctx).Omit("Details").Save(&invoice).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func GetInvoice(ctx context.Context, invoiceId int) (*Invoice, error) {
	db := config.GetDB()
	var invoice Invoice
	err := db.WithContext(ctx).Preload("Details").First(&invoice, invoiceId).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// GetInvoices lists invoices for an office, optionally bounded by dates.
func GetInvoices(ctx context.Context, officeCode string, from, to time.Time) ([]*Invoice, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("office_code = ?", officeCode)
	if !from.IsZero() {
		dbCtx = dbCtx.Where("invoice_date >= ?", from)
	}
	if !to.IsZero() {
		dbCtx = dbCtx.Where("invoice_date <= ?", to)
	}
	var invoices []*Invoice
	if err := dbCtx.Preload("Details").Order("invoice_date, id").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}
