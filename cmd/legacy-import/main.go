// One-shot importer for the legacy desktop tool's JSON store. Merges
// bills.json, party_data.json and product_data.json into the database,
// normalizing the historically inconsistent key spellings on the way in.
//
// Usage:
//
//	legacy-import -bills bills.json -parties party_data.json -products product_data.json
//
// Invoices that predate the sub_total field are imported with it NULL; the
// commission resolver's fallback chain (or cmd/subtotal-backfill) fills it
// in later.
package main

import (
	"encoding/json"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/aagamsoft/billing_backend/config"
	"github.com/aagamsoft/billing_backend/models"
	"github.com/aagamsoft/billing_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func loadNormalized(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}
	normalized := utils.NormalizeRecord(decoded)
	if m, ok := normalized.(map[string]any); ok {
		return m, nil
	}
	return map[string]any{}, nil
}

func firstString(rec map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := rec[key]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func firstDecimal(rec map[string]any, keys ...string) *decimal.Decimal {
	for _, key := range keys {
		v, ok := rec[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			d := decimal.NewFromFloat(n)
			return &d
		case string:
			if d, err := decimal.NewFromString(strings.ReplaceAll(n, ",", "")); err == nil {
				return &d
			}
		}
	}
	return nil
}

func firstInt(rec map[string]any, keys ...string) int {
	if d := firstDecimal(rec, keys...); d != nil {
		return int(d.IntPart())
	}
	return 0
}

func importParties(logger *logrus.Logger, records map[string]any) int {
	db := config.GetDB()
	count := 0
	for _, v := range records {
		rec, ok := v.(map[string]any)
		if !ok {
			continue
		}
		name := firstString(rec, utils.FieldPartyName)
		if name == "" {
			continue
		}
		party := models.Party{
			Name:      name,
			Address:   firstString(rec, utils.FieldPartyAddress),
			Gstin:     firstString(rec, utils.FieldPartyGstin),
			AgentName: firstString(rec, utils.FieldAgentName),
		}
		if err := db.Where("name = ?", name).FirstOrCreate(&party).Error; err != nil {
			config.LogError(logger, "legacy-import", "importParties", name, nil, err)
			continue
		}
		count++
	}
	return count
}

func importProducts(logger *logrus.Logger, records map[string]any) int {
	db := config.GetDB()
	count := 0
	for _, v := range records {
		rec, ok := v.(map[string]any)
		if !ok {
			continue
		}
		name := firstString(rec, "product_name", "item_name", utils.FieldPartyName)
		if name == "" {
			continue
		}
		per := firstInt(rec, "per")
		if per <= 0 {
			per = 1
		}
		unitType := models.UnitType(firstString(rec, "unit_type", "unit"))
		if !unitType.Valid() {
			unitType = models.UnitTypeUnit
		}
		rate := decimal.Zero
		if d := firstDecimal(rec, "rate", "price"); d != nil {
			rate = *d
		}
		product := models.Product{
			Name:     name,
			UnitType: unitType,
			Rate:     rate,
			Per:      per,
			PerCase:  firstInt(rec, "per_case", "case_qty"),
		}
		if err := db.Where("name = ?", name).FirstOrCreate(&product).Error; err != nil {
			config.LogError(logger, "legacy-import", "importProducts", name, nil, err)
			continue
		}
		count++
	}
	return count
}

func partyIdByName(name string) int {
	if name == "" {
		return 0
	}
	db := config.GetDB()
	var party models.Party
	if err := db.Where("name = ?", name).First(&party).Error; err != nil {
		return 0
	}
	return party.ID
}

func importBills(logger *logrus.Logger, records map[string]any) int {
	db := config.GetDB()
	count := 0
	for _, v := range records {
		rec, ok := v.(map[string]any)
		if !ok {
			continue
		}
		number := firstString(rec, "invoice_number", "bill_no", "billno")
		if number == "" {
			continue
		}

		region := models.Region(firstString(rec, "region"))
		if !region.Valid() {
			// Legacy records carry free-text regions; anything unrecognized
			// is imported as North, which matches how the old tool taxed it.
			region = models.RegionNorth
		}

		officeCode := firstString(rec, "office_code", "office")
		if _, ok := models.OfficeByCode(officeCode); !ok {
			officeCode = models.Offices[0].Code
		}

		invoiceDate := time.Now()
		if s := firstString(rec, "invoice_date", "bill_date", "date"); s != "" {
			if t, err := utils.ParseDate(s); err == nil && !t.IsZero() {
				invoiceDate = t
			}
		}

		invoice := models.Invoice{
			OfficeCode:         officeCode,
			InvoiceNumber:      number,
			InvoiceDate:        invoiceDate,
			PartyId:            partyIdByName(firstString(rec, utils.FieldPartyName)),
			AgentName:          firstString(rec, utils.FieldAgentName),
			Region:             region,
			GoodsValue:         firstDecimal(rec, "goods_value", "total"),
			SpecialDiscount:    firstDecimal(rec, "special_discount", "discount"),
			SubTotal:           firstDecimal(rec, utils.FieldSubTotal),
			LegacyDocumentText: firstString(rec, "document_text", "bill_text"),
		}
		if d := firstDecimal(rec, "gst_percent", "gst"); d != nil {
			invoice.GstPercent = *d
		}
		if d := firstDecimal(rec, "packing_percent", "packing"); d != nil {
			invoice.PackingPercent = *d
		}
		if d := firstDecimal(rec, "net_amount", "net"); d != nil {
			invoice.NetAmount = *d
		}

		if err := db.Where("invoice_number = ?", number).FirstOrCreate(&invoice).Error; err != nil {
			config.LogError(logger, "legacy-import", "importBills", number, nil, err)
			continue
		}
		count++
	}
	return count
}

func main() {
	billsPath := flag.String("bills", "bills.json", "path to legacy bills.json")
	partiesPath := flag.String("parties", "party_data.json", "path to legacy party_data.json")
	productsPath := flag.String("products", "product_data.json", "path to legacy product_data.json")
	flag.Parse()

	logger := config.GetLogger()
	logger.SetLevel(logrus.InfoLevel)

	config.ConnectDatabaseWithRetry()
	if err := config.GetDB().AutoMigrate(
		&models.Party{},
		&models.Product{},
		&models.Invoice{},
		&models.InvoiceDetail{},
	); err != nil {
		logger.Fatal(err.Error())
	}

	parties, err := loadNormalized(*partiesPath)
	if err != nil {
		logger.Fatal(err.Error())
	}
	products, err := loadNormalized(*productsPath)
	if err != nil {
		logger.Fatal(err.Error())
	}
	bills, err := loadNormalized(*billsPath)
	if err != nil {
		logger.Fatal(err.Error())
	}

	config.ConnectRedis()

	logger.WithFields(logrus.Fields{
		"parties":  importParties(logger, parties),
		"products": importProducts(logger, products),
		"bills":    importBills(logger, bills),
	}).Info("legacy import finished")

	if err := models.InvalidateProductDirectoryCache(); err != nil {
		logger.Warn(err.Error())
	}
}
