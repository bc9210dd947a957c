package reports

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aagamsoft/billing_backend/config"
	"github.com/aagamsoft/billing_backend/models"
	"github.com/aagamsoft/billing_backend/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

// CommissionStatementRow is one invoice's resolved commission on an agent
// statement.
type CommissionStatementRow struct {
	InvoiceId     int             `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	InvoiceDate   time.Time       `json:"invoice_date"`
	OfficeCode    string          `json:"office_code"`
	SubTotal      decimal.Decimal `json:"sub_total"`
	Rate          decimal.Decimal `json:"rate"`
	Amount        decimal.Decimal `json:"amount"`
	BasisDegraded bool            `json:"basis_degraded"`
}

type CommissionStatement struct {
	RunId         string                   `json:"run_id"`
	AgentName     string                   `json:"agent_name"`
	Rate          decimal.Decimal          `json:"rate"`
	From          time.Time                `json:"from"`
	To            time.Time                `json:"to"`
	Rows          []CommissionStatementRow `json:"rows"`
	TotalAmount   decimal.Decimal          `json:"total_amount"`
	DegradedCount int                      `json:"degraded_count"`
	GeneratedAt   time.Time                `json:"generated_at"`
}

// GenerateCommissionStatement resolves (and caches) the commission for every
// invoice of an agent in the date range. Invoices whose basis degraded to
// zero are counted and logged so the operator sees them instead of a
// silently short statement.
func GenerateCommissionStatement(ctx context.Context, agentName string, rate decimal.Decimal, from, to time.Time) (*CommissionStatement, error) {
	if agentName == "" {
		return nil, fmt.Errorf("agent name is required")
	}
	if rate.IsNegative() {
		return nil, models.ErrInvalidParameter
	}

	db := config.GetDB()
	logger := config.GetLogger()

	dbCtx := db.WithContext(ctx).Where("agent_name = ?", agentName)
	if !from.IsZero() {
		dbCtx = dbCtx.Where("invoice_date >= ?", from)
	}
	if !to.IsZero() {
		dbCtx = dbCtx.Where("invoice_date <= ?", to)
	}
	var invoices []*models.Invoice
	if err := dbCtx.Order("invoice_date, id").Find(&invoices).Error; err != nil {
		return nil, err
	}

	statement := &CommissionStatement{
		RunId:       uuid.NewString(),
		AgentName:   agentName,
		Rate:        rate,
		From:        from,
		To:          to,
		Rows:        make([]CommissionStatementRow, 0, len(invoices)),
		TotalAmount: decimal.Zero,
		GeneratedAt: time.Now(),
	}

	for _, invoice := range invoices {
		record, err := models.ResolveAndCacheCommission(ctx, invoice.ID, rate)
		if err != nil {
			return nil, err
		}
		subTotal, _, stErr := models.RecoverSubTotal(invoice)
		if stErr != nil {
			subTotal = decimal.Zero
		}
		if record.BasisDegraded {
			statement.DegradedCount++
			logger.WithFields(logrus.Fields{
				"module":         "reports",
				"funcName":       "GenerateCommissionStatement",
				"invoice_number": invoice.InvoiceNumber,
				"agent_name":     agentName,
			}).Warn(models.ErrSubTotalUnavailable.Error())
		}
		statement.Rows = append(statement.Rows, CommissionStatementRow{
			InvoiceId:     invoice.ID,
			InvoiceNumber: invoice.InvoiceNumber,
			InvoiceDate:   invoice.InvoiceDate,
			OfficeCode:    invoice.OfficeCode,
			SubTotal:      subTotal,
			Rate:          record.Rate,
			Amount:        record.Amount,
			BasisDegraded: record.BasisDegraded,
		})
		statement.TotalAmount = statement.TotalAmount.Add(record.Amount)
	}

	return statement, nil
}

// ExportCommissionStatementExcel writes the statement as an xlsx workbook.
func ExportCommissionStatementExcel(statement *CommissionStatement, w io.Writer) error {
	f := excelize.NewFile()
	sheet := "Sheet1"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	f.SetCellValue(sheet, "A1", "InvoiceNumber")
	f.SetCellValue(sheet, "B1", "InvoiceDate")
	f.SetCellValue(sheet, "C1", "Office")
	f.SetCellValue(sheet, "D1", "SubTotal")
	f.SetCellValue(sheet, "E1", "Rate")
	f.SetCellValue(sheet, "F1", "Commission")
	f.SetCellValue(sheet, "G1", "Remark")

	for i, row := range statement.Rows {
		r := i + 2
		remark := ""
		if row.BasisDegraded {
			remark = "sub total unavailable, commission zero"
		}
		f.SetCellValue(sheet, "A"+fmt.Sprint(r), row.InvoiceNumber)
		f.SetCellValue(sheet, "B"+fmt.Sprint(r), utils.MyDateString(row.InvoiceDate))
		f.SetCellValue(sheet, "C"+fmt.Sprint(r), row.OfficeCode)
		f.SetCellValue(sheet, "D"+fmt.Sprint(r), row.SubTotal.StringFixed(2))
		f.SetCellValue(sheet, "E"+fmt.Sprint(r), row.Rate.String())
		f.SetCellValue(sheet, "F"+fmt.Sprint(r), row.Amount.StringFixed(2))
		f.SetCellValue(sheet, "G"+fmt.Sprint(r), remark)
	}

	totalRow := len(statement.Rows) + 3
	f.SetCellValue(sheet, "E"+fmt.Sprint(totalRow), "Total")
	f.SetCellValue(sheet, "F"+fmt.Sprint(totalRow), statement.TotalAmount.StringFixed(2))

	return f.Write(w)
}
