// One-shot backfill: recovers the missing sub_total on legacy invoices so
// commission statements stop hitting the fallback chain at read time.
//
// Dry run by default; pass -apply to write.
package main

import (
	"flag"

	"github.com/aagamsoft/billing_backend/config"
	"github.com/aagamsoft/billing_backend/models"
	"github.com/sirupsen/logrus"
)

func main() {
	apply := flag.Bool("apply", false, "write recovered sub totals (default: dry run)")
	flag.Parse()

	logger := config.GetLogger()
	logger.SetLevel(logrus.InfoLevel)

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()

	var invoices []*models.Invoice
	if err := db.Where("sub_total IS NULL").Find(&invoices).Error; err != nil {
		logger.Fatal(err.Error())
	}

	recovered, unrecoverable := 0, 0
	for _, invoice := range invoices {
		subTotal, _, err := models.RecoverSubTotal(invoice)
		if err != nil {
			unrecoverable++
			logger.WithFields(logrus.Fields{
				"invoice_number": invoice.InvoiceNumber,
				"office_code":    invoice.OfficeCode,
			}).Warn("no recoverable sub total")
			continue
		}
		recovered++
		if !*apply {
			continue
		}
		if err := db.Model(&models.Invoice{}).Where("id = ?", invoice.ID).
			Update("sub_total", subTotal).Error; err != nil {
			logger.Fatal(err.Error())
		}
	}

	logger.WithFields(logrus.Fields{
		"scanned":       len(invoices),
		"recovered":     recovered,
		"unrecoverable": unrecoverable,
		"applied":       *apply,
	}).Info("sub total backfill finished")
}
