package models

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aagamsoft/billing_backend/config"
)

// The invoice number sequence is derived, never cached: each request scans
// the authoritative set of issued numbers for the office and proposes
// max+1. Concurrent issuers are serialized by the caller (see
// CreateInvoice's per-office lock) plus the unique index on
// invoice_number as the final compare-and-commit guard.

// NextInvoiceNumber proposes the next number for an office given every
// number already issued under it. Numbers whose suffix fails to parse are
// skipped rather than failing the whole scan; a historical convention
// allows a trailing "_x" segment which is ignored for numbering.
func NextInvoiceNumber(officeCode string, existingNumbers []string) string {
	prefix := PrefixForOffice(officeCode)
	var max int64
	for _, number := range existingNumbers {
		n, ok := parseNumberSuffix(number, prefix)
		if !ok {
			continue
		}
		if n > max {
			max = n
		}
	}
	return FormatInvoiceNumber(prefix, max+1)
}

// FormatInvoiceNumber renders prefix + zero-padded 3-digit suffix, e.g. AP014.
func FormatInvoiceNumber(prefix string, n int64) string {
	return fmt.Sprintf("%s%03d", prefix, n)
}

// parseNumberSuffix extracts the numeric suffix of an invoice number:
// digits after the prefix, up to the first non-digit character.
func parseNumberSuffix(number, prefix string) (int64, bool) {
	if !strings.HasPrefix(number, prefix) {
		return 0, false
	}
	rest := number[len(prefix):]
	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	if i == 0 {
		// corrupt or legacy entry, tolerate and skip
		return 0, false
	}
	n, err := strconv.ParseInt(rest[:i], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ExistingInvoiceNumbers reads every issued number for an office.
func ExistingInvoiceNumbers(ctx context.Context, officeCode string) ([]string, error) {
	db := config.GetDB()
	var numbers []string
	err := db.WithContext(ctx).Model(&Invoice{}).
		Where("office_code = ?", officeCode).
		Pluck("invoice_number", &numbers).Error
	if err != nil {
		return nil, err
	}
	return numbers, nil
}

// ProposeNextInvoiceNumber computes the next number from the store. The
// proposal is only a proposal: committing it can still race another clerk,
// which the create flow resolves by retrying under the unique index.
func ProposeNextInvoiceNumber(ctx context.Context, officeCode string) (string, error) {
	if _, ok := OfficeByCode(officeCode); !ok {
		return "", ErrInvalidParameter
	}
	numbers, err := ExistingInvoiceNumbers(ctx, officeCode)
	if err != nil {
		return "", err
	}
	return NextInvoiceNumber(officeCode, numbers), nil
}
