package models_test

import (
	"testing"

	"github.com/aagamsoft/billing_backend/models"
)

func TestNextInvoiceNumber(t *testing.T) {
	cases := []struct {
		name     string
		office   string
		existing []string
		want     string
	}{
		{"gap before max", "officeA", []string{"AP001", "AP002", "AP005"}, "AP006"},
		{"no existing numbers", "officeA", nil, "AP001"},
		{"no existing numbers office B", "officeB", nil, "AFI001"},
		{"no existing numbers office C", "officeC", nil, "AFF001"},
		{"unparsable suffix skipped", "officeA", []string{"APX", "AP003"}, "AP004"},
		{"only unparsable suffixes", "officeA", []string{"APX", "AP"}, "AP001"},
		{"trailing underscore segment ignored", "officeA", []string{"AP007_A", "AP002"}, "AP008"},
		{"other office numbers ignored", "officeA", []string{"AFI009", "AFF011", "AP004"}, "AP005"},
		{"grows past three digits", "officeA", []string{"AP999"}, "AP1000"},
		{"unknown office falls back to first prefix", "officeX", []string{"AP010"}, "AP011"},
	}
	for _, tc := range cases {
		got := models.NextInvoiceNumber(tc.office, tc.existing)
		if got != tc.want {
			t.Errorf("%s: NextInvoiceNumber(%s, %v) = %s, want %s", tc.name, tc.office, tc.existing, got, tc.want)
		}
	}
}

func TestFormatInvoiceNumberZeroPads(t *testing.T) {
	if got := models.FormatInvoiceNumber("AP", 14); got != "AP014" {
		t.Errorf("FormatInvoiceNumber = %s, want AP014", got)
	}
	if got := models.FormatInvoiceNumber("AFI", 7); got != "AFI007" {
		t.Errorf("FormatInvoiceNumber = %s, want AFI007", got)
	}
}

func TestOfficeTableIsClosed(t *testing.T) {
	if len(models.Offices) != 3 {
		t.Fatalf("office table has %d entries, want 3", len(models.Offices))
	}
	wantPrefixes := map[string]string{"officeA": "AP", "officeB": "AFI", "officeC": "AFF"}
	for code, prefix := range wantPrefixes {
		office, ok := models.OfficeByCode(code)
		if !ok {
			t.Fatalf("office %s missing", code)
		}
		if office.Prefix != prefix {
			t.Errorf("office %s prefix = %s, want %s", code, office.Prefix, prefix)
		}
	}
	if _, ok := models.OfficeByCode("officeX"); ok {
		t.Error("unknown office code resolved, table should be closed")
	}
	if got := models.PrefixForOffice("officeX"); got != "AP" {
		t.Errorf("PrefixForOffice(officeX) = %s, want fallback AP", got)
	}
}
