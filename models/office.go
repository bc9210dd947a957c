package models

// Office is one of the fixed legal billing entities. Each carries its own
// invoice-number prefix and tax registration.
type Office struct {
	Code        string `json:"code"`
	Prefix      string `json:"prefix"`
	DisplayName string `json:"display_name"`
}

// Offices is a closed table. Adding a fourth office means extending this
// list, never inferring codes or prefixes from data.
var Offices = []Office{
	{Code: "officeA", Prefix: "AP", DisplayName: "Aagam Pyro Traders"},
	{Code: "officeB", Prefix: "AFI", DisplayName: "Aagam Fireworks Industries"},
	{Code: "officeC", Prefix: "AFF", DisplayName: "Aagam Festival Fireworks"},
}

func OfficeByCode(code string) (Office, bool) {
	for _, o := range Offices {
		if o.Code == code {
			return o, true
		}
	}
	return Office{}, false
}

// PrefixForOffice resolves the invoice-number prefix for an office code.
// An unrecognized code falls back to the first office's prefix. Callers that
// can reject bad input should do so before reaching this point; the fallback
// exists so historical scans never abort mid-run.
func PrefixForOffice(code string) string {
	if o, ok := OfficeByCode(code); ok {
		return o.Prefix
	}
	return Offices[0].Prefix
}
