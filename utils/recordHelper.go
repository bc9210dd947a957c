package utils

import (
	"regexp"
	"strconv"
	"strings"
)

// Legacy bill/party/product records were persisted with inconsistent key
// spellings ("Customer Name", "customer_name", "PARTY NAME", ...). This file
// maps any accepted alias to one canonical field name before a record reaches
// the computation layer. Alias knowledge lives here only, never inside the
// financial logic.

const UnknownKey = "UNKNOWN_KEY"

var invalidKeyChars = regexp.MustCompile(`[^A-Za-z0-9_]`)

// SanitizeKey normalizes a raw persisted key into a storage-safe form:
// quotes removed, slashes/spaces/backslashes become underscores, every other
// special character is dropped.
func SanitizeKey(key string) string {
	key = strings.TrimSpace(key)

	key = strings.ReplaceAll(key, `"`, "")
	key = strings.ReplaceAll(key, "/", "_")
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, `\`, "_")

	key = invalidKeyChars.ReplaceAllString(key, "")

	if key == "" {
		key = UnknownKey
	}
	return key
}

// canonical field names for invoice counterparty data
const (
	FieldPartyName    = "party_name"
	FieldPartyAddress = "party_address"
	FieldPartyGstin   = "party_gstin"
	FieldAgentName    = "agent_name"
	FieldSubTotal     = "sub_total"
)

// alias -> canonical, keyed by the sanitized + lowercased spelling.
var canonicalFieldAliases = map[string]string{
	"party_name":       FieldPartyName,
	"partyname":        FieldPartyName,
	"customer_name":    FieldPartyName,
	"customername":     FieldPartyName,
	"name":             FieldPartyName,
	"party_address":    FieldPartyAddress,
	"address":          FieldPartyAddress,
	"customer_address": FieldPartyAddress,
	"party_gstin":      FieldPartyGstin,
	"gstin":            FieldPartyGstin,
	"gst_no":           FieldPartyGstin,
	"gstno":            FieldPartyGstin,
	"tax_id":           FieldPartyGstin,
	"agent":            FieldAgentName,
	"agent_name":       FieldAgentName,
	"agentname":        FieldAgentName,
	"sub_total":        FieldSubTotal,
	"subtotal":         FieldSubTotal,
	"sub_tot":          FieldSubTotal,
}

// CanonicalFieldKey sanitizes a raw key and resolves known aliases. Keys with
// no known alias keep their sanitized spelling.
func CanonicalFieldKey(key string) string {
	sanitized := SanitizeKey(key)
	if canonical, ok := canonicalFieldAliases[strings.ToLower(sanitized)]; ok {
		return canonical
	}
	return sanitized
}

// NormalizeRecord rewrites every key of a decoded legacy record (and nested
// records) to its canonical form. Arrays with nil holes, a leftover of the
// legacy store, are compacted into index-keyed maps.
func NormalizeRecord(data any) any {
	switch v := data.(type) {
	case []any:
		result := make(map[string]any)
		idx := 0
		for _, item := range v {
			if item == nil {
				idx++
				continue
			}
			result[strconv.Itoa(idx)] = NormalizeRecord(item)
			idx++
		}
		return result
	case map[string]any:
		result := make(map[string]any, len(v))
		for k, val := range v {
			result[CanonicalFieldKey(k)] = NormalizeRecord(val)
		}
		return result
	case string:
		return strings.ReplaceAll(v, `\`, "/")
	default:
		return data
	}
}
