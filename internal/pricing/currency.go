package pricing

import (
	"regexp"
	"strings"
)

// CurrencyValidator reports whether a shape-valid, upper-cased 3-letter code
// is a known currency. Implementations must be safe for concurrent use.
type CurrencyValidator interface {
	Known(code string) bool
}

// ISO4217 validates codes against the built-in table of active ISO 4217
// currencies. This is the default validator.
var ISO4217 CurrencyValidator = tableValidator{}

// Permissive accepts every shape-valid code. It is the degraded capability
// for environments where the built-in table is considered stale: it trades
// precision (unknown codes pass) for guaranteed availability.
var Permissive CurrencyValidator = permissiveValidator{}

type tableValidator struct{}

func (tableValidator) Known(code string) bool {
	_, ok := iso4217Codes[code]
	return ok
}

type permissiveValidator struct{}

func (permissiveValidator) Known(string) bool { return true }

// currencyShape is the AAA form every code must satisfy before the validator
// is consulted.
var currencyShape = regexp.MustCompile(`^[A-Z]{3}$`)

// normalizeCurrency validates cur as an ISO 4217 code, auto-uppercasing the
// input. A nil cur selects the default (also validated, with a distinct error
// note so misconfiguration is tellable from caller error). Returns the
// upper-cased code and an error note; the note is empty when the code is
// valid. Invalid codes never reach the fetch stage.
func normalizeCurrency(cur *string, def string, v CurrencyValidator) (string, string) {
	if cur == nil {
		c := strings.ToUpper(strings.TrimSpace(def))
		if !validCurrency(c, v) {
			return c, NoteInvalidDefaultCurrency
		}
		return c, ""
	}
	c := strings.ToUpper(strings.TrimSpace(*cur))
	if !validCurrency(c, v) {
		return c, NoteInvalidCurrency
	}
	return c, ""
}

func validCurrency(code string, v CurrencyValidator) bool {
	return currencyShape.MatchString(code) && v.Known(code)
}

// iso4217Codes is the active ISO 4217 alpha-3 code set. Lookup is O(1), so
// no memoization layer is needed in front of it.
var iso4217Codes = map[string]struct{}{
	"AED": {}, "AFN": {}, "ALL": {}, "AMD": {}, "ANG": {}, "AOA": {}, "ARS": {},
	"AUD": {}, "AWG": {}, "AZN": {}, "BAM": {}, "BBD": {}, "BDT": {}, "BGN": {},
	"BHD": {}, "BIF": {}, "BMD": {}, "BND": {}, "BOB": {}, "BRL": {}, "BSD": {},
	"BTN": {}, "BWP": {}, "BYN": {}, "BZD": {}, "CAD": {}, "CDF": {}, "CHF": {},
	"CLP": {}, "CNY": {}, "COP": {}, "CRC": {}, "CUP": {}, "CVE": {}, "CZK": {},
	"DJF": {}, "DKK": {}, "DOP": {}, "DZD": {}, "EGP": {}, "ERN": {}, "ETB": {},
	"EUR": {}, "FJD": {}, "FKP": {}, "GBP": {}, "GEL": {}, "GHS": {}, "GIP": {},
	"GMD": {}, "GNF": {}, "GTQ": {}, "GYD": {}, "HKD": {}, "HNL": {}, "HTG": {},
	"HUF": {}, "IDR": {}, "ILS": {}, "INR": {}, "IQD": {}, "IRR": {}, "ISK": {},
	"JMD": {}, "JOD": {}, "JPY": {}, "KES": {}, "KGS": {}, "KHR": {}, "KMF": {},
	"KPW": {}, "KRW": {}, "KWD": {}, "KYD": {}, "KZT": {}, "LAK": {}, "LBP": {},
	"LKR": {}, "LRD": {}, "LSL": {}, "LYD": {}, "MAD": {}, "MDL": {}, "MGA": {},
	"MKD": {}, "MMK": {}, "MNT": {}, "MOP": {}, "MRU": {}, "MUR": {}, "MVR": {},
	"MWK": {}, "MXN": {}, "MYR": {}, "MZN": {}, "NAD": {}, "NGN": {}, "NIO": {},
	"NOK": {}, "NPR": {}, "NZD": {}, "OMR": {}, "PAB": {}, "PEN": {}, "PGK": {},
	"PHP": {}, "PKR": {}, "PLN": {}, "PYG": {}, "QAR": {}, "RON": {}, "RSD": {},
	"RUB": {}, "RWF": {}, "SAR": {}, "SBD": {}, "SCR": {}, "SDG": {}, "SEK": {},
	"SGD": {}, "SHP": {}, "SLE": {}, "SOS": {}, "SRD": {}, "SSP": {}, "STN": {},
	"SVC": {}, "SYP": {}, "SZL": {}, "THB": {}, "TJS": {}, "TMT": {}, "TND": {},
	"TOP": {}, "TRY": {}, "TTD": {}, "TWD": {}, "TZS": {}, "UAH": {}, "UGX": {},
	"USD": {}, "UYU": {}, "UZS": {}, "VES": {}, "VND": {}, "VUV": {}, "WST": {},
	"XAF": {}, "XCD": {}, "XOF": {}, "XPF": {}, "YER": {}, "ZAR": {}, "ZMW": {},
	"ZWG": {},
}
