package pricing

import (
	"fmt"

	"github.com/opentariff/ocipricer/internal/catalog"
)

// Notes attached to simplified items or error results. The upstream catalogue
// is a public subset, so a missing or zero price is an annotation, never an
// error.
const (
	NoteNoUnitPrice            = "no-unit-price-in-public-subset-or-currency"
	NoteZeroPrice              = "zero-price-or-free-tier-only"
	NoteZeroSeeAlt             = "zero-in-requested-currency-see-alt"
	NoteMatchedByName          = "matched-by-name"
	NoteNotFound               = "not-found"
	NoteHTTPError              = "http-error"
	NoteEmptyPartNumber        = "empty-part-number"
	NoteEmptyQuery             = "empty-query"
	NoteInvalidCurrency        = "invalid-currency-format"
	NoteInvalidDefaultCurrency = "invalid-default-currency"
)

// Simplified is the client-facing shape of one catalogue item: identity
// fields plus a single resolved (currency, model, value) triple. Model and
// Value are null when the public subset has no unit price to offer. Alt*
// fields carry an optional reference price in an alternate currency.
// Constructed fresh per response, immutable once built.
type Simplified struct {
	PartNumber      string   `json:"partNumber"`
	DisplayName     string   `json:"displayName"`
	MetricName      string   `json:"metricName"`
	ServiceCategory string   `json:"serviceCategory"`
	CurrencyCode    string   `json:"currencyCode"`
	Model           *string  `json:"model"`
	Value           *float64 `json:"value"`
	Note            string   `json:"note,omitempty"`
	AltCurrencyCode string   `json:"altCurrencyCode,omitempty"`
	AltModel        *string  `json:"altModel,omitempty"`
	AltValue        *float64 `json:"altValue,omitempty"`
}

// key returns a comparable identity for de-duplication.
func (s Simplified) key() string {
	model, value := "-", "-"
	if s.Model != nil {
		model = *s.Model
	}
	if s.Value != nil {
		value = fmt.Sprintf("%g", *s.Value)
	}
	return s.PartNumber + "\x00" + s.DisplayName + "\x00" + s.MetricName + "\x00" +
		s.ServiceCategory + "\x00" + s.CurrencyCode + "\x00" + model + "\x00" + value
}

// Simplify shapes an upstream item for clients. The price is picked from the
// preferred currency when possible; the currency code falls back to the
// preference so it is always populated. A pure function: simplifying the same
// item twice yields identical output.
func Simplify(it *catalog.Item, preferCurrency string) Simplified {
	model, value, ccy := pickPrice(it.PriceBlocks(), preferCurrency)
	if ccy == "" && preferCurrency != "" {
		ccy = preferCurrency
	}

	out := Simplified{
		PartNumber:      it.PartNumber,
		DisplayName:     it.DisplayName,
		MetricName:      it.MetricName,
		ServiceCategory: it.ServiceCategory,
		CurrencyCode:    ccy,
		Model:           model,
		Value:           value,
	}

	switch {
	case model == nil || value == nil:
		out.Note = NoteNoUnitPrice
	case *value == 0:
		out.Note = NoteZeroPrice
	}
	return out
}

// pickPrice selects one (model, value) pair from the merged price blocks.
// Blocks in the preferred currency win; otherwise the first complete pair of
// any currency is returned, which may silently be in a different currency —
// the populated currency code on the simplified item is the caller's only
// signal.
func pickPrice(blocks []catalog.PriceBlock, prefer string) (*string, *float64, string) {
	if prefer != "" {
		for _, b := range blocks {
			if b.CurrencyCode != prefer {
				continue
			}
			for _, pv := range b.Prices {
				if pv.Model != nil && pv.Value != nil {
					return pv.Model, pv.Value, b.CurrencyCode
				}
			}
		}
	}

	for _, b := range blocks {
		for _, pv := range b.Prices {
			if pv.Model != nil && pv.Value != nil {
				return pv.Model, pv.Value, b.CurrencyCode
			}
		}
	}

	return nil, nil, ""
}
