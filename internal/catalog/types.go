package catalog

import (
	"encoding/json"
	"strconv"
	"strings"
)

// PriceEntry is one (pricing model, value) pair inside a price block.
//
// Both fields are pointers because the public price list omits or nulls them
// for products without a published unit price. Value additionally tolerates
// string-encoded numbers; anything non-numeric decodes to nil rather than
// failing the whole page.
type PriceEntry struct {
	Model *string
	Value *float64
}

// UnmarshalJSON decodes a price entry while absorbing malformed values.
func (p *PriceEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Model *string         `json:"model"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Model = raw.Model
	p.Value = parseValue(raw.Value)
	return nil
}

// parseValue extracts a float from a raw JSON value, accepting plain numbers
// and string-encoded numbers. Returns nil for null, absent, or unparseable
// values.
func parseValue(raw json.RawMessage) *float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return &v
		}
	}
	return nil
}

// PriceBlock is a currency-scoped list of price entries attached to an item.
type PriceBlock struct {
	CurrencyCode string       `json:"currencyCode"`
	Prices       []PriceEntry `json:"prices"`
}

// Item is one priced product record as returned by the upstream price list.
type Item struct {
	PartNumber      string `json:"partNumber"`
	DisplayName     string `json:"displayName"`
	MetricName      string `json:"metricName"`
	ServiceCategory string `json:"serviceCategory"`

	// The upstream exposes price blocks under two differently named
	// collections depending on the endpoint variant. Use [Item.PriceBlocks]
	// to read them; downstream code must never touch these directly.
	Prices        []PriceBlock `json:"prices"`
	Localizations []PriceBlock `json:"currencyCodeLocalizations"`
}

// PriceBlocks merges both upstream price-block collections into a single
// ordered list. This is the only seam where the schema variance is visible.
func (it *Item) PriceBlocks() []PriceBlock {
	if len(it.Localizations) == 0 {
		return it.Prices
	}
	blocks := make([]PriceBlock, 0, len(it.Prices)+len(it.Localizations))
	blocks = append(blocks, it.Prices...)
	blocks = append(blocks, it.Localizations...)
	return blocks
}

// CombinedText concatenates the item's searchable fields in a fixed order.
// The fuzzy matcher normalizes this string the same way it normalizes
// queries, keeping matching symmetric.
func (it *Item) CombinedText() string {
	return strings.Join([]string{
		it.DisplayName, it.ServiceCategory, it.MetricName, it.PartNumber,
	}, " ")
}

// Link is one entry of the upstream response's links array.
type Link struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

// Page is one page of the upstream price-list response.
type Page struct {
	Items []Item `json:"items"`
	Links []Link `json:"links"`
}

// NextHref returns the href of the rel=="next" link, or "" when this is the
// last page. The href may be relative; the client prefixes the endpoint
// origin in that case.
func (p *Page) NextHref() string {
	for _, lk := range p.Links {
		if lk.Rel == "next" && lk.Href != "" {
			return lk.Href
		}
	}
	return ""
}
