package pricing

import (
	"context"
	"iter"
	"strings"

	"github.com/opentariff/ocipricer/internal/catalog"
	"github.com/opentariff/ocipricer/internal/observe"
)

// Result kinds.
const (
	KindSKU    = "sku"
	KindSearch = "search"
	KindError  = "error"
)

// publicSubsetInfo is attached to name-fallback results as a reminder that
// the upstream catalogue is incomplete by design.
const publicSubsetInfo = "the price list is a public subset; empty items can be expected"

// searchEnrichedNote annotates name-search results whose per-item prices were
// refined through the SKU endpoint.
const searchEnrichedNote = "fuzzy search; per-item price enriched via SKU endpoint"

// Clamping bounds for caller-supplied knobs.
const (
	minPages = 1
	maxPages = 10
	minLimit = 1
	maxLimit = 20

	defaultSearchLimit = 12
)

// Result is the union of payloads a pricing operation can produce. Concrete
// types are [SKUResult], [SearchResult], and [ErrorResult]; every value is a
// plain JSON-serializable structure — errors never cross this boundary as Go
// errors.
type Result interface {
	ResultKind() string
}

// SKUResult is a direct SKU hit.
type SKUResult struct {
	Kind string `json:"kind"`
	Simplified
}

// ResultKind implements [Result].
func (r SKUResult) ResultKind() string { return r.Kind }

// SearchResult is a fuzzy-search outcome: a name search, or the name-fallback
// path of a SKU lookup.
type SearchResult struct {
	Kind     string       `json:"kind"`
	Note     string       `json:"note"`
	Query    string       `json:"query"`
	Currency string       `json:"currency"`
	Returned int          `json:"returned"`
	Items    []Simplified `json:"items"`
	Info     string       `json:"info,omitempty"`
}

// ResultKind implements [Result].
func (r SearchResult) ResultKind() string { return r.Kind }

// ErrorResult reports input-validation failures and exhausted upstream
// errors. Items is present (and empty) only where the operation would
// otherwise have produced an item list.
type ErrorResult struct {
	Kind     string       `json:"kind"`
	Note     string       `json:"note"`
	Error    string       `json:"error,omitempty"`
	Input    string       `json:"input,omitempty"`
	Currency string       `json:"currency,omitempty"`
	Items    []Simplified `json:"items,omitzero"`
}

// ResultKind implements [Result].
func (r ErrorResult) ResultKind() string { return r.Kind }

// GetSKUParams are the inputs to [Service.GetSKU]. Nil pointers select the
// service defaults; an explicit empty currency is invalid, unlike an omitted
// one.
type GetSKUParams struct {
	PartNumber string
	Currency   *string
	MaxPages   *int
}

// SearchNameParams are the inputs to [Service.SearchName].
type SearchNameParams struct {
	Query         string
	Currency      *string
	Limit         *int
	MaxPages      *int
	RequirePriced bool
}

// Service coordinates the pipeline stages behind the two public operations.
// It is stateless across calls: every operation opens its own catalogue
// session and retains nothing. Safe for concurrent use.
type Service struct {
	client          *catalog.Client
	defaultCurrency string
	altCurrency     string
	defaultMaxPages int
	validator       CurrencyValidator
	metrics         *observe.Metrics
}

// ServiceOption is a functional option for [NewService].
type ServiceOption func(*Service)

// WithDefaultCurrency sets the currency used when a caller omits one.
// Default: "USD".
func WithDefaultCurrency(ccy string) ServiceOption {
	return func(s *Service) {
		if ccy != "" {
			s.defaultCurrency = strings.ToUpper(strings.TrimSpace(ccy))
		}
	}
}

// WithAltCurrency configures the alternate reference currency attached when
// a requested-currency price is zero or missing. Empty disables enrichment.
func WithAltCurrency(ccy string) ServiceOption {
	return func(s *Service) {
		s.altCurrency = strings.ToUpper(strings.TrimSpace(ccy))
	}
}

// WithDefaultMaxPages sets the page bound used when a caller omits max_pages.
// Clamped to [1, 10]. Default: 6.
func WithDefaultMaxPages(n int) ServiceOption {
	return func(s *Service) {
		if n != 0 {
			s.defaultMaxPages = clamp(n, minPages, maxPages)
		}
	}
}

// WithCurrencyValidator swaps the ISO 4217 validator. Use [Permissive] when
// the built-in table must not be authoritative.
func WithCurrencyValidator(v CurrencyValidator) ServiceOption {
	return func(s *Service) {
		if v != nil {
			s.validator = v
		}
	}
}

// WithMetrics overrides the [observe.Metrics] instance.
func WithMetrics(m *observe.Metrics) ServiceOption {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewService creates a Service over the given catalogue client.
func NewService(client *catalog.Client, opts ...ServiceOption) *Service {
	s := &Service{
		client:          client,
		defaultCurrency: "USD",
		defaultMaxPages: 6,
		validator:       ISO4217,
		metrics:         observe.DefaultMetrics(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// DefaultCurrency returns the currency used when callers omit one.
func (s *Service) DefaultCurrency() string { return s.defaultCurrency }

// GetSKU looks up the price for one part number. The direct fetch is tried
// first; on a miss it pages through the catalogue (bounded) and falls back to
// fuzzy name matching with the part number as the query.
func (s *Service) GetSKU(ctx context.Context, p GetSKUParams) Result {
	pn := strings.TrimSpace(p.PartNumber)

	cur, curErr := normalizeCurrency(p.Currency, s.defaultCurrency, s.validator)
	if curErr != "" {
		return ErrorResult{Kind: KindError, Note: curErr, Input: deref(p.Currency)}
	}

	pages := s.clampPages(p.MaxPages)

	if pn == "" {
		return ErrorResult{Kind: KindError, Note: NoteEmptyPartNumber, Items: []Simplified{}}
	}

	sess := s.client.NewSession()
	defer sess.Close()

	// Direct SKU fetch.
	page, err := sess.BySKU(ctx, pn, cur)
	if err != nil {
		return s.httpError(ctx, err, pn, cur)
	}
	if len(page.Items) > 0 {
		out := Simplify(&page.Items[0], cur)
		if out.CurrencyCode == "" {
			out.CurrencyCode = cur
		}
		s.enrichWithAltCurrency(ctx, sess, &out, pn, cur)
		return SKUResult{Kind: KindSKU, Simplified: out}
	}

	// Fallback: bounded paging plus fuzzy name matching. Hits stay
	// lightweight here — no per-item refinement on this path.
	items, err := collect(sess.Items(ctx, cur, pages))
	if err != nil {
		return s.httpError(ctx, err, pn, cur)
	}
	hits := SearchItems(items, pn, defaultSearchLimit, cur)

	note := NoteNotFound
	if len(hits) > 0 {
		note = NoteMatchedByName
	}
	return SearchResult{
		Kind:     KindSearch,
		Note:     note,
		Query:    pn,
		Currency: cur,
		Returned: len(hits),
		Items:    hits,
		Info:     publicSubsetInfo,
	}
}

// SearchName runs the fuzzy product-name search. Each hit is re-fetched by
// part number for a currency-accurate price before being returned.
func (s *Service) SearchName(ctx context.Context, p SearchNameParams) Result {
	q := strings.TrimSpace(p.Query)
	if q == "" {
		return ErrorResult{Kind: KindError, Note: NoteEmptyQuery, Items: []Simplified{}}
	}

	cur, curErr := normalizeCurrency(p.Currency, s.defaultCurrency, s.validator)
	if curErr != "" {
		return ErrorResult{Kind: KindError, Note: curErr, Input: deref(p.Currency)}
	}

	limit := defaultSearchLimit
	if p.Limit != nil {
		limit = clamp(*p.Limit, minLimit, maxLimit)
	}
	pages := s.clampPages(p.MaxPages)

	sess := s.client.NewSession()
	defer sess.Close()

	items, err := collect(sess.Items(ctx, cur, pages))
	if err != nil {
		return s.searchHTTPError(ctx, err)
	}
	hits := SearchItems(items, q, limit, cur)

	// Second pass: per-SKU refinement in the requested currency.
	enriched := make([]Simplified, 0, len(hits))
	for _, sm := range hits {
		got := sm
		if pn := sm.PartNumber; pn != "" {
			detail, err := sess.BySKU(ctx, pn, cur)
			if err != nil {
				return s.searchHTTPError(ctx, err)
			}
			if len(detail.Items) > 0 {
				got = Simplify(&detail.Items[0], cur)
				if got.CurrencyCode == "" {
					got.CurrencyCode = cur
				}
			}
			s.enrichWithAltCurrency(ctx, sess, &got, pn, cur)
		}

		if p.RequirePriced {
			if got.Model == nil || got.Value == nil || *got.Value <= 0 {
				continue
			}
		}
		enriched = append(enriched, got)
	}

	return SearchResult{
		Kind:     KindSearch,
		Note:     searchEnrichedNote,
		Query:    q,
		Currency: cur,
		Returned: len(enriched),
		Items:    enriched,
	}
}

// enrichWithAltCurrency attaches a reference price in the configured
// alternate currency when the requested-currency price is zero or missing.
// The primary currency and value are never changed. Failures on this path
// are swallowed: the item is left exactly as it was.
func (s *Service) enrichWithAltCurrency(ctx context.Context, sess *catalog.Session, item *Simplified, partNumber, requested string) {
	if item.Value != nil && *item.Value != 0 {
		return
	}
	if s.altCurrency == "" || s.altCurrency == requested {
		return
	}

	page, err := sess.BySKU(ctx, partNumber, s.altCurrency)
	if err != nil {
		observe.Logger(ctx).Debug("alternate-currency enrichment failed",
			"part_number", partNumber, "alt_currency", s.altCurrency, "err", err)
		return
	}
	if len(page.Items) == 0 {
		return
	}

	alt := Simplify(&page.Items[0], s.altCurrency)
	if alt.Value == nil {
		return
	}

	item.AltCurrencyCode = alt.CurrencyCode
	item.AltModel = alt.Model
	item.AltValue = alt.Value
	// A zero price in the requested currency is better explained by the
	// reference price we just attached. The missing-price note stays: "no
	// unit price in this currency" remains accurate alongside alt fields.
	if item.Note == "" || item.Note == NoteZeroPrice {
		item.Note = NoteZeroSeeAlt
	}
}

// httpError shapes an exhausted upstream failure for the SKU-lookup path.
func (s *Service) httpError(ctx context.Context, err error, input, currency string) ErrorResult {
	observe.Logger(ctx).Warn("upstream fetch failed", "input", input, "currency", currency, "err", err)
	return ErrorResult{
		Kind:     KindError,
		Note:     NoteHTTPError,
		Error:    err.Error(),
		Input:    input,
		Currency: currency,
	}
}

// searchHTTPError shapes an exhausted upstream failure for the name-search
// path, which reports an empty item list instead of echoing inputs.
func (s *Service) searchHTTPError(ctx context.Context, err error) ErrorResult {
	observe.Logger(ctx).Warn("upstream fetch failed", "err", err)
	return ErrorResult{
		Kind:  KindError,
		Note:  NoteHTTPError,
		Error: err.Error(),
		Items: []Simplified{},
	}
}

func (s *Service) clampPages(p *int) int {
	if p == nil {
		return s.defaultMaxPages
	}
	return clamp(*p, minPages, maxPages)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// collect drains an item iterator into a slice, stopping at the first error.
func collect(seq iter.Seq2[catalog.Item, error]) ([]catalog.Item, error) {
	var items []catalog.Item
	for it, err := range seq {
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}
