package catalog_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/opentariff/ocipricer/internal/catalog"
)

func newTestClient(t *testing.T, srv *httptest.Server, opts ...catalog.Option) *catalog.Client {
	t.Helper()
	opts = append([]catalog.Option{catalog.WithBackoff(time.Millisecond)}, opts...)
	c, err := catalog.New(srv.URL+"/products/", opts...)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	return c
}

func TestNew_RejectsRelativeEndpoint(t *testing.T) {
	t.Parallel()
	if _, err := catalog.New("/products/"); err == nil {
		t.Fatal("expected error for relative endpoint, got nil")
	}
}

func TestSession_Fetch_RetriesServerErrors(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"items":[{"partNumber":"B88317"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, catalog.WithRetries(2))
	s := c.NewSession()
	defer s.Close()

	page, err := s.Fetch(context.Background(), c.Endpoint(), nil)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("upstream saw %d requests, want 3", got)
	}
	if len(page.Items) != 1 || page.Items[0].PartNumber != "B88317" {
		t.Errorf("unexpected page: %+v", page)
	}
}

func TestSession_Fetch_ExhaustsRetries(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, catalog.WithRetries(2))
	s := c.NewSession()
	defer s.Close()

	_, err := s.Fetch(context.Background(), c.Endpoint(), nil)
	if err == nil {
		t.Fatal("expected error after exhausting retries, got nil")
	}
	var se *catalog.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusInternalServerError {
		t.Errorf("error = %v, want StatusError 500", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("upstream saw %d requests, want 3", got)
	}
}

func TestSession_Fetch_ClientErrorIsNotRetried(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, catalog.WithRetries(5))
	s := c.NewSession()
	defer s.Close()

	_, err := s.Fetch(context.Background(), c.Endpoint(), nil)
	var se *catalog.StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusNotFound {
		t.Fatalf("error = %v, want StatusError 404", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("upstream saw %d requests, want 1", got)
	}
}

func TestSession_Fetch_MalformedBodyIsEmptyPage(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	s := c.NewSession()
	defer s.Close()

	page, err := s.Fetch(context.Background(), c.Endpoint(), nil)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(page.Items) != 0 {
		t.Errorf("got %d items, want 0", len(page.Items))
	}
}

func TestSession_BySKU_SendsPartNumberAndCurrency(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("partNumber") != "B93113" || q.Get("currencyCode") != "JPY" {
			t.Errorf("query = %v, want partNumber=B93113 currencyCode=JPY", q)
		}
		w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	s := c.NewSession()
	defer s.Close()

	if _, err := s.BySKU(context.Background(), "B93113", "JPY"); err != nil {
		t.Fatalf("by sku: %v", err)
	}
}

func TestSession_Items_FollowsRelativeNextLinks(t *testing.T) {
	t.Parallel()
	var mux http.ServeMux
	srv := httptest.NewServer(&mux)
	defer srv.Close()

	mux.HandleFunc("/products/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"items":[{"partNumber":"B1"},{"partNumber":"B2"}],
			"links":[{"rel":"next","href":"/products/page2"}]
		}`))
	})
	mux.HandleFunc("/products/page2", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("currencyCode") != "" {
			t.Error("follow-up page request should not repeat query params")
		}
		w.Write([]byte(`{"items":[{"partNumber":"B3"}]}`))
	})

	c := newTestClient(t, srv)
	s := c.NewSession()
	defer s.Close()

	var got []string
	for it, err := range s.Items(context.Background(), "USD", 5) {
		if err != nil {
			t.Fatalf("items: %v", err)
		}
		got = append(got, it.PartNumber)
	}
	want := []string{"B1", "B2", "B3"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("item %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSession_Items_StopsAtMaxPages(t *testing.T) {
	t.Parallel()
	var pages atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pages.Add(1)
		// Every page points at another one; only maxPages bounds the walk.
		w.Write([]byte(`{"items":[{"partNumber":"B1"}],"links":[{"rel":"next","href":"/products/"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	s := c.NewSession()
	defer s.Close()

	var n int
	for _, err := range s.Items(context.Background(), "USD", 3) {
		if err != nil {
			t.Fatalf("items: %v", err)
		}
		n++
	}
	if n != 3 {
		t.Errorf("yielded %d items, want 3", n)
	}
	if got := pages.Load(); got != 3 {
		t.Errorf("upstream saw %d page requests, want 3", got)
	}
}

func TestSession_Items_YieldsFetchError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	s := c.NewSession()
	defer s.Close()

	var sawErr bool
	for _, err := range s.Items(context.Background(), "USD", 2) {
		if err != nil {
			sawErr = true
		}
	}
	if !sawErr {
		t.Fatal("expected an error from the iterator, got none")
	}
}
