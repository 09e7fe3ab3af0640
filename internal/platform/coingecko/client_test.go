package coingecko

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mtarnawa/dexpulse/internal/domain"
)

func TestGetTokenPrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/simple/token_price/ethereum" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("contract_addresses") != "0xaaa,0xbbb" {
			t.Errorf("contract_addresses = %q", q.Get("contract_addresses"))
		}
		if q.Get("vs_currencies") != "usd" {
			t.Errorf("vs_currencies = %q", q.Get("vs_currencies"))
		}
		// Provider answers only for the tokens it knows, in whatever case.
		w.Write([]byte(`{"0xAAA":{"usd":2.0}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 5*time.Second)
	prices, err := c.GetTokenPrices(context.Background(), "ethereum", []string{"0xaaa", "0xbbb"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prices) != 1 {
		t.Fatalf("prices = %v, want one entry", prices)
	}
	if prices["0xaaa"] != 2.0 {
		t.Errorf("price keyed by lowercase address = %v", prices)
	}
}

func TestGetTokenPricesEmptyBatch(t *testing.T) {
	c := NewClient("http://unused.invalid", "", time.Second)
	prices, err := c.GetTokenPrices(context.Background(), "ethereum", nil)
	if err != nil {
		t.Fatalf("empty batch must not call upstream: %v", err)
	}
	if len(prices) != 0 {
		t.Errorf("prices = %v, want empty", prices)
	}
}

func TestGetTokenPricesUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "throttled", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 5*time.Second)
	_, err := c.GetTokenPrices(context.Background(), "ethereum", []string{"0xaaa"})
	var ue *domain.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("err = %v, want *domain.UpstreamError", err)
	}
	if ue.Provider != "coingecko" {
		t.Errorf("provider = %q", ue.Provider)
	}
}
