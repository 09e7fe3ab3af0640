package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/mtarnawa/dexpulse/internal/domain"
)

const testAddr = "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"

type fakeBalanceProvider struct {
	tokens     []domain.TokenBalance
	tokensErr  error
	native     domain.NativeBalance
	nativeErr  error
	tokenCalls int
}

func (f *fakeBalanceProvider) GetWalletTokenBalances(ctx context.Context, address, chain string) ([]domain.TokenBalance, error) {
	f.tokenCalls++
	return f.tokens, f.tokensErr
}

func (f *fakeBalanceProvider) GetWalletBalance(ctx context.Context, address, chain string) (domain.NativeBalance, error) {
	return f.native, f.nativeErr
}

type fakePriceProvider struct {
	prices map[string]float64
	err    error
	calls  int
	gotLen int
}

func (f *fakePriceProvider) GetTokenPrices(ctx context.Context, platform string, contractAddresses []string) (map[string]float64, error) {
	f.calls++
	f.gotLen = len(contractAddresses)
	return f.prices, f.err
}

type fakePriceCache struct {
	stored map[string]float64
}

func (f *fakePriceCache) SetPrices(ctx context.Context, prices map[string]float64, ts time.Time) error {
	f.stored = prices
	return nil
}

func (f *fakePriceCache) GetPrices(ctx context.Context, addresses []string) (map[string]float64, error) {
	return map[string]float64{}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func verifiedToken(addr string, raw string, decimals int, formatted float64) domain.TokenBalance {
	return domain.TokenBalance{
		ContractAddress:  addr,
		Symbol:           "TOK",
		Decimals:         decimals,
		Balance:          raw,
		BalanceFormatted: formatted,
		Verified:         true,
	}
}

func TestAnalyzeWalletTotals(t *testing.T) {
	// One verified token worth $2, native worth $50: total must be $52.
	balances := &fakeBalanceProvider{
		tokens: []domain.TokenBalance{
			verifiedToken("0xtok", "1000000000000000000", 18, 1.0),
		},
		native: domain.NativeBalance{Balance: "25000000000000000000", ValueUSD: 50.0},
	}
	prices := &fakePriceProvider{prices: map[string]float64{"0xtok": 2.0}}

	svc := NewWalletService(balances, prices, nil, discardLogger())
	p, err := svc.AnalyzeWallet(context.Background(), testAddr, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(p.TotalValueUSD-52.0) > 1e-9 {
		t.Errorf("total = %v, want 52.00", p.TotalValueUSD)
	}
	if p.TokenCount != 1 {
		t.Errorf("priced token count = %d, want 1", p.TokenCount)
	}
	if p.Tokens[0].ValueUSD == nil || *p.Tokens[0].ValueUSD != 2.0 {
		t.Errorf("token value = %v", p.Tokens[0].ValueUSD)
	}
	if p.Address != "0x742d35cc6634c0532925a3b844bc454e4438f44e" {
		t.Errorf("address not lowercase-normalized: %q", p.Address)
	}
	if p.PricesUnavailable {
		t.Error("prices were available")
	}
}

func TestAnalyzeWalletFiltersSpam(t *testing.T) {
	balances := &fakeBalanceProvider{
		tokens: []domain.TokenBalance{
			verifiedToken("0xgood", "1", 0, 1),
			{ContractAddress: "0xspam", Balance: "9", BalanceFormatted: 9, Verified: false},
		},
		native: domain.NativeBalance{Balance: "0", ValueUSD: 0},
	}
	prices := &fakePriceProvider{prices: map[string]float64{}}

	svc := NewWalletService(balances, prices, nil, discardLogger())
	p, err := svc.AnalyzeWallet(context.Background(), testAddr, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(p.Tokens) != 1 || p.Tokens[0].ContractAddress != "0xgood" {
		t.Errorf("spam token not excluded: %+v", p.Tokens)
	}
	if prices.gotLen != 1 {
		t.Errorf("price batch size = %d, want 1 (filtered set only)", prices.gotLen)
	}
}

func TestAnalyzeWalletPartialPriceFailure(t *testing.T) {
	balances := &fakeBalanceProvider{
		tokens: []domain.TokenBalance{
			verifiedToken("0xtok", "1000000", 6, 1.5),
		},
		native: domain.NativeBalance{Balance: "1", ValueUSD: 50.0},
	}
	prices := &fakePriceProvider{err: &domain.UpstreamError{Provider: "coingecko", Status: 429}}

	svc := NewWalletService(balances, prices, nil, discardLogger())
	p, err := svc.AnalyzeWallet(context.Background(), testAddr, 1)
	if err != nil {
		t.Fatalf("price failure must not fail the lookup: %v", err)
	}

	if !p.PricesUnavailable {
		t.Error("PricesUnavailable not set")
	}
	if p.TotalValueUSD != 50.0 {
		t.Errorf("total = %v, want native value alone", p.TotalValueUSD)
	}
	for _, tok := range p.Tokens {
		if tok.PriceUSD != nil || tok.ValueUSD != nil {
			t.Errorf("token %s has price fields set: %+v", tok.ContractAddress, tok)
		}
	}
}

func TestAnalyzeWalletMandatoryFetchFailure(t *testing.T) {
	balances := &fakeBalanceProvider{
		tokensErr: &domain.UpstreamError{Provider: "moralis", Status: 502},
	}
	svc := NewWalletService(balances, &fakePriceProvider{}, nil, discardLogger())

	_, err := svc.AnalyzeWallet(context.Background(), testAddr, 1)
	if !errors.Is(err, domain.ErrUpstreamUnavailable) {
		t.Fatalf("err = %v, want ErrUpstreamUnavailable match", err)
	}
	var ue *domain.UpstreamError
	if !errors.As(err, &ue) {
		t.Errorf("original cause not attached: %v", err)
	}
}

func TestAnalyzeWalletValidation(t *testing.T) {
	svc := NewWalletService(&fakeBalanceProvider{}, &fakePriceProvider{}, nil, discardLogger())

	if _, err := svc.AnalyzeWallet(context.Background(), "not-an-address", 1); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("bad address err = %v", err)
	}
	if _, err := svc.AnalyzeWallet(context.Background(), testAddr, 999); !errors.Is(err, domain.ErrUnsupportedChain) {
		t.Errorf("bad chain err = %v", err)
	}
}

func TestAnalyzeWalletRepeatable(t *testing.T) {
	// With upstreams returning the same data, two lookups must produce the
	// same portfolio; only LastUpdated may differ.
	balances := &fakeBalanceProvider{
		tokens: []domain.TokenBalance{
			verifiedToken("0xaaa", "5000000", 6, 5.0),
			verifiedToken("0xbbb", "1000000000000000000", 18, 1.0),
		},
		native: domain.NativeBalance{Balance: "2000000000000000000", ValueUSD: 8.0},
	}
	prices := &fakePriceProvider{prices: map[string]float64{"0xaaa": 0.5, "0xbbb": 12.0}}

	svc := NewWalletService(balances, prices, nil, discardLogger())
	first, err := svc.AnalyzeWallet(context.Background(), testAddr, 137)
	if err != nil {
		t.Fatalf("first lookup: %v", err)
	}
	second, err := svc.AnalyzeWallet(context.Background(), testAddr, 137)
	if err != nil {
		t.Fatalf("second lookup: %v", err)
	}

	first.LastUpdated = time.Time{}
	second.LastUpdated = time.Time{}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("portfolios diverge across identical lookups:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestAnalyzeWalletWritesPriceCache(t *testing.T) {
	balances := &fakeBalanceProvider{
		tokens: []domain.TokenBalance{verifiedToken("0xtok", "1", 0, 1)},
	}
	prices := &fakePriceProvider{prices: map[string]float64{"0xtok": 3.0}}
	cache := &fakePriceCache{}

	svc := NewWalletService(balances, prices, cache, discardLogger())
	if _, err := svc.AnalyzeWallet(context.Background(), testAddr, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cache.stored["0xtok"] != 3.0 {
		t.Errorf("prices not written through to cache: %v", cache.stored)
	}
}
