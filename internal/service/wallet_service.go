package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mtarnawa/dexpulse/internal/domain"
)

// WalletService builds wallet portfolios from two independent upstreams, a
// balance provider and a price provider. Each lookup is self-contained; the
// service holds no mutable state.
type WalletService struct {
	balances   domain.BalanceProvider
	prices     domain.PriceProvider
	priceCache domain.TokenPriceCache
	logger     *slog.Logger
}

// NewWalletService creates a WalletService. priceCache may be nil.
func NewWalletService(
	balances domain.BalanceProvider,
	prices domain.PriceProvider,
	priceCache domain.TokenPriceCache,
	logger *slog.Logger,
) *WalletService {
	return &WalletService{
		balances:   balances,
		prices:     prices,
		priceCache: priceCache,
		logger:     logger.With(slog.String("component", "wallet_service")),
	}
}

// AnalyzeWallet produces one WalletPortfolio for an address on a chain.
//
// The balance and native fetches are mandatory; either failing fails the
// whole lookup. The batch price fetch is optional: when it fails the
// portfolio is returned with all prices absent and PricesUnavailable set.
func (s *WalletService) AnalyzeWallet(ctx context.Context, address string, chainID int) (domain.WalletPortfolio, error) {
	if !common.IsHexAddress(address) {
		return domain.WalletPortfolio{}, fmt.Errorf("wallet_service: address %q: %w", address, domain.ErrInvalidInput)
	}
	chain, err := resolveChain(chainID)
	if err != nil {
		return domain.WalletPortfolio{}, err
	}

	addr := strings.ToLower(common.HexToAddress(address).Hex())
	correlationID := uuid.New().String()
	log := s.logger.With(
		slog.String("correlation_id", correlationID),
		slog.String("address", addr),
		slog.Int("chain_id", chainID),
	)

	var (
		raw    []domain.TokenBalance
		native domain.NativeBalance
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		raw, err = s.balances.GetWalletTokenBalances(gctx, addr, chain.BalanceChain)
		if err != nil {
			return fmt.Errorf("wallet_service: fetch balances: %w: %w", domain.ErrUpstreamUnavailable, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		native, err = s.balances.GetWalletBalance(gctx, addr, chain.BalanceChain)
		if err != nil {
			return fmt.Errorf("wallet_service: fetch native balance: %w: %w", domain.ErrUpstreamUnavailable, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.WalletPortfolio{}, err
	}

	// Spam and unverified holdings are dropped outright, not hidden.
	tokens := make([]domain.TokenBalance, 0, len(raw))
	addresses := make([]string, 0, len(raw))
	for _, t := range raw {
		if !t.Verified {
			continue
		}
		tokens = append(tokens, t)
		addresses = append(addresses, t.ContractAddress)
	}

	prices, priceErr := s.fetchPrices(ctx, chain.PricePlatform, addresses)

	portfolio := domain.WalletPortfolio{
		Address:        addr,
		ChainID:        chainID,
		NativeBalance:  native.Balance,
		NativeValueUSD: native.ValueUSD,
		TotalValueUSD:  native.ValueUSD,
		Tokens:         tokens,
		LastUpdated:    time.Now().UTC(),
	}

	if priceErr != nil {
		log.WarnContext(ctx, "price lookup failed, returning unpriced portfolio",
			slog.String("error", priceErr.Error()),
		)
		portfolio.PricesUnavailable = true
		portfolio.PriceWarning = "token prices unavailable"
	} else {
		for i := range portfolio.Tokens {
			t := &portfolio.Tokens[i]
			usd, ok := prices[t.ContractAddress]
			if !ok {
				continue
			}
			price := usd
			value := usd * t.BalanceFormatted
			t.PriceUSD = &price
			t.ValueUSD = &value
			portfolio.TotalValueUSD += value
			portfolio.TokenCount++
		}
	}

	log.InfoContext(ctx, "wallet analyzed",
		slog.Int("tokens", len(portfolio.Tokens)),
		slog.Int("priced", portfolio.TokenCount),
		slog.Bool("prices_unavailable", portfolio.PricesUnavailable),
	)

	return portfolio, nil
}

// fetchPrices resolves USD prices for the filtered contract set, serving from
// the price cache when it already covers every address. A fresh upstream
// answer is written back best effort.
func (s *WalletService) fetchPrices(ctx context.Context, platform string, addresses []string) (map[string]float64, error) {
	if len(addresses) == 0 {
		return map[string]float64{}, nil
	}

	if s.priceCache != nil {
		cached, err := s.priceCache.GetPrices(ctx, addresses)
		if err == nil && len(cached) == len(addresses) {
			return cached, nil
		}
	}

	prices, err := s.prices.GetTokenPrices(ctx, platform, addresses)
	if err != nil {
		return nil, err
	}

	if s.priceCache != nil && len(prices) > 0 {
		if cacheErr := s.priceCache.SetPrices(ctx, prices, time.Now().UTC()); cacheErr != nil {
			s.logger.WarnContext(ctx, "price cache write failed",
				slog.String("error", cacheErr.Error()),
			)
		}
	}

	return prices, nil
}
