package domain

import "context"

// NativeBalance is a wallet's native-asset holding with its upstream USD
// valuation. Balance is the raw integer string in the chain's smallest unit.
type NativeBalance struct {
	Balance  string
	ValueUSD float64
}

// BalanceProvider fetches a wallet's holdings on one chain. chain is the
// provider's own chain tag (e.g. "0x1"), resolved by the caller.
type BalanceProvider interface {
	GetWalletTokenBalances(ctx context.Context, address, chain string) ([]TokenBalance, error)
	GetWalletBalance(ctx context.Context, address, chain string) (NativeBalance, error)
}

// PriceProvider resolves USD unit prices for a batch of token contracts on
// one platform. The result is keyed by lowercase contract address; unpriced
// addresses are absent, not zero.
type PriceProvider interface {
	GetTokenPrices(ctx context.Context, platform string, contractAddresses []string) (map[string]float64, error)
}
