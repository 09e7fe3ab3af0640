package domain

import "time"

// TokenBalance is one token holding within a WalletPortfolio.
//
// Invariant: BalanceFormatted = raw Balance / 10^Decimals. PriceUSD and
// ValueUSD are nil when the price lookup failed or returned no entry for the
// contract; a missing price contributes 0 to the portfolio total, never an
// error.
type TokenBalance struct {
	ContractAddress  string   `json:"contract_address"`
	Symbol           string   `json:"symbol"`
	Name             string   `json:"name"`
	Decimals         int      `json:"decimals"`
	Balance          string   `json:"balance"` // raw integer string
	BalanceFormatted float64  `json:"balance_formatted"`
	PriceUSD         *float64 `json:"price_usd,omitempty"`
	ValueUSD         *float64 `json:"value_usd,omitempty"`
	Verified         bool     `json:"verified"`
}

// WalletPortfolio is the aggregated holdings of one address on one chain at
// one point in time. It is built fresh per lookup and entirely superseded by
// the next one.
//
// Invariant: TotalValueUSD = NativeValueUSD + sum of each token's ValueUSD
// (0 where ValueUSD is nil).
type WalletPortfolio struct {
	Address        string         `json:"address"` // lowercase-normalized
	ChainID        int            `json:"chain_id"`
	TotalValueUSD  float64        `json:"total_value_usd"`
	TokenCount     int            `json:"token_count"`
	NativeBalance  string         `json:"native_balance"`
	NativeValueUSD float64        `json:"native_value_usd"`
	Tokens         []TokenBalance `json:"tokens"`
	LastUpdated    time.Time      `json:"last_updated"`

	// PricesUnavailable is set when the batch price lookup failed while the
	// balance fetches succeeded. The portfolio is still complete; only unit
	// prices and per-token values are absent.
	PricesUnavailable bool   `json:"prices_unavailable,omitempty"`
	PriceWarning      string `json:"price_warning,omitempty"`
}
