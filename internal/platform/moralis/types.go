package moralis

import (
	"math/big"
	"strings"

	"github.com/mtarnawa/dexpulse/internal/domain"
)

type apiTokenBalance struct {
	TokenAddress     string `json:"token_address"`
	Symbol           string `json:"symbol"`
	Name             string `json:"name"`
	Decimals         int    `json:"decimals"`
	Balance          string `json:"balance"`
	PossibleSpam     bool   `json:"possible_spam"`
	VerifiedContract bool   `json:"verified_contract"`
}

type apiNativeBalance struct {
	Balance  string  `json:"balance"`
	UsdValue float64 `json:"usd_value"`
}

func (b *apiTokenBalance) toDomain() domain.TokenBalance {
	return domain.TokenBalance{
		ContractAddress:  strings.ToLower(b.TokenAddress),
		Symbol:           b.Symbol,
		Name:             b.Name,
		Decimals:         b.Decimals,
		Balance:          b.Balance,
		BalanceFormatted: scaleBalance(b.Balance, b.Decimals),
		Verified:         b.VerifiedContract && !b.PossibleSpam,
	}
}

// scaleBalance converts a raw integer balance string into a human-scaled
// amount, rawBalance / 10^decimals. Unparseable input scales to 0.
func scaleBalance(raw string, decimals int) float64 {
	n, ok := new(big.Int).SetString(raw, 10)
	if !ok || decimals < 0 {
		return 0
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	q := new(big.Float).Quo(new(big.Float).SetInt(n), new(big.Float).SetInt(scale))
	v, _ := q.Float64()
	return v
}
