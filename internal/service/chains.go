package service

import (
	"fmt"

	"github.com/mtarnawa/dexpulse/internal/domain"
)

// chainInfo ties an EVM chain id to the tags the two providers use for it.
type chainInfo struct {
	Name           string
	BalanceChain   string // balance provider chain tag
	PricePlatform  string // price provider platform id
	NativeSymbol   string
	NativeDecimals int
}

var chains = map[int]chainInfo{
	1:     {Name: "Ethereum", BalanceChain: "0x1", PricePlatform: "ethereum", NativeSymbol: "ETH", NativeDecimals: 18},
	56:    {Name: "BNB Smart Chain", BalanceChain: "0x38", PricePlatform: "binance-smart-chain", NativeSymbol: "BNB", NativeDecimals: 18},
	137:   {Name: "Polygon", BalanceChain: "0x89", PricePlatform: "polygon-pos", NativeSymbol: "POL", NativeDecimals: 18},
	42161: {Name: "Arbitrum", BalanceChain: "0xa4b1", PricePlatform: "arbitrum-one", NativeSymbol: "ETH", NativeDecimals: 18},
	10:    {Name: "Optimism", BalanceChain: "0xa", PricePlatform: "optimistic-ethereum", NativeSymbol: "ETH", NativeDecimals: 18},
	8453:  {Name: "Base", BalanceChain: "0x2105", PricePlatform: "base", NativeSymbol: "ETH", NativeDecimals: 18},
}

// resolveChain looks up provider tags for an EVM chain id.
func resolveChain(chainID int) (chainInfo, error) {
	info, ok := chains[chainID]
	if !ok {
		return chainInfo{}, fmt.Errorf("service: chain id %d: %w", chainID, domain.ErrUnsupportedChain)
	}
	return info, nil
}

// SupportedChainIDs returns the chain ids the wallet aggregator accepts, in
// ascending order.
func SupportedChainIDs() []int {
	return []int{1, 10, 56, 137, 8453, 42161}
}
