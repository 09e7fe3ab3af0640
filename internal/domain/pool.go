package domain

// HealthTier is the derived liquidity/volume/volatility classification of a
// pool. It is computed from a pool snapshot and never stored.
type HealthTier string

const (
	HealthHealthy HealthTier = "healthy"
	HealthWarning HealthTier = "warning"
	HealthRisky   HealthTier = "risky"
)

// WindowStrings holds one per-window metric reported as decimal strings
// ("h1", "h6", "h24"). Upstream sends every numeric field as a string; the
// raw strings are kept so display formatting controls precision.
type WindowStrings struct {
	H1  string
	H6  string
	H24 string
}

// TransactionCounts holds buy/sell activity for one window.
type TransactionCounts struct {
	Buys    int
	Sells   int
	Buyers  int
	Sellers int
}

// Pool is a read-only snapshot of one trading pair on one network. Identity
// is the composite Network + Address; a fresh snapshot replaces the previous
// one wholesale on every poll tick.
type Pool struct {
	ID      string // provider composite id, e.g. "eth_0xabc..."
	Network string // provider network slug
	Address string
	Name    string

	// Side-loaded references, resolved through PoolPage lookup maps.
	BaseTokenID  string
	QuoteTokenID string
	DexID        string

	BaseTokenPriceUSD    string
	QuoteTokenPriceUSD   string
	BaseTokenPriceNative string
	ReserveUSD           string
	FDVUSD               string
	MarketCapUSD         string

	PriceChangePct  WindowStrings
	VolumeUSD       WindowStrings
	TransactionsH24 TransactionCounts
}

// Token is a fungible asset referenced by a pool. Tokens are resolved per
// request from the side-loaded collection and are not cached independently.
type Token struct {
	ID           string
	Address      string
	Name         string
	Symbol       string
	Decimals     int
	PriceUSD     string
	FDVUSD       string
	MarketCapUSD string
	TotalSupply  string
}

// Dex identifies the exchange a pool trades on.
type Dex struct {
	ID   string
	Name string
}

// PoolPage is one page of pools together with the side-loaded entities they
// reference, keyed by id. References stay by-id on the Pool; this avoids
// duplicating token data across pools and keeps the graph acyclic.
type PoolPage struct {
	Pools  []Pool
	Tokens map[string]Token
	Dexes  map[string]Dex
}

// BaseToken resolves a pool's base token from the page's lookup map.
func (p *PoolPage) BaseToken(pool Pool) (Token, bool) {
	t, ok := p.Tokens[pool.BaseTokenID]
	return t, ok
}

// QuoteToken resolves a pool's quote token from the page's lookup map.
func (p *PoolPage) QuoteToken(pool Pool) (Token, bool) {
	t, ok := p.Tokens[pool.QuoteTokenID]
	return t, ok
}

// Network is one blockchain network known to the market-data provider.
type Network struct {
	ID   string // provider slug, e.g. "eth"
	Name string // display name, e.g. "Ethereum"
}

// Candle is one OHLCV row of a pool's candlestick series.
type Candle struct {
	Timestamp int64 // Unix seconds, bucket open time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	VolumeUSD float64
}
