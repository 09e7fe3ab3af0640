package geckoterminal

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mtarnawa/dexpulse/internal/domain"
)

// --------------------------------------------------------------------------
// API DTOs — JSON:API style envelope with side-loaded "included" entities.
// --------------------------------------------------------------------------

type apiRef struct {
	Data struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	} `json:"data"`
}

type apiWindowMap struct {
	H1  string `json:"h1"`
	H6  string `json:"h6"`
	H24 string `json:"h24"`
}

type apiTxnWindow struct {
	Buys    int `json:"buys"`
	Sells   int `json:"sells"`
	Buyers  int `json:"buyers"`
	Sellers int `json:"sellers"`
}

type apiPoolAttributes struct {
	Name                          string       `json:"name"`
	Address                       string       `json:"address"`
	BaseTokenPriceUSD             string       `json:"base_token_price_usd"`
	QuoteTokenPriceUSD            string       `json:"quote_token_price_usd"`
	BaseTokenPriceNativeCurrency  string       `json:"base_token_price_native_currency"`
	ReserveInUSD                  string       `json:"reserve_in_usd"`
	FDVUSD                        string       `json:"fdv_usd"`
	MarketCapUSD                  string       `json:"market_cap_usd"`
	PriceChangePercentage         apiWindowMap `json:"price_change_percentage"`
	VolumeUSD                     apiWindowMap `json:"volume_usd"`
	Transactions                  struct {
		H24 apiTxnWindow `json:"h24"`
	} `json:"transactions"`
}

type apiPool struct {
	ID            string            `json:"id"`
	Type          string            `json:"type"`
	Attributes    apiPoolAttributes `json:"attributes"`
	Relationships struct {
		BaseToken  apiRef `json:"base_token"`
		QuoteToken apiRef `json:"quote_token"`
		Dex        apiRef `json:"dex"`
	} `json:"relationships"`
}

type apiIncludedAttributes struct {
	Address      string `json:"address"`
	Name         string `json:"name"`
	Symbol       string `json:"symbol"`
	Decimals     int    `json:"decimals"`
	PriceUSD     string `json:"price_usd"`
	FDVUSD       string `json:"fdv_usd"`
	MarketCapUSD string `json:"market_cap_usd"`
	TotalSupply  string `json:"total_supply"`
}

type apiIncluded struct {
	ID         string                `json:"id"`
	Type       string                `json:"type"` // "token" or "dex"
	Attributes apiIncludedAttributes `json:"attributes"`
}

type apiPoolListEnvelope struct {
	Data     []apiPool     `json:"data"`
	Included []apiIncluded `json:"included"`
}

type apiPoolEnvelope struct {
	Data     apiPool       `json:"data"`
	Included []apiIncluded `json:"included"`
}

type apiTokenEnvelope struct {
	Data apiIncluded `json:"data"`
}

type apiNetworkList struct {
	Data []struct {
		ID         string `json:"id"`
		Attributes struct {
			Name string `json:"name"`
		} `json:"attributes"`
	} `json:"data"`
}

type apiDexList struct {
	Data []struct {
		ID         string `json:"id"`
		Attributes struct {
			Name string `json:"name"`
		} `json:"attributes"`
	} `json:"data"`
}

// apiOHLCVEnvelope carries the candle series; each row is a 6-element array
// of [timestamp, open, high, low, close, volume].
type apiOHLCVEnvelope struct {
	Data struct {
		Attributes struct {
			OHLCVList []ohlcvRow `json:"ohlcv_list"`
		} `json:"attributes"`
	} `json:"data"`
}

type ohlcvRow [6]float64

func (r ohlcvRow) toCandle() domain.Candle {
	return domain.Candle{
		Timestamp: int64(r[0]),
		Open:      r[1],
		High:      r[2],
		Low:       r[3],
		Close:     r[4],
		VolumeUSD: r[5],
	}
}

// UnmarshalJSON accepts rows whose elements arrive as numbers or as numeric
// strings; the provider mixes the two across networks.
func (r *ohlcvRow) UnmarshalJSON(data []byte) error {
	var raw []json.Number
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 6 {
		return fmt.Errorf("ohlcv row has %d elements, want 6", len(raw))
	}
	for i, n := range raw {
		v, err := strconv.ParseFloat(n.String(), 64)
		if err != nil {
			return fmt.Errorf("ohlcv row element %d: %w", i, err)
		}
		r[i] = v
	}
	return nil
}

// --------------------------------------------------------------------------
// Converters
// --------------------------------------------------------------------------

// toDomain converts an API pool. When network is empty (the trending feed
// mixes networks) the slug is recovered from the composite id, which the
// provider formats as "{network}_{address}".
func (p *apiPool) toDomain(network string) domain.Pool {
	if network == "" {
		if i := strings.Index(p.ID, "_"); i > 0 {
			network = p.ID[:i]
		}
	}
	a := &p.Attributes
	return domain.Pool{
		ID:                   p.ID,
		Network:              network,
		Address:              a.Address,
		Name:                 a.Name,
		BaseTokenID:          p.Relationships.BaseToken.Data.ID,
		QuoteTokenID:         p.Relationships.QuoteToken.Data.ID,
		DexID:                p.Relationships.Dex.Data.ID,
		BaseTokenPriceUSD:    a.BaseTokenPriceUSD,
		QuoteTokenPriceUSD:   a.QuoteTokenPriceUSD,
		BaseTokenPriceNative: a.BaseTokenPriceNativeCurrency,
		ReserveUSD:           a.ReserveInUSD,
		FDVUSD:               a.FDVUSD,
		MarketCapUSD:         a.MarketCapUSD,
		PriceChangePct: domain.WindowStrings{
			H1:  a.PriceChangePercentage.H1,
			H6:  a.PriceChangePercentage.H6,
			H24: a.PriceChangePercentage.H24,
		},
		VolumeUSD: domain.WindowStrings{
			H1:  a.VolumeUSD.H1,
			H6:  a.VolumeUSD.H6,
			H24: a.VolumeUSD.H24,
		},
		TransactionsH24: domain.TransactionCounts{
			Buys:    a.Transactions.H24.Buys,
			Sells:   a.Transactions.H24.Sells,
			Buyers:  a.Transactions.H24.Buyers,
			Sellers: a.Transactions.H24.Sellers,
		},
	}
}

func (t *apiIncluded) toDomainToken() domain.Token {
	return domain.Token{
		ID:           t.ID,
		Address:      t.Attributes.Address,
		Name:         t.Attributes.Name,
		Symbol:       t.Attributes.Symbol,
		Decimals:     t.Attributes.Decimals,
		PriceUSD:     t.Attributes.PriceUSD,
		FDVUSD:       t.Attributes.FDVUSD,
		MarketCapUSD: t.Attributes.MarketCapUSD,
		TotalSupply:  t.Attributes.TotalSupply,
	}
}

// buildPage assembles a PoolPage: pools in response order plus id-keyed lookup
// maps for the side-loaded tokens and dexes.
func buildPage(network string, pools []apiPool, included []apiIncluded) domain.PoolPage {
	page := domain.PoolPage{
		Pools:  make([]domain.Pool, 0, len(pools)),
		Tokens: make(map[string]domain.Token),
		Dexes:  make(map[string]domain.Dex),
	}
	for i := range pools {
		page.Pools = append(page.Pools, pools[i].toDomain(network))
	}
	for i := range included {
		inc := &included[i]
		switch inc.Type {
		case "token":
			page.Tokens[inc.ID] = inc.toDomainToken()
		case "dex":
			page.Dexes[inc.ID] = domain.Dex{ID: inc.ID, Name: inc.Attributes.Name}
		}
	}
	return page
}
