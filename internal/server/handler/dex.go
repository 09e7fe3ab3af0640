package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mtarnawa/dexpulse/internal/display"
	"github.com/mtarnawa/dexpulse/internal/domain"
	"github.com/mtarnawa/dexpulse/internal/platform/geckoterminal"
)

// DexService defines the methods the dex handler requires from the service
// layer. It is declared locally so the handler package does not depend on the
// concrete service implementation.
type DexService interface {
	TrendingPools(ctx context.Context) (domain.PoolPage, error)
	NetworkPools(ctx context.Context, network string, page int, sort string) (domain.PoolPage, error)
	TopPoolsByMarketCap(ctx context.Context, network string) (domain.PoolPage, error)
	NewPools(ctx context.Context, network string) (domain.PoolPage, error)
	PoolByAddress(ctx context.Context, network, address string) (domain.PoolPage, error)
	TokenInfo(ctx context.Context, network, address string) (domain.Token, error)
	TokenPools(ctx context.Context, network, address string) (domain.PoolPage, error)
	SearchPools(ctx context.Context, query string) (domain.PoolPage, error)
	PoolOHLCV(ctx context.Context, network, address string, timeframe geckoterminal.Timeframe, aggregate int, beforeTimestamp int64, limit int) ([]domain.Candle, error)
	Networks(ctx context.Context) ([]domain.Network, error)
	NetworkDexes(ctx context.Context, network string) ([]domain.Dex, error)
}

// DexHandler serves pool and token endpoints backed by the market-data
// provider.
type DexHandler struct {
	dex    DexService
	logger *slog.Logger
}

// NewDexHandler creates a DexHandler with the given service and logger.
func NewDexHandler(dex DexService, logger *slog.Logger) *DexHandler {
	return &DexHandler{dex: dex, logger: logger}
}

// poolView is one pool as served over the API: raw values alongside the
// display strings and the standard-profile health tier.
type poolView struct {
	ID              string            `json:"id"`
	Network         string            `json:"network"`
	Address         string            `json:"address"`
	Name            string            `json:"name"`
	Dex             string            `json:"dex,omitempty"`
	BaseTokenSymbol string            `json:"base_token_symbol,omitempty"`
	QuoteSymbol     string            `json:"quote_token_symbol,omitempty"`
	PriceUSD        string            `json:"price_usd"`
	PriceDisplay    string            `json:"price_display"`
	VolumeH24       string            `json:"volume_h24"`
	VolumeDisplay   string            `json:"volume_display"`
	ReserveUSD      string            `json:"reserve_usd"`
	ChangeH24       string            `json:"change_h24"`
	ChangeDisplay   string            `json:"change_display"`
	Health          domain.HealthTier `json:"health"`
}

// poolPageResponse wraps a page of pools with its count.
type poolPageResponse struct {
	Pools []poolView `json:"pools"`
	Count int        `json:"count"`
}

func poolToView(page *domain.PoolPage, pool domain.Pool) poolView {
	v := poolView{
		ID:            pool.ID,
		Network:       pool.Network,
		Address:       pool.Address,
		Name:          pool.Name,
		PriceUSD:      pool.BaseTokenPriceUSD,
		PriceDisplay:  display.FormatPoolPrice(pool.BaseTokenPriceUSD),
		VolumeH24:     pool.VolumeUSD.H24,
		VolumeDisplay: display.FormatVolume(pool.VolumeUSD.H24),
		ReserveUSD:    pool.ReserveUSD,
		ChangeH24:     pool.PriceChangePct.H24,
		ChangeDisplay: display.FormatPercentageChange(pool.PriceChangePct.H24),
		Health:        display.PoolHealth(pool, display.ProfileStandard),
	}
	if d, ok := page.Dexes[pool.DexID]; ok {
		v.Dex = d.Name
	}
	if t, ok := page.BaseToken(pool); ok {
		v.BaseTokenSymbol = t.Symbol
	}
	if t, ok := page.QuoteToken(pool); ok {
		v.QuoteSymbol = t.Symbol
	}
	return v
}

func pageToResponse(page domain.PoolPage) poolPageResponse {
	views := make([]poolView, 0, len(page.Pools))
	for _, p := range page.Pools {
		views = append(views, poolToView(&page, p))
	}
	return poolPageResponse{Pools: views, Count: len(views)}
}

// TrendingPools returns the global trending pools.
// GET /api/dex/trending-pools
func (h *DexHandler) TrendingPools(w http.ResponseWriter, r *http.Request) {
	page, err := h.dex.TrendingPools(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pageToResponse(page))
}

// NetworkPools returns one page of a network's pools.
// GET /api/dex/{network}/pools?sort=h24_volume_usd_desc&page=1
func (h *DexHandler) NetworkPools(w http.ResponseWriter, r *http.Request) {
	network := pathParam(r, "network")
	sort := r.URL.Query().Get("sort")
	pageNum := queryInt(r, "page", 1)

	page, err := h.dex.NetworkPools(r.Context(), network, pageNum, sort)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pageToResponse(page))
}

// TopPoolsByMarketCap returns a network's pools sorted by market cap.
// GET /api/dex/{network}/top-pools
func (h *DexHandler) TopPoolsByMarketCap(w http.ResponseWriter, r *http.Request) {
	page, err := h.dex.TopPoolsByMarketCap(r.Context(), pathParam(r, "network"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pageToResponse(page))
}

// NewPools returns recently created pools for a network.
// GET /api/dex/{network}/new-pools
func (h *DexHandler) NewPools(w http.ResponseWriter, r *http.Request) {
	page, err := h.dex.NewPools(r.Context(), pathParam(r, "network"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pageToResponse(page))
}

// PoolByAddress returns a single pool.
// GET /api/dex/{network}/pools/{address}
func (h *DexHandler) PoolByAddress(w http.ResponseWriter, r *http.Request) {
	page, err := h.dex.PoolByAddress(r.Context(), pathParam(r, "network"), pathParam(r, "address"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	if len(page.Pools) == 0 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, poolToView(&page, page.Pools[0]))
}

// TokenInfo returns token metadata.
// GET /api/dex/{network}/tokens/{address}
func (h *DexHandler) TokenInfo(w http.ResponseWriter, r *http.Request) {
	token, err := h.dex.TokenInfo(r.Context(), pathParam(r, "network"), pathParam(r, "address"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

// TokenPools returns the pools referencing a token.
// GET /api/dex/{network}/tokens/{address}/pools
func (h *DexHandler) TokenPools(w http.ResponseWriter, r *http.Request) {
	page, err := h.dex.TokenPools(r.Context(), pathParam(r, "network"), pathParam(r, "address"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pageToResponse(page))
}

// SearchPools performs a free-text pool search.
// GET /api/dex/search?query={q}
func (h *DexHandler) SearchPools(w http.ResponseWriter, r *http.Request) {
	page, err := h.dex.SearchPools(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, pageToResponse(page))
}

// PoolOHLCV returns a pool's candlestick series.
// GET /api/dex/{network}/pools/{address}/ohlcv/{timeframe}?aggregate=1&limit=100&before_timestamp=0
func (h *DexHandler) PoolOHLCV(w http.ResponseWriter, r *http.Request) {
	candles, err := h.dex.PoolOHLCV(
		r.Context(),
		pathParam(r, "network"),
		pathParam(r, "address"),
		geckoterminal.Timeframe(pathParam(r, "timeframe")),
		queryInt(r, "aggregate", 1),
		queryInt64(r, "before_timestamp", 0),
		queryInt(r, "limit", 0),
	)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"candles": candles,
		"count":   len(candles),
	})
}

// Networks returns the networks the provider tracks.
// GET /api/dex/networks
func (h *DexHandler) Networks(w http.ResponseWriter, r *http.Request) {
	networks, err := h.dex.Networks(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"networks": networks})
}

// NetworkDexes returns the exchanges tracked on a network.
// GET /api/dex/{network}/dexes
func (h *DexHandler) NetworkDexes(w http.ResponseWriter, r *http.Request) {
	dexes, err := h.dex.NetworkDexes(r.Context(), pathParam(r, "network"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dexes": dexes})
}
