package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mtarnawa/dexpulse/internal/domain"
)

// WalletService defines the methods the wallet handler requires.
type WalletService interface {
	AnalyzeWallet(ctx context.Context, address string, chainID int) (domain.WalletPortfolio, error)
}

// WalletHandler serves the wallet portfolio endpoint.
type WalletHandler struct {
	wallets WalletService
	logger  *slog.Logger
}

// NewWalletHandler creates a WalletHandler with the given service and logger.
func NewWalletHandler(wallets WalletService, logger *slog.Logger) *WalletHandler {
	return &WalletHandler{wallets: wallets, logger: logger}
}

// AnalyzeWallet returns the aggregated portfolio of one address on one chain.
// GET /api/wallet/{address}?chain_id=1
func (h *WalletHandler) AnalyzeWallet(w http.ResponseWriter, r *http.Request) {
	address := pathParam(r, "address")
	chainID := 1
	if raw := r.URL.Query().Get("chain_id"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid chain_id")
			return
		}
		chainID = n
	}

	portfolio, err := h.wallets.AnalyzeWallet(r.Context(), address, chainID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, portfolio)
}
