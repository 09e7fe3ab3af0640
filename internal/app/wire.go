package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mtarnawa/dexpulse/internal/cache/redis"
	"github.com/mtarnawa/dexpulse/internal/config"
	"github.com/mtarnawa/dexpulse/internal/domain"
	"github.com/mtarnawa/dexpulse/internal/notify"
	"github.com/mtarnawa/dexpulse/internal/platform/coingecko"
	"github.com/mtarnawa/dexpulse/internal/platform/geckoterminal"
	"github.com/mtarnawa/dexpulse/internal/platform/moralis"
	"github.com/mtarnawa/dexpulse/internal/service"
)

// Dependencies bundles everything the application modes need to operate. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Services
	Pools   *service.PoolService
	Wallets *service.WalletService

	// Caches; all nil when Redis is disabled.
	Cache           *redis.Client
	PoolPageCache   domain.PoolPageCache
	TokenPriceCache domain.TokenPriceCache
	RateLimiter     domain.RateLimiter

	// Notifications
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Redis (optional) ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.Cache = redisClient
		deps.PoolPageCache = redis.NewPoolPageCache(redisClient)
		deps.TokenPriceCache = redis.NewTokenPriceCache(redisClient)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
	}

	// --- Upstream clients ---
	geckoClient := geckoterminal.NewClient(cfg.Gecko.BaseURL, cfg.Gecko.Timeout.Duration)
	moralisClient := moralis.NewClient(cfg.Moralis.BaseURL, cfg.Moralis.ApiKey, cfg.Moralis.Timeout.Duration)
	coingeckoClient := coingecko.NewClient(cfg.CoinGecko.BaseURL, cfg.CoinGecko.ApiKey, cfg.CoinGecko.Timeout.Duration)

	// --- Services ---
	deps.Pools = service.NewPoolService(geckoClient, deps.PoolPageCache, logger)
	deps.Wallets = service.NewWalletService(moralisClient, coingeckoClient, deps.TokenPriceCache, logger)

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
