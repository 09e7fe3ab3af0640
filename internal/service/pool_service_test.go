package service

import (
	"context"
	"errors"
	"testing"

	"github.com/mtarnawa/dexpulse/internal/domain"
	"github.com/mtarnawa/dexpulse/internal/platform/geckoterminal"
)

type fakePoolProvider struct {
	page          domain.PoolPage
	err           error
	trendingCalls int
	networkCalls  int
}

func (f *fakePoolProvider) GetTrendingPools(ctx context.Context) (domain.PoolPage, error) {
	f.trendingCalls++
	return f.page, f.err
}

func (f *fakePoolProvider) GetNetworkPools(ctx context.Context, network string, page int, sort string) (domain.PoolPage, error) {
	f.networkCalls++
	return f.page, f.err
}

func (f *fakePoolProvider) GetTopPoolsByMarketCap(ctx context.Context, network string) (domain.PoolPage, error) {
	return f.page, f.err
}

func (f *fakePoolProvider) GetPoolByAddress(ctx context.Context, network, address string) (domain.PoolPage, error) {
	return f.page, f.err
}

func (f *fakePoolProvider) GetTokenInfo(ctx context.Context, network, address string) (domain.Token, error) {
	return domain.Token{}, f.err
}

func (f *fakePoolProvider) GetTokenPools(ctx context.Context, network, address string) (domain.PoolPage, error) {
	return f.page, f.err
}

func (f *fakePoolProvider) SearchPools(ctx context.Context, query string) (domain.PoolPage, error) {
	return f.page, f.err
}

func (f *fakePoolProvider) GetNewPools(ctx context.Context, network string) (domain.PoolPage, error) {
	return f.page, f.err
}

func (f *fakePoolProvider) GetPoolOHLCV(ctx context.Context, network, address string, timeframe geckoterminal.Timeframe, aggregate int, beforeTimestamp int64, limit int) ([]domain.Candle, error) {
	return nil, f.err
}

func (f *fakePoolProvider) GetNetworks(ctx context.Context) ([]domain.Network, error) {
	return nil, f.err
}

func (f *fakePoolProvider) GetNetworkDexes(ctx context.Context, network string) ([]domain.Dex, error) {
	return nil, f.err
}

type fakePageCache struct {
	pages map[string]domain.PoolPage
	sets  int
}

func (f *fakePageCache) Set(ctx context.Context, key string, page domain.PoolPage) error {
	if f.pages == nil {
		f.pages = map[string]domain.PoolPage{}
	}
	f.pages[key] = page
	f.sets++
	return nil
}

func (f *fakePageCache) Get(ctx context.Context, key string) (domain.PoolPage, error) {
	page, ok := f.pages[key]
	if !ok {
		return domain.PoolPage{}, domain.ErrNotFound
	}
	return page, nil
}

func onePoolPage(id string) domain.PoolPage {
	return domain.PoolPage{Pools: []domain.Pool{{ID: id, Network: "eth"}}}
}

func TestTrendingPoolsCacheReadThrough(t *testing.T) {
	provider := &fakePoolProvider{page: onePoolPage("eth_0x1")}
	cache := &fakePageCache{}
	svc := NewPoolService(provider, cache, discardLogger())

	for i := 0; i < 3; i++ {
		page, err := svc.TrendingPools(context.Background())
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if len(page.Pools) != 1 || page.Pools[0].ID != "eth_0x1" {
			t.Fatalf("call %d: page = %+v", i, page)
		}
	}

	if provider.trendingCalls != 1 {
		t.Errorf("upstream calls = %d, want 1 (cache must serve repeats)", provider.trendingCalls)
	}
	if cache.sets != 1 {
		t.Errorf("cache writes = %d, want 1", cache.sets)
	}
}

func TestNetworkPoolsSortWhitelist(t *testing.T) {
	provider := &fakePoolProvider{page: onePoolPage("eth_0x1")}
	svc := NewPoolService(provider, nil, discardLogger())

	if _, err := svc.NetworkPools(context.Background(), "eth", 1, "h24_volume_usd_desc"); err != nil {
		t.Fatalf("whitelisted sort rejected: %v", err)
	}
	if _, err := svc.NetworkPools(context.Background(), "eth", 1, "drop_table_desc"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("unknown sort err = %v, want ErrInvalidInput", err)
	}
	if provider.networkCalls != 1 {
		t.Errorf("rejected sort must not reach upstream, calls = %d", provider.networkCalls)
	}
}

func TestNetworkPoolsCacheKeyedBySelection(t *testing.T) {
	provider := &fakePoolProvider{page: onePoolPage("eth_0x1")}
	cache := &fakePageCache{}
	svc := NewPoolService(provider, cache, discardLogger())

	ctx := context.Background()
	if _, err := svc.NetworkPools(ctx, "eth", 1, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.NetworkPools(ctx, "eth", 2, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.NetworkPools(ctx, "eth", 1, "h24_volume_usd_desc"); err != nil {
		t.Fatal(err)
	}

	if provider.networkCalls != 3 {
		t.Errorf("distinct selections must each go upstream, calls = %d", provider.networkCalls)
	}
}

func TestUpstreamFailureNotCached(t *testing.T) {
	provider := &fakePoolProvider{err: &domain.UpstreamError{Provider: "geckoterminal", Status: 500}}
	cache := &fakePageCache{}
	svc := NewPoolService(provider, cache, discardLogger())

	_, err := svc.TrendingPools(context.Background())
	var ue *domain.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("err = %v", err)
	}
	if cache.sets != 0 {
		t.Errorf("failed fetch must not be cached, writes = %d", cache.sets)
	}
}

func TestSearchPoolsRequiresQuery(t *testing.T) {
	svc := NewPoolService(&fakePoolProvider{}, nil, discardLogger())
	if _, err := svc.SearchPools(context.Background(), ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("empty query err = %v", err)
	}
}

func TestResolveChain(t *testing.T) {
	info, err := resolveChain(1)
	if err != nil || info.BalanceChain != "0x1" || info.PricePlatform != "ethereum" {
		t.Errorf("chain 1 = %+v, %v", info, err)
	}
	if _, err := resolveChain(2); !errors.Is(err, domain.ErrUnsupportedChain) {
		t.Errorf("unknown chain err = %v", err)
	}
}
