package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mtarnawa/dexpulse/internal/domain"
)

type pageOrErr struct {
	page domain.PoolPage
	err  error
}

type netCall struct {
	network string
	sort    string
	reply   chan pageOrErr
}

// fakeReader hands every call to the test through a channel so the test
// controls exactly when and with what each fetch completes.
type fakeReader struct {
	trendingCalls chan chan pageOrErr
	networkCalls  chan netCall
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		trendingCalls: make(chan chan pageOrErr, 16),
		networkCalls:  make(chan netCall, 16),
	}
}

func (f *fakeReader) TrendingPools(ctx context.Context) (domain.PoolPage, error) {
	reply := make(chan pageOrErr)
	f.trendingCalls <- reply
	select {
	case r := <-reply:
		return r.page, r.err
	case <-ctx.Done():
		return domain.PoolPage{}, ctx.Err()
	}
}

func (f *fakeReader) NetworkPools(ctx context.Context, network string, page int, sort string) (domain.PoolPage, error) {
	call := netCall{network: network, sort: sort, reply: make(chan pageOrErr)}
	f.networkCalls <- call
	select {
	case r := <-call.reply:
		return r.page, r.err
	case <-ctx.Done():
		return domain.PoolPage{}, ctx.Err()
	}
}

func pageOf(n int, prefix string) domain.PoolPage {
	pools := make([]domain.Pool, n)
	for i := range pools {
		pools[i] = domain.Pool{ID: fmt.Sprintf("%s_%d", prefix, i), Network: "eth"}
	}
	return domain.PoolPage{Pools: pools}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func startController(t *testing.T, reader *fakeReader) *Controller {
	t.Helper()
	c := NewController(reader, nil, "ethereum", "h24_volume_usd_desc", time.Hour, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = c.Run(ctx) }()
	return c
}

func TestSuccessfulRefresh(t *testing.T) {
	reader := newFakeReader()
	c := startController(t, reader)

	// Both collections fetch immediately on start.
	trendingReply := <-reader.trendingCalls
	netReq := <-reader.networkCalls
	if netReq.network != "ethereum" || netReq.sort != "h24_volume_usd_desc" {
		t.Fatalf("initial selection = %s/%s", netReq.network, netReq.sort)
	}

	waitFor(t, func() bool {
		s := c.Snapshot()
		return s.TrendingLoading && s.NetworkLoading
	}, "loading flags")

	trendingReply <- pageOrErr{page: pageOf(3, "trend")}
	netReq.reply <- pageOrErr{page: pageOf(12, "net")}

	waitFor(t, func() bool {
		s := c.Snapshot()
		return !s.NetworkLoading && !s.TrendingLoading
	}, "fetches to complete")

	s := c.Snapshot()
	if s.NetworkError || s.TrendingError {
		t.Errorf("error flags set on success: %+v", s)
	}
	if len(s.NetworkPools.Pools) != 12 {
		t.Errorf("network pools = %d, want 12", len(s.NetworkPools.Pools))
	}
	if len(s.Trending.Pools) != 3 {
		t.Errorf("trending pools = %d, want 3", len(s.Trending.Pools))
	}
	if s.LastUpdated.IsZero() {
		t.Error("LastUpdated not set")
	}
}

func TestStaleResponseDiscarded(t *testing.T) {
	reader := newFakeReader()
	c := startController(t, reader)

	trendingReply := <-reader.trendingCalls
	trendingReply <- pageOrErr{page: pageOf(1, "trend")}

	// Hold the first network fetch in flight, then switch networks.
	oldCall := <-reader.networkCalls
	c.SetNetwork("polygon")

	newCall := <-reader.networkCalls
	if newCall.network != "polygon" {
		t.Fatalf("refetch network = %q, want polygon", newCall.network)
	}
	newCall.reply <- pageOrErr{page: pageOf(2, "fresh")}

	waitFor(t, func() bool {
		s := c.Snapshot()
		return len(s.NetworkPools.Pools) == 2 && !s.NetworkLoading
	}, "fresh page to land")

	// Now let the superseded fetch complete. It must not overwrite state.
	oldCall.reply <- pageOrErr{page: pageOf(9, "stale")}

	time.Sleep(20 * time.Millisecond)
	s := c.Snapshot()
	if len(s.NetworkPools.Pools) != 2 || s.NetworkPools.Pools[0].ID != "fresh_0" {
		t.Errorf("stale response overwrote state: %+v", s.NetworkPools.Pools)
	}
}

func TestStaleWhileError(t *testing.T) {
	reader := newFakeReader()
	c := startController(t, reader)

	trendingReply := <-reader.trendingCalls
	trendingReply <- pageOrErr{page: pageOf(1, "trend")}

	first := <-reader.networkCalls
	first.reply <- pageOrErr{page: pageOf(5, "good")}

	waitFor(t, func() bool {
		return len(c.Snapshot().NetworkPools.Pools) == 5
	}, "first page to land")

	// Trigger a refetch that fails.
	c.SetSort("market_cap_usd_desc")
	second := <-reader.networkCalls
	second.reply <- pageOrErr{err: errors.New("upstream down")}

	waitFor(t, func() bool {
		s := c.Snapshot()
		return s.NetworkError && !s.NetworkLoading
	}, "error flag")

	s := c.Snapshot()
	if len(s.NetworkPools.Pools) != 5 {
		t.Errorf("last good collection lost on error: %d pools", len(s.NetworkPools.Pools))
	}

	// The next successful fetch clears the error flag.
	c.SetSort("h24_volume_usd_desc")
	third := <-reader.networkCalls
	third.reply <- pageOrErr{page: pageOf(4, "recovered")}

	waitFor(t, func() bool {
		s := c.Snapshot()
		return !s.NetworkError && len(s.NetworkPools.Pools) == 4
	}, "recovery")
}

func TestAggregatesStrictProfile(t *testing.T) {
	healthy := domain.Pool{
		ID:             "eth_h",
		VolumeUSD:      domain.WindowStrings{H24: "150000"},
		ReserveUSD:     "600000",
		PriceChangePct: domain.WindowStrings{H24: "5"},
	}
	warning := domain.Pool{
		ID:             "eth_w",
		VolumeUSD:      domain.WindowStrings{H24: "20000"},
		ReserveUSD:     "60000",
		PriceChangePct: domain.WindowStrings{H24: "5"},
	}
	risky := domain.Pool{
		ID:             "eth_r",
		VolumeUSD:      domain.WindowStrings{H24: "100"},
		ReserveUSD:     "100",
		PriceChangePct: domain.WindowStrings{H24: "80"},
	}

	agg := aggregate(domain.PoolPage{Pools: []domain.Pool{healthy, warning, risky, risky}})
	if agg.Healthy != 1 || agg.Warning != 1 || agg.Risky != 2 {
		t.Errorf("aggregates = %+v", agg)
	}
}

type recordedAlert struct {
	event, title, message string
}

type fakeAlertSink struct {
	mu     sync.Mutex
	alerts []recordedAlert
}

func (f *fakeAlertSink) Notify(ctx context.Context, event, title, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, recordedAlert{event, title, message})
	return nil
}

func (f *fakeAlertSink) recorded() []recordedAlert {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedAlert(nil), f.alerts...)
}

func TestHealthDegradationAlert(t *testing.T) {
	reader := newFakeReader()
	sink := &fakeAlertSink{}
	c := NewController(reader, sink, "ethereum", "", time.Hour, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = c.Run(ctx) }()

	goodPool := domain.Pool{
		ID:             "eth_x",
		Name:           "X / WETH",
		VolumeUSD:      domain.WindowStrings{H24: "50000"},
		ReserveUSD:     "90000",
		PriceChangePct: domain.WindowStrings{H24: "3"},
	}
	badPool := goodPool
	badPool.ReserveUSD = "1000"
	badPool.VolumeUSD = domain.WindowStrings{H24: "100"}

	trendingReply := <-reader.trendingCalls
	trendingReply <- pageOrErr{page: domain.PoolPage{Pools: []domain.Pool{goodPool}}}
	first := <-reader.networkCalls
	first.reply <- pageOrErr{page: domain.PoolPage{}}

	waitFor(t, func() bool {
		return len(c.Snapshot().Trending.Pools) == 1
	}, "first snapshot")

	// Same pool comes back risky on the next refresh.
	c.SetNetwork("ethereum") // force a network refetch; trending uses its own tick
	second := <-reader.networkCalls
	second.reply <- pageOrErr{page: domain.PoolPage{Pools: []domain.Pool{badPool}}}

	waitFor(t, func() bool {
		return len(sink.recorded()) == 1
	}, "degradation alert")

	a := sink.recorded()[0]
	if a.event != "health_degraded" {
		t.Errorf("event = %q", a.event)
	}
}

func TestUpstreamDownAlertOncePerOutage(t *testing.T) {
	reader := newFakeReader()
	sink := &fakeAlertSink{}
	c := NewController(reader, sink, "ethereum", "", time.Hour, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = c.Run(ctx) }()

	trendingReply := <-reader.trendingCalls
	trendingReply <- pageOrErr{page: pageOf(1, "trend")}

	// First failed refresh fires the outage alert.
	first := <-reader.networkCalls
	first.reply <- pageOrErr{err: errors.New("gateway timeout")}

	waitFor(t, func() bool {
		return len(sink.recorded()) == 1
	}, "outage alert")
	a := sink.recorded()[0]
	if a.event != "upstream_down" {
		t.Errorf("event = %q", a.event)
	}

	// A refresh that keeps failing does not alert again.
	c.SetNetwork("ethereum")
	second := <-reader.networkCalls
	second.reply <- pageOrErr{err: errors.New("gateway timeout")}

	waitFor(t, func() bool {
		s := c.Snapshot()
		return s.NetworkError && !s.NetworkLoading
	}, "second failure applied")
	time.Sleep(20 * time.Millisecond)
	if n := len(sink.recorded()); n != 1 {
		t.Fatalf("alerts after repeated failure = %d, want 1", n)
	}

	// Recovery, then a fresh outage alerts once more.
	c.SetNetwork("ethereum")
	third := <-reader.networkCalls
	third.reply <- pageOrErr{page: pageOf(2, "ok")}

	waitFor(t, func() bool {
		s := c.Snapshot()
		return !s.NetworkError && len(s.NetworkPools.Pools) == 2
	}, "recovery")

	c.SetNetwork("ethereum")
	fourth := <-reader.networkCalls
	fourth.reply <- pageOrErr{err: errors.New("gateway timeout")}

	waitFor(t, func() bool {
		return len(sink.recorded()) == 2
	}, "alert for new outage")
	if got := sink.recorded()[1].event; got != "upstream_down" {
		t.Errorf("second alert event = %q", got)
	}
}
