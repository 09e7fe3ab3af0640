// Package dashboard maintains a periodically refreshed view of trending pools
// and of one selected network's pools. All state lives behind a single run
// loop; fetches execute in goroutines but only the loop applies their results,
// so two in-flight requests can never race on the same collection.
package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mtarnawa/dexpulse/internal/display"
	"github.com/mtarnawa/dexpulse/internal/domain"
	"github.com/mtarnawa/dexpulse/internal/notify"
)

// DefaultInterval is the poll cadence for both collections.
const DefaultInterval = 30 * time.Second

// PoolReader is the slice of the pool service the controller polls.
type PoolReader interface {
	TrendingPools(ctx context.Context) (domain.PoolPage, error)
	NetworkPools(ctx context.Context, network string, page int, sort string) (domain.PoolPage, error)
}

// AlertSink receives pool health degradation and upstream outage events.
type AlertSink interface {
	Notify(ctx context.Context, event, title, message string) error
}

// Aggregates are tier counts over the selected network's pools, classified
// with the strict profile.
type Aggregates struct {
	Healthy int `json:"healthy"`
	Warning int `json:"warning"`
	Risky   int `json:"risky"`
}

// Snapshot is the dashboard state at one point in time. Collections are
// replaced wholesale on refresh; on a failed refresh the last good collection
// stays visible with its error flag set.
type Snapshot struct {
	SelectedNetwork string          `json:"selected_network"`
	SelectedSort    string          `json:"selected_sort"`
	Trending        domain.PoolPage `json:"trending"`
	NetworkPools    domain.PoolPage `json:"network_pools"`
	TrendingLoading bool            `json:"trending_loading"`
	TrendingError   bool            `json:"trending_error"`
	NetworkLoading  bool            `json:"network_loading"`
	NetworkError    bool            `json:"network_error"`
	Aggregates      Aggregates      `json:"aggregates"`
	LastUpdated     time.Time       `json:"last_updated"`
}

type collection int

const (
	collTrending collection = iota
	collNetwork
)

func (c collection) String() string {
	if c == collTrending {
		return "trending"
	}
	return "network"
}

type command struct {
	network *string
	sort    *string
}

type fetchResult struct {
	coll    collection
	seq     uint64
	page    domain.PoolPage
	err     error
	elapsed time.Duration
}

// Controller polls the pool reader and owns the only mutable dashboard state.
type Controller struct {
	pools    PoolReader
	alerts   AlertSink // may be nil
	interval time.Duration
	logger   *slog.Logger

	mu       sync.RWMutex
	snap     Snapshot
	onUpdate func(Snapshot)

	cmds    chan command
	results chan fetchResult

	// Loop-owned, never touched outside Run.
	seq       map[collection]uint64
	prevTiers map[string]domain.HealthTier
	failing   map[collection]bool
}

// NewController creates a Controller polling at the given interval (or
// DefaultInterval when <= 0), starting on the given network and sort.
func NewController(pools PoolReader, alerts AlertSink, network, sort string, interval time.Duration, logger *slog.Logger) *Controller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Controller{
		pools:    pools,
		alerts:   alerts,
		interval: interval,
		logger:   logger.With(slog.String("component", "dashboard")),
		snap: Snapshot{
			SelectedNetwork: network,
			SelectedSort:    sort,
		},
		cmds:      make(chan command, 8),
		results:   make(chan fetchResult, 8),
		seq:       make(map[collection]uint64),
		prevTiers: make(map[string]domain.HealthTier),
		failing:   make(map[collection]bool),
	}
}

// Snapshot returns a copy of the current dashboard state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// SetOnUpdate registers a callback invoked with every published snapshot.
// It must be set before Run starts.
func (c *Controller) SetOnUpdate(fn func(Snapshot)) {
	c.onUpdate = fn
}

// SetNetwork switches the selected network. The change takes effect on the
// run loop; a response still in flight for the previous selection is
// discarded when it lands.
func (c *Controller) SetNetwork(network string) {
	c.cmds <- command{network: &network}
}

// SetSort switches the selected sort.
func (c *Controller) SetSort(sort string) {
	c.cmds <- command{sort: &sort}
}

// Run drives the poll loop until the context is cancelled. Both collections
// refresh immediately on start and then every interval, with the network
// collection additionally refreshing on every selection change.
func (c *Controller) Run(ctx context.Context) error {
	c.logger.Info("dashboard started",
		slog.String("network", c.snap.SelectedNetwork),
		slog.String("sort", c.snap.SelectedSort),
		slog.Duration("interval", c.interval),
	)

	c.startFetch(ctx, collTrending)
	c.startFetch(ctx, collNetwork)

	trendingTicker := time.NewTicker(c.interval)
	defer trendingTicker.Stop()
	networkTicker := time.NewTicker(c.interval)
	defer networkTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("dashboard stopped")
			return ctx.Err()
		case <-trendingTicker.C:
			c.startFetch(ctx, collTrending)
		case <-networkTicker.C:
			c.startFetch(ctx, collNetwork)
		case cmd := <-c.cmds:
			c.applyCommand(ctx, cmd)
		case res := <-c.results:
			c.applyResult(ctx, res)
		}
	}
}

// applyCommand changes the selection and refreshes the network collection.
// Bumping the sequence here is what invalidates any response still in flight
// for the old selection.
func (c *Controller) applyCommand(ctx context.Context, cmd command) {
	c.mu.Lock()
	if cmd.network != nil {
		c.snap.SelectedNetwork = *cmd.network
	}
	if cmd.sort != nil {
		c.snap.SelectedSort = *cmd.sort
	}
	c.mu.Unlock()

	c.startFetch(ctx, collNetwork)
}

// startFetch bumps the collection's sequence number, flags it loading, and
// launches the fetch. The result carries the sequence so the loop can tell a
// current response from a superseded one.
func (c *Controller) startFetch(ctx context.Context, coll collection) {
	c.seq[coll]++
	seq := c.seq[coll]

	c.mu.Lock()
	network := c.snap.SelectedNetwork
	sort := c.snap.SelectedSort
	switch coll {
	case collTrending:
		c.snap.TrendingLoading = true
	case collNetwork:
		c.snap.NetworkLoading = true
	}
	c.mu.Unlock()
	c.publish()

	go func() {
		started := time.Now()
		var (
			page domain.PoolPage
			err  error
		)
		switch coll {
		case collTrending:
			page, err = c.pools.TrendingPools(ctx)
		case collNetwork:
			page, err = c.pools.NetworkPools(ctx, network, 1, sort)
		}

		select {
		case c.results <- fetchResult{coll: coll, seq: seq, page: page, err: err, elapsed: time.Since(started)}:
		case <-ctx.Done():
		}
	}()
}

// applyResult folds a fetch result into the snapshot. Results whose sequence
// does not match the collection's latest are from a superseded selection or
// tick and are dropped without touching state.
func (c *Controller) applyResult(ctx context.Context, res fetchResult) {
	if res.seq != c.seq[res.coll] {
		c.logger.Debug("stale fetch discarded",
			slog.Int("collection", int(res.coll)),
			slog.Uint64("seq", res.seq),
		)
		return
	}

	c.mu.Lock()
	switch res.coll {
	case collTrending:
		c.snap.TrendingLoading = false
		if res.err != nil {
			c.snap.TrendingError = true
		} else {
			c.snap.TrendingError = false
			c.snap.Trending = res.page
			c.snap.LastUpdated = time.Now().UTC()
		}
	case collNetwork:
		c.snap.NetworkLoading = false
		if res.err != nil {
			c.snap.NetworkError = true
		} else {
			c.snap.NetworkError = false
			c.snap.NetworkPools = res.page
			c.snap.Aggregates = aggregate(res.page)
			c.snap.LastUpdated = time.Now().UTC()
		}
	}
	c.mu.Unlock()
	c.publish()

	if res.err != nil {
		c.logger.ErrorContext(ctx, "dashboard fetch failed",
			slog.String("collection", res.coll.String()),
			slog.Duration("elapsed", res.elapsed),
			slog.String("error", res.err.Error()),
		)
		c.alertUpstreamDown(ctx, res.coll, res.err)
		return
	}
	c.failing[res.coll] = false

	c.logger.Debug("dashboard refreshed",
		slog.String("collection", res.coll.String()),
		slog.Int("pools", len(res.page.Pools)),
		slog.Duration("elapsed", res.elapsed),
	)

	c.detectDegradations(ctx, res.page)
}

// aggregate counts tiers over a page with the strict profile.
func aggregate(page domain.PoolPage) Aggregates {
	var agg Aggregates
	for i := range page.Pools {
		switch display.PoolHealth(page.Pools[i], display.ProfileStrict) {
		case domain.HealthHealthy:
			agg.Healthy++
		case domain.HealthWarning:
			agg.Warning++
		case domain.HealthRisky:
			agg.Risky++
		}
	}
	return agg
}

// alertUpstreamDown notifies once per outage: only the first failed refresh
// after a successful one fires, so a provider that stays down through many
// poll ticks produces one alert, not one per interval. Only called from the
// run loop, so failing needs no locking.
func (c *Controller) alertUpstreamDown(ctx context.Context, coll collection, err error) {
	if c.failing[coll] {
		return
	}
	c.failing[coll] = true

	if c.alerts == nil {
		return
	}
	title := "Upstream down: " + coll.String() + " pools not refreshing"
	msg := "last refresh failed: " + err.Error()
	if alertErr := c.alerts.Notify(ctx, notify.EventUpstreamDown, title, msg); alertErr != nil {
		c.logger.Error("alert dispatch failed", slog.String("error", alertErr.Error()))
	}
}

// detectDegradations compares each pool's standard-profile tier against its
// tier in the previous snapshot and alerts on any downgrade. Only called from
// the run loop, so prevTiers needs no locking.
func (c *Controller) detectDegradations(ctx context.Context, page domain.PoolPage) {
	for i := range page.Pools {
		pool := page.Pools[i]
		tier := display.PoolHealth(pool, display.ProfileStandard)
		prev, seen := c.prevTiers[pool.ID]
		c.prevTiers[pool.ID] = tier

		if !seen || !degraded(prev, tier) {
			continue
		}

		c.logger.Warn("pool health degraded",
			slog.String("pool", pool.ID),
			slog.String("from", string(prev)),
			slog.String("to", string(tier)),
		)
		if c.alerts != nil {
			title := "Pool health degraded: " + pool.Name
			msg := pool.ID + " moved from " + string(prev) + " to " + string(tier)
			if err := c.alerts.Notify(ctx, notify.EventHealthDegraded, title, msg); err != nil {
				c.logger.Error("alert dispatch failed", slog.String("error", err.Error()))
			}
		}
	}
}

// degraded reports whether a tier change is a downgrade.
func degraded(from, to domain.HealthTier) bool {
	rank := map[domain.HealthTier]int{
		domain.HealthHealthy: 2,
		domain.HealthWarning: 1,
		domain.HealthRisky:   0,
	}
	return rank[to] < rank[from]
}

// publish pushes the current snapshot to the update callback.
func (c *Controller) publish() {
	if c.onUpdate == nil {
		return
	}
	c.onUpdate(c.Snapshot())
}
