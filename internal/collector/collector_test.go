package collector

import (
	"context"
	"errors"
	"math"
	"net/http"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"TradeRobot/internal/cache"
	"TradeRobot/internal/model"
)

var (
	rangeStart = time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	rangeEnd   = time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
)

func newTestCollector(f Fetcher, hc cache.HistoryCache, intraday bool) *Collector {
	return NewCollector(f, hc, Options{Symbol: "SPY", Start: rangeStart, End: rangeEnd, Intraday: intraday})
}

func TestCollector_BootstrapMergesIntraday(t *testing.T) {
	history := GenerateMockBars(500, rangeStart, rangeEnd)
	last := history[len(history)-1]
	f := &MockFetcher{
		History: history,
		Latest: []model.Bar{
			{Time: last.Time, Close: 1, Volume: 1}, // duplicate timestamp, history wins
			{Time: last.Time.Add(14 * time.Hour), Close: 505, Volume: 10},
		},
	}
	c := newTestCollector(f, nil, true)
	if err := c.Bootstrap(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Store.Len() != len(history)+1 {
		t.Fatalf("expected %d bars, got %d", len(history)+1, c.Store.Len())
	}
	bars := c.Store.Bars()
	if bars[len(bars)-2].Close != last.Close {
		t.Errorf("expected history bar to win, got close %v", bars[len(bars)-2].Close)
	}
	if bars[len(bars)-1].Close != 505 {
		t.Errorf("expected intraday bar last, got %v", bars[len(bars)-1].Close)
	}
}

func TestCollector_HistoryUsesCache(t *testing.T) {
	f := &MockFetcher{Price: 400}
	hc := cache.NewMemoryCache(cache.Policy{TTL: time.Hour, OpenRangeTTL: time.Minute})
	c := newTestCollector(f, hc, false)

	first, err := c.History(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := c.History(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.HistoryCalls != 1 {
		t.Errorf("expected 1 upstream call, got %d", f.HistoryCalls)
	}
	if len(first) != len(second) {
		t.Errorf("expected cached copy of %d bars, got %d", len(first), len(second))
	}

	if err := c.InvalidateHistory(context.Background()); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := c.History(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.HistoryCalls != 2 {
		t.Errorf("expected refetch after invalidate, got %d calls", f.HistoryCalls)
	}
}

func TestCollector_BootstrapFailureLeavesStoreEmpty(t *testing.T) {
	f := &MockFetcher{Price: 400, LatestErr: ErrSourceUnavailable}
	c := newTestCollector(f, nil, true)
	err := c.Bootstrap(context.Background())
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if c.Store.Len() != 0 {
		t.Errorf("expected empty store, got %d bars", c.Store.Len())
	}
}

func TestCollector_HistoryErrorPropagates(t *testing.T) {
	f := &MockFetcher{HistoryErr: ErrSymbolNotFound}
	c := newTestCollector(f, nil, false)
	if err := c.Bootstrap(context.Background()); !errors.Is(err, ErrSymbolNotFound) {
		t.Errorf("expected ErrSymbolNotFound, got %v", err)
	}
}

func TestCollector_RefreshIntraday(t *testing.T) {
	f := &MockFetcher{Price: 400}
	c := newTestCollector(f, nil, true)
	if err := c.Bootstrap(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := c.Store.Len()
	f.Latest = []model.Bar{{Time: rangeEnd.Add(15 * time.Hour), Close: 401, Volume: 5}}

	added, err := c.Refresh(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added != 1 || c.Store.Len() != before+1 {
		t.Errorf("expected 1 new bar, got added=%d len=%d", added, c.Store.Len())
	}
	added, _ = c.Refresh(context.Background())
	if added != 0 {
		t.Errorf("expected repeated batch to add nothing, got %d", added)
	}
}

func TestCollector_RefreshDailyFromLastBar(t *testing.T) {
	f := &MockFetcher{Price: 400}
	c := newTestCollector(f, nil, false)
	c.now = func() time.Time { return rangeEnd.AddDate(0, 0, 3) }
	if err := c.Bootstrap(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := c.Store.Len()
	added, err := c.Refresh(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Aug 1 and 2 2024 are weekdays, Aug 3 and 4 a weekend.
	if added != 2 || c.Store.Len() != before+2 {
		t.Errorf("expected 2 new daily bars, got added=%d", added)
	}
}

func TestCollector_RefreshErrorDoesNotTouchStore(t *testing.T) {
	f := &MockFetcher{Price: 400}
	c := newTestCollector(f, nil, true)
	_ = c.Bootstrap(context.Background())
	before := c.Store.Len()
	f.LatestErr = ErrSourceUnavailable
	if _, err := c.Refresh(context.Background()); !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if c.Store.Len() != before {
		t.Errorf("store changed on failed refresh")
	}
}

func TestCollector_CachesHistoryWithMissingClose(t *testing.T) {
	var hits atomic.Int32
	f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(chartOK))
	})
	hc, err := cache.NewSQLiteCache(filepath.Join(t.TempDir(), "cache.db"), cache.Policy{TTL: time.Hour, OpenRangeTTL: time.Minute})
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer hc.Close()
	c := newTestCollector(f, hc, false)

	if _, err := c.History(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bars, err := c.History(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("expected second read served from cache, got %d upstream calls", got)
	}
	if len(bars) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(bars))
	}
	if !math.IsNaN(bars[1].Close) || !math.IsNaN(bars[1].AdjClose) {
		t.Errorf("expected missing close to survive the cache, got close=%v adj=%v", bars[1].Close, bars[1].AdjClose)
	}
	if bars[0].Close != 561.5 {
		t.Errorf("expected 561.5, got %v", bars[0].Close)
	}
}

func TestCollector_RefreshDailyKeepsStoredDay(t *testing.T) {
	day := time.Date(2024, 7, 31, 0, 0, 0, 0, time.UTC)
	f := &MockFetcher{History: []model.Bar{{Time: day, Close: 100, Volume: 1}}}
	c := newTestCollector(f, nil, false)
	c.now = func() time.Time { return day.Add(15 * time.Hour) }
	if err := c.Bootstrap(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// same session, upstream close moved
	f.History = []model.Bar{{Time: day, Close: 105, Volume: 2}}
	added, err := c.Refresh(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last, _ := c.Store.Last()
	if added != 0 || last.Close != 100 {
		t.Errorf("expected stored bar kept (first wins), got added=%d close=%v", added, last.Close)
	}
}
