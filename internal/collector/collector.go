package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"TradeRobot/internal/cache"
	"TradeRobot/internal/model"
	"TradeRobot/internal/series"
)

// Options configures a Collector.
type Options struct {
	Symbol   string
	Start    time.Time
	End      time.Time
	Intraday bool
}

// Collector fetches bars and keeps the series store up to date.
type Collector struct {
	Fetcher Fetcher
	Cache   cache.HistoryCache
	Store   *series.Store

	symbol   string
	start    time.Time
	end      time.Time
	intraday bool
	now      func() time.Time
}

// NewCollector creates a Collector with an empty store. A nil cache disables caching.
func NewCollector(fetcher Fetcher, hc cache.HistoryCache, opts Options) *Collector {
	if hc == nil {
		hc = cache.NewNoopCache()
	}
	return &Collector{
		Fetcher:  fetcher,
		Cache:    hc,
		Store:    series.NewStore(opts.Symbol, nil),
		symbol:   opts.Symbol,
		start:    opts.Start,
		end:      opts.End,
		intraday: opts.Intraday,
		now:      time.Now,
	}
}

// Symbol returns the tracked instrument.
func (c *Collector) Symbol() string { return c.symbol }

// History returns the configured daily history, served from the cache when possible.
func (c *Collector) History(ctx context.Context) ([]model.Bar, error) {
	key := cache.Key{Symbol: c.symbol, Start: c.start, End: c.end}

	bars, ok, err := c.Cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key.String()).Msg("history cache read failed, fetching")
	}
	if ok {
		log.Debug().Str("key", key.String()).Int("bars", len(bars)).Msg("history served from cache")
		return bars, nil
	}

	bars, err = c.Fetcher.FetchHistory(ctx, c.symbol, c.start, c.end)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	if err := c.Cache.Set(ctx, key, bars); err != nil {
		log.Warn().Err(err).Str("key", key.String()).Msg("history cache write failed")
	}
	return bars, nil
}

// InvalidateHistory drops the cached history window.
func (c *Collector) InvalidateHistory(ctx context.Context) error {
	return c.Cache.Invalidate(ctx, cache.Key{Symbol: c.symbol, Start: c.start, End: c.end})
}

// Bootstrap loads history and, when enabled, the current session's intraday
// bars into the store. Nothing is merged unless every fetch succeeds.
func (c *Collector) Bootstrap(ctx context.Context) error {
	history, err := c.History(ctx)
	if err != nil {
		return err
	}
	var latest []model.Bar
	if c.intraday {
		latest, err = c.Fetcher.FetchLatest(ctx, c.symbol)
		if err != nil {
			return fmt.Errorf("fetch latest: %w", err)
		}
	}
	c.Store.Merge(history)
	c.Store.Merge(latest)
	log.Info().Str("symbol", c.symbol).Str("source", c.Fetcher.Name()).
		Int("history", len(history)).Int("intraday", len(latest)).Int("bars", c.Store.Len()).
		Msg("series bootstrapped")
	return nil
}

// Refresh fetches the newest bars and merges them into the store. It returns
// the number of new timestamps. Without intraday data it re-reads daily bars
// from the last stored day onwards.
func (c *Collector) Refresh(ctx context.Context) (int, error) {
	var (
		bars []model.Bar
		err  error
	)
	if c.intraday {
		bars, err = c.Fetcher.FetchLatest(ctx, c.symbol)
		if err != nil {
			return 0, fmt.Errorf("fetch latest: %w", err)
		}
	} else {
		from := c.start
		if last, ok := c.Store.Last(); ok {
			from = last.Time
		}
		now := c.now().UTC()
		to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
		bars, err = c.Fetcher.FetchHistory(ctx, c.symbol, from, to)
		if err != nil {
			return 0, fmt.Errorf("fetch recent history: %w", err)
		}
	}
	added := c.Store.Merge(bars)
	log.Debug().Str("symbol", c.symbol).Int("fetched", len(bars)).Int("added", added).Msg("series refreshed")
	return added, nil
}
