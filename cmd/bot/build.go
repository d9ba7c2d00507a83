package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"TradeRobot/internal/cache"
	"TradeRobot/internal/collector"
	"TradeRobot/internal/config"
)

func buildFetcher(cfg *config.Config) (collector.Fetcher, error) {
	switch cfg.DataSource.Provider {
	case "yahoo":
		return collector.NewYahooFetcher(collector.YahooOptions{
			BaseURL:          cfg.DataSource.BaseURL,
			Proxy:            cfg.Proxy,
			Timeout:          cfg.DataSource.Timeout,
			Retries:          cfg.DataSource.Retries,
			IntradayInterval: cfg.Intraday.Interval,
			IntradayRange:    cfg.Intraday.Range,
		}), nil
	case "financego":
		return collector.NewFinanceGoFetcher(), nil
	case "mock":
		return &collector.MockFetcher{Price: 500}, nil
	default:
		return nil, fmt.Errorf("unknown data provider %q", cfg.DataSource.Provider)
	}
}

func buildCache(cfg *config.Config) (cache.HistoryCache, error) {
	policy := cache.Policy{TTL: cfg.Cache.TTL, OpenRangeTTL: cfg.Cache.OpenRangeTTL}
	switch cfg.Cache.Backend {
	case "none":
		return cache.NewNoopCache(), nil
	case "memory":
		return cache.NewMemoryCache(policy), nil
	case "sqlite":
		if dir := filepath.Dir(cfg.Cache.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create cache dir: %w", err)
			}
		}
		return cache.NewSQLiteCache(cfg.Cache.SQLitePath, policy)
	case "redis":
		r := cfg.Cache.Redis
		return cache.NewRedisCache(cache.RedisOptions{
			Addr:     r.Addr,
			Password: r.Password,
			DB:       r.DB,
			Prefix:   r.Prefix,
		}, policy)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// buildCollector wires fetcher and cache. The returned func closes the cache.
func buildCollector(cfg *config.Config) (*collector.Collector, func(), error) {
	fetcher, err := buildFetcher(cfg)
	if err != nil {
		return nil, nil, err
	}
	hc, err := buildCache(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init %s cache: %w", cfg.Cache.Backend, err)
	}
	start, end, err := cfg.HistoryRange(time.Now())
	if err != nil {
		hc.Close()
		return nil, nil, err
	}
	log.Info().Str("source", fetcher.Name()).Str("cache", cfg.Cache.Backend).
		Str("start", start.Format(config.DateLayout)).Str("end", end.Format(config.DateLayout)).
		Msg("collector configured")

	col := collector.NewCollector(fetcher, hc, collector.Options{
		Symbol:   cfg.Symbol,
		Start:    start,
		End:      end,
		Intraday: cfg.Intraday.Enabled,
	})
	closeFn := func() {
		if err := hc.Close(); err != nil {
			log.Warn().Err(err).Msg("close history cache")
		}
	}
	return col, closeFn, nil
}
