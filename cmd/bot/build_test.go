package main

import (
	"path/filepath"
	"testing"

	"TradeRobot/internal/cache"
	"TradeRobot/internal/collector"
	"TradeRobot/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	return cfg
}

func TestBuildFetcher(t *testing.T) {
	tests := []struct {
		provider string
		name     string
		wantErr  bool
	}{
		{"yahoo", "yahoo", false},
		{"financego", "financego", false},
		{"mock", "mock", false},
		{"bloomberg", "", true},
	}
	for _, tt := range tests {
		cfg := testConfig(t)
		cfg.DataSource.Provider = tt.provider
		f, err := buildFetcher(cfg)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: unexpected error %v", tt.provider, err)
			continue
		}
		if err == nil && f.Name() != tt.name {
			t.Errorf("expected %s, got %s", tt.name, f.Name())
		}
	}
}

func TestBuildCache(t *testing.T) {
	cfg := testConfig(t)

	cfg.Cache.Backend = "none"
	if hc, err := buildCache(cfg); err != nil {
		t.Errorf("none: %v", err)
	} else if _, ok := hc.(*cache.NoopCache); !ok {
		t.Errorf("expected NoopCache, got %T", hc)
	}

	cfg.Cache.Backend = "sqlite"
	cfg.Cache.SQLitePath = filepath.Join(t.TempDir(), "nested", "cache.db")
	hc, err := buildCache(cfg)
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	defer hc.Close()
	if _, ok := hc.(*cache.SQLiteCache); !ok {
		t.Errorf("expected SQLiteCache, got %T", hc)
	}

	cfg.Cache.Backend = "tape"
	if _, err := buildCache(cfg); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestBuildCollector(t *testing.T) {
	cfg := testConfig(t)
	cfg.DataSource.Provider = "mock"
	cfg.Symbol = "AAPL"
	col, closeFn, err := buildCollector(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer closeFn()
	if col.Symbol() != "AAPL" {
		t.Errorf("expected AAPL, got %s", col.Symbol())
	}
	if _, ok := col.Fetcher.(*collector.MockFetcher); !ok {
		t.Errorf("expected mock fetcher, got %T", col.Fetcher)
	}
}
