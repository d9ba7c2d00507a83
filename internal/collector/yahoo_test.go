package collector

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const chartOK = `{"chart":{"result":[{
  "timestamp":[1724160600,1724247000,1724333400,1724419800],
  "indicators":{
    "quote":[{
      "open":[560.1,561.2,null,562.3],
      "high":[562.0,563.5,null,564.1],
      "low":[559.4,560.0,null,561.7],
      "close":[561.5,null,null,563.9],
      "volume":[35000000,0,null,41000000]
    }],
    "adjclose":[{"adjclose":[560.9,null,null,563.2]}]
  }}],"error":null}}`

const chartNotFound = `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`

func newTestYahoo(t *testing.T, handler http.HandlerFunc) *YahooFetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewYahooFetcher(YahooOptions{BaseURL: srv.URL, Timeout: 5 * time.Second})
}

func TestYahooFetcher_FetchHistory(t *testing.T) {
	var gotPath, gotInterval string
	f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		gotInterval = r.URL.Query().Get("interval")
		_, _ = w.Write([]byte(chartOK))
	})

	start := time.Date(2024, 8, 20, 0, 0, 0, 0, time.UTC)
	bars, err := f.FetchHistory(context.Background(), "SPX500", start, start.AddDate(0, 0, 5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/v8/finance/chart/%5EGSPC" {
		t.Errorf("expected mapped symbol in path, got %s", gotPath)
	}
	if gotInterval != "1d" {
		t.Errorf("expected interval 1d, got %s", gotInterval)
	}
	if len(bars) != 3 {
		t.Fatalf("expected 3 bars (empty slot skipped), got %d", len(bars))
	}
	if !bars[0].Time.Equal(time.Date(2024, 8, 20, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected daily bar at midnight, got %v", bars[0].Time)
	}
	if bars[0].Close != 561.5 || bars[0].AdjClose != 560.9 || bars[0].Volume != 35000000 {
		t.Errorf("unexpected first bar %+v", bars[0])
	}
	if !math.IsNaN(bars[1].Close) {
		t.Errorf("expected null close to become NaN, got %v", bars[1].Close)
	}
}

func TestYahooFetcher_FetchLatestKeepsIntradayTime(t *testing.T) {
	var gotRange string
	f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
		gotRange = r.URL.Query().Get("range")
		_, _ = w.Write([]byte(chartOK))
	})
	bars, err := f.FetchLatest(context.Background(), "SPY")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotRange != "1d" {
		t.Errorf("expected range 1d, got %s", gotRange)
	}
	if bars[0].Time.Unix() != 1724160600 {
		t.Errorf("expected exact timestamp, got %v", bars[0].Time)
	}
}

func TestYahooFetcher_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unknown symbol", http.StatusNotFound, chartNotFound, ErrSymbolNotFound},
		{"empty result", http.StatusOK, `{"chart":{"result":[],"error":null}}`, ErrSymbolNotFound},
		{"server error", http.StatusInternalServerError, `oops`, ErrSourceUnavailable},
		{"garbage", http.StatusOK, `<html>`, ErrSourceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestYahoo(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := f.FetchLatest(context.Background(), "NOPE")
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestYahooFetcher_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	f := NewYahooFetcher(YahooOptions{BaseURL: url, Timeout: time.Second})
	if _, err := f.FetchLatest(context.Background(), "SPY"); !errors.Is(err, ErrSourceUnavailable) {
		t.Errorf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestErrorKind(t *testing.T) {
	if got := ErrorKind(ErrSymbolNotFound); got != "symbol_not_found" {
		t.Errorf("unexpected kind %s", got)
	}
	if got := ErrorKind(errors.New("x")); got != "other" {
		t.Errorf("unexpected kind %s", got)
	}
}
