package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"TradeRobot/internal/model"
)

// Key identifies one fetched history window.
type Key struct {
	Symbol string
	Start  time.Time
	End    time.Time
}

func (k Key) String() string {
	return fmt.Sprintf("history:%s:%s:%s", strings.ToUpper(k.Symbol), k.Start.Format("2006-01-02"), k.End.Format("2006-01-02"))
}

// Policy decides how long a cached window stays valid. Windows that reach
// today are still growing and expire after OpenRangeTTL.
type Policy struct {
	TTL          time.Duration
	OpenRangeTTL time.Duration
}

// TTLFor returns the expiry for key as seen at now.
func (p Policy) TTLFor(key Key, now time.Time) time.Duration {
	y, m, d := now.UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if !key.End.Before(today) {
		return p.OpenRangeTTL
	}
	return p.TTL
}

// HistoryCache stores fetched history windows.
type HistoryCache interface {
	Get(ctx context.Context, key Key) ([]model.Bar, bool, error)
	Set(ctx context.Context, key Key, bars []model.Bar) error
	Invalidate(ctx context.Context, key Key) error
	Close() error
}

// wireBar is the JSON shape of a cached bar. Prices are pointers because
// JSON has no NaN; a missing value is written as null.
type wireBar struct {
	T int64    `json:"t"`
	O *float64 `json:"o"`
	H *float64 `json:"h"`
	L *float64 `json:"l"`
	C *float64 `json:"c"`
	A *float64 `json:"a"`
	V int64    `json:"v"`
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func orNaN(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

func encodeBars(bars []model.Bar) ([]byte, error) {
	out := make([]wireBar, len(bars))
	for i, b := range bars {
		out[i] = wireBar{
			T: b.Time.Unix(),
			O: nullable(b.Open),
			H: nullable(b.High),
			L: nullable(b.Low),
			C: nullable(b.Close),
			A: nullable(b.AdjClose),
			V: b.Volume,
		}
	}
	return json.Marshal(out)
}

func decodeBars(data []byte) ([]model.Bar, error) {
	var in []wireBar
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("decode cached bars: %w", err)
	}
	bars := make([]model.Bar, len(in))
	for i, w := range in {
		bars[i] = model.Bar{
			Time:     time.Unix(w.T, 0).UTC(),
			Open:     orNaN(w.O),
			High:     orNaN(w.H),
			Low:      orNaN(w.L),
			Close:    orNaN(w.C),
			AdjClose: orNaN(w.A),
			Volume:   w.V,
		}
	}
	return bars, nil
}

// NoopCache never stores anything.
type NoopCache struct{}

func NewNoopCache() *NoopCache { return &NoopCache{} }

func (NoopCache) Get(context.Context, Key) ([]model.Bar, bool, error) { return nil, false, nil }
func (NoopCache) Set(context.Context, Key, []model.Bar) error          { return nil }
func (NoopCache) Invalidate(context.Context, Key) error                { return nil }
func (NoopCache) Close() error                                         { return nil }
