package collector

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/shopspring/decimal"

	"TradeRobot/internal/model"
)

// FinanceGoFetcher implements Fetcher on top of the finance-go chart client.
type FinanceGoFetcher struct {
	now func() time.Time
}

// NewFinanceGoFetcher creates a fetcher backed by finance-go.
func NewFinanceGoFetcher() *FinanceGoFetcher {
	return &FinanceGoFetcher{now: time.Now}
}

func (f *FinanceGoFetcher) Name() string { return "financego" }

func (f *FinanceGoFetcher) FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]model.Bar, error) {
	return f.fetch(ctx, symbol, start, end, datetime.OneDay, true)
}

// FetchLatest returns today's five-minute bars.
func (f *FinanceGoFetcher) FetchLatest(ctx context.Context, symbol string) ([]model.Bar, error) {
	now := f.now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return f.fetch(ctx, symbol, start, now, datetime.FiveMins, false)
}

func (f *FinanceGoFetcher) fetch(ctx context.Context, symbol string, start, end time.Time, interval datetime.Interval, daily bool) ([]model.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	params := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: interval,
	}
	iter := chart.Get(params)

	var bars []model.Bar
	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b := iter.Bar()
		bars = append(bars, convertChartBar(b.Timestamp, b.Open, b.High, b.Low, b.Close, b.AdjClose, b.Volume, daily))
	}
	if err := iter.Err(); err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "not found") || strings.Contains(msg, "no data found") {
			return nil, fmt.Errorf("finance-go %s: %v: %w", symbol, err, ErrSymbolNotFound)
		}
		return nil, fmt.Errorf("finance-go %s: %v: %w", symbol, err, ErrSourceUnavailable)
	}
	return bars, nil
}

// convertChartBar maps a finance-go bar to model.Bar. finance-go reports a
// missing close as zero, which becomes NaN here.
func convertChartBar(ts int, open, high, low, close, adjClose decimal.Decimal, volume int, daily bool) model.Bar {
	t := time.Unix(int64(ts), 0).UTC()
	if daily {
		t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	c := math.NaN()
	if !close.IsZero() {
		c = close.InexactFloat64()
	}
	return model.Bar{
		Time:     t,
		Open:     open.InexactFloat64(),
		High:     high.InexactFloat64(),
		Low:      low.InexactFloat64(),
		Close:    c,
		AdjClose: adjClose.InexactFloat64(),
		Volume:   int64(volume),
	}
}
