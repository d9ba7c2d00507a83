package collector

import (
	"context"
	"time"

	"TradeRobot/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price      float64
	History    []model.Bar
	Latest     []model.Bar
	HistoryErr error
	LatestErr  error

	HistoryCalls int
	LatestCalls  int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchHistory(_ context.Context, _ string, start, end time.Time) ([]model.Bar, error) {
	m.HistoryCalls++
	if m.HistoryErr != nil {
		return nil, m.HistoryErr
	}
	if m.History != nil {
		return m.History, nil
	}
	return GenerateMockBars(m.Price, start, end), nil
}

func (m *MockFetcher) FetchLatest(_ context.Context, _ string) ([]model.Bar, error) {
	m.LatestCalls++
	if m.LatestErr != nil {
		return nil, m.LatestErr
	}
	return m.Latest, nil
}

// GenerateMockBars builds one weekday bar per day in [start, end) oscillating
// around basePrice.
func GenerateMockBars(basePrice float64, start, end time.Time) []model.Bar {
	if basePrice <= 0 {
		basePrice = 100
	}
	var bars []model.Bar
	i := 0
	for d := start.UTC(); d.Before(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		p := basePrice * (1 + float64(i%11-5)*0.002)
		bars = append(bars, model.Bar{
			Time:     time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC),
			Open:     p * 0.999,
			High:     p * 1.005,
			Low:      p * 0.995,
			Close:    p,
			AdjClose: p,
			Volume:   1_000_000,
		})
		i++
	}
	return bars
}
