package strategy

import (
	"errors"
	"math"
	"testing"
	"time"

	"TradeRobot/internal/calculator"
	"TradeRobot/internal/model"
)

func barsFromCloses(closes ...float64) []model.Bar {
	start := time.Date(2024, 8, 20, 0, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		bars[i] = model.Bar{Time: start.AddDate(0, 0, i), Close: c, Volume: 500}
	}
	return bars
}

func TestDecide_RuleTable(t *testing.T) {
	tests := []struct {
		price    float64
		trend    model.Trend
		baseline float64
		want     model.Decision
	}{
		{110, model.TrendBullish, 100, model.DecisionSell},
		{100, model.TrendBullish, 100, model.DecisionSell},
		{90, model.TrendBullish, 100, model.DecisionWait},
		{90, model.TrendBearish, 100, model.DecisionBuy},
		{100, model.TrendBearish, 100, model.DecisionWait},
		{110, model.TrendBearish, 100, model.DecisionWait},
		{110, model.TrendLateral, 100, model.DecisionWait},
		{100, model.TrendLateral, 100, model.DecisionWait},
		{90, model.TrendLateral, 100, model.DecisionWait},
	}
	for _, tt := range tests {
		if got := Decide(tt.price, tt.trend, tt.baseline); got != tt.want {
			t.Errorf("Decide(%.0f, %s, %.0f): expected %s, got %s", tt.price, tt.trend, tt.baseline, tt.want, got)
		}
	}
}

func TestDecide_BoundaryIsExact(t *testing.T) {
	if got := Decide(101.00, model.TrendBullish, 101.00); got != model.DecisionSell {
		t.Errorf("price == baseline with BULLISH: expected SELL, got %s", got)
	}
	if got := Decide(101.00, model.TrendBearish, 101.00); got != model.DecisionWait {
		t.Errorf("price == baseline with BEARISH: expected WAIT, got %s", got)
	}
	if got := Decide(100.99, model.TrendBearish, 101.00); got != model.DecisionBuy {
		t.Errorf("price just below baseline with BEARISH: expected BUY, got %s", got)
	}
}

func TestDecide_NaNPriceWaits(t *testing.T) {
	for _, trend := range []model.Trend{model.TrendBullish, model.TrendBearish, model.TrendLateral} {
		if got := Decide(math.NaN(), trend, 100); got != model.DecisionWait {
			t.Errorf("NaN price with %s: expected WAIT, got %s", trend, got)
		}
	}
}

func TestEvaluate_SellScenario(t *testing.T) {
	ev, err := Evaluate(barsFromCloses(100, 102, 101, 99, 103))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Baseline != 101.00 {
		t.Errorf("expected baseline 101.00, got %.2f", ev.Baseline)
	}
	if ev.Price != 103 {
		t.Errorf("expected price 103, got %.2f", ev.Price)
	}
	if ev.Trend != model.TrendBullish {
		t.Errorf("expected BULLISH, got %s", ev.Trend)
	}
	if ev.Decision != model.DecisionSell {
		t.Errorf("expected SELL, got %s", ev.Decision)
	}
}

func TestEvaluate_BuyScenario(t *testing.T) {
	ev, err := Evaluate(barsFromCloses(100, 102, 101, 103, 99))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Trend != model.TrendBearish || ev.Decision != model.DecisionBuy {
		t.Errorf("expected BEARISH/BUY, got %s/%s", ev.Trend, ev.Decision)
	}
}

func TestEvaluate_SingleBar(t *testing.T) {
	_, err := Evaluate(barsFromCloses(100))
	if !errors.Is(err, calculator.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestEvaluate_AllMissingCloses(t *testing.T) {
	_, err := Evaluate(barsFromCloses(math.NaN(), math.NaN(), math.NaN()))
	if !errors.Is(err, calculator.ErrEmptyAfterFiltering) {
		t.Errorf("expected ErrEmptyAfterFiltering, got %v", err)
	}
}
