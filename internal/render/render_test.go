package render

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"TradeRobot/internal/model"
)

func sampleReport(decision model.Decision) *model.Report {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	var bars []model.Bar
	for i, c := range []float64{100, 102, math.NaN(), 101, 99, 103} {
		bars = append(bars, model.Bar{Time: start.AddDate(0, 0, i), Close: c, Volume: 10})
	}
	return &model.Report{
		Symbol: "SPY",
		Bars:   bars,
		Evaluation: model.Evaluation{
			Price:    103,
			Trend:    model.TrendBullish,
			Baseline: 101,
			Decision: decision,
		},
		GeneratedAt: start.AddDate(0, 0, 6),
	}
}

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestDecisionColours(t *testing.T) {
	tests := []struct {
		decision model.Decision
		hex      string
	}{
		{model.DecisionSell, "#008000"},
		{model.DecisionBuy, "#FF0000"},
		{model.DecisionWait, "#A52A2A"},
		{model.Decision("???"), "#A52A2A"},
	}
	for _, tt := range tests {
		if got := DecisionHex(tt.decision); got != tt.hex {
			t.Errorf("%s: expected %s, got %s", tt.decision, tt.hex, got)
		}
	}
	if DecisionRGBA(model.DecisionSell).G != 0x80 {
		t.Errorf("expected SELL to be drawn green")
	}
	if DecisionRGBA(model.DecisionBuy).R != 0xff {
		t.Errorf("expected BUY to be drawn red")
	}
}

func TestChartRenderer_WriteTo(t *testing.T) {
	r := NewChartRenderer("", 0, 0)
	var buf bytes.Buffer
	n, err := r.WriteTo(&buf, sampleReport(model.DecisionSell))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n == 0 || !bytes.HasPrefix(buf.Bytes(), pngMagic) {
		t.Errorf("expected PNG output, got %d bytes", n)
	}
}

func TestChartRenderer_PresentReplacesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "chart.png")
	r := NewChartRenderer(path, 8, 3)

	for _, d := range []model.Decision{model.DecisionBuy, model.DecisionWait} {
		if err := r.Present(context.Background(), sampleReport(d)); err != nil {
			t.Fatalf("present %s: %v", d, err)
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read chart: %v", err)
	}
	if !bytes.HasPrefix(data, pngMagic) {
		t.Errorf("expected PNG file")
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected temp files cleaned up, found %d entries", len(entries))
	}
}

func TestChartRenderer_NoCloses(t *testing.T) {
	report := sampleReport(model.DecisionWait)
	for i := range report.Bars {
		report.Bars[i].Close = math.NaN()
	}
	var buf bytes.Buffer
	if _, err := NewChartRenderer("", 0, 0).WriteTo(&buf, report); err == nil {
		t.Error("expected error for a series without closes")
	}
}

func TestConsoleRenderer(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleRenderer(&buf)
	if err := c.Present(context.Background(), sampleReport(model.DecisionBuy)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"SPY @ 2024-03-06", "103.00", "BULLISH", "101.00", "BUY"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}
