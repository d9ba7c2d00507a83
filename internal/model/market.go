package model

import (
	"math"
	"time"
)

// Bar represents a single sampled price observation.
// A missing close is stored as NaN.
type Bar struct {
	Time     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64
	Volume   int64
}

// HasClose reports whether the bar carries a closing price.
func (b Bar) HasClose() bool {
	return !math.IsNaN(b.Close)
}

// Closes extracts the closing prices of the given bars, in order.
func Closes(bars []Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// Report is what presenters receive after a successful evaluation.
type Report struct {
	Symbol      string
	Bars        []Bar
	Evaluation  Evaluation
	GeneratedAt time.Time
}

// BaselineColumn returns the baseline repeated once per bar, for plotting
// the flat baseline alongside the close series.
func (r *Report) BaselineColumn() []float64 {
	col := make([]float64, len(r.Bars))
	for i := range col {
		col[i] = r.Evaluation.Baseline
	}
	return col
}

// LastBar returns the most recent bar of the report, if any.
func (r *Report) LastBar() (Bar, bool) {
	if len(r.Bars) == 0 {
		return Bar{}, false
	}
	return r.Bars[len(r.Bars)-1], true
}
