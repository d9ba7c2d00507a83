package calculator

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"TradeRobot/internal/model"
)

// Quantile returns the q-th quantile of an ascending slice using linear
// interpolation between the closest ranks (rank = q*(n-1)).
// The upper half of each interval is interpolated from the right-hand value
// so results match the usual numpy/pandas output bit for bit.
func Quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	rank := q * float64(n-1)
	lo := math.Floor(rank)
	i := int(lo)
	if i < 0 {
		return sorted[0]
	}
	if i >= n-1 {
		return sorted[n-1]
	}
	t := rank - lo
	a, b := sorted[i], sorted[i+1]
	diff := b - a
	if t >= 0.5 {
		return b - diff*(1-t)
	}
	return a + diff*t
}

// filterBars applies the cleaning steps ahead of the quartile cut:
// repeated timestamps (first kept), missing closes and non-positive volume.
func filterBars(bars []model.Bar) []float64 {
	seen := make(map[int64]struct{}, len(bars))
	closes := make([]float64, 0, len(bars))
	for _, b := range bars {
		key := b.Time.UnixNano()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if !b.HasClose() || b.Volume <= 0 {
			continue
		}
		closes = append(closes, b.Close)
	}
	return closes
}

// RobustBaseline computes the mean close of the bars lying inside their own
// [Q1, Q3] band, rounded to 2 decimals. The input is never modified.
func RobustBaseline(bars []model.Bar) (float64, error) {
	closes := filterBars(bars)
	if len(closes) == 0 {
		return 0, fmt.Errorf("baseline: %w", ErrEmptyAfterFiltering)
	}

	sorted := make([]float64, len(closes))
	copy(sorted, closes)
	sort.Float64s(sorted)
	q1 := Quantile(sorted, 0.25)
	q3 := Quantile(sorted, 0.75)

	sum := decimal.Zero
	kept := 0
	for _, c := range closes {
		if c >= q1 && c <= q3 {
			sum = sum.Add(decimal.NewFromFloat(c))
			kept++
		}
	}
	if kept == 0 {
		return 0, fmt.Errorf("baseline: quartile band [%.4f, %.4f] is empty: %w", q1, q3, ErrEmptyAfterFiltering)
	}

	mean := sum.Div(decimal.NewFromInt(int64(kept))).InexactFloat64()
	return roundCents(mean), nil
}

// roundCents rounds like numpy's round(x, 2): scale in float64, round half
// to even, scale back. 1.015 is 101.49999999999999 after scaling and so
// rounds down.
func roundCents(x float64) float64 {
	return math.RoundToEven(x*100) / 100
}
