package calculator

import (
	"errors"

	"TradeRobot/internal/model"
)

var (
	// ErrInsufficientData is returned when fewer than two bars are available for trend extraction.
	ErrInsufficientData = errors.New("insufficient data: need at least 2 bars")
	// ErrEmptyAfterFiltering is returned when no bar survives the baseline filters.
	ErrEmptyAfterFiltering = errors.New("no bars left after filtering")
)

// ClassifyTrend compares the last two closes and returns the latest close with its direction.
// Equal closes are LATERAL; no tolerance is applied.
func ClassifyTrend(bars []model.Bar) (float64, model.Trend, error) {
	if len(bars) < 2 {
		return 0, "", ErrInsufficientData
	}
	current := bars[len(bars)-1].Close
	previous := bars[len(bars)-2].Close

	switch {
	case current > previous:
		return current, model.TrendBullish, nil
	case current < previous:
		return current, model.TrendBearish, nil
	default:
		return current, model.TrendLateral, nil
	}
}
