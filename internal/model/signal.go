package model

// Trend is the short-term direction derived from the two latest closes.
type Trend string

const (
	TrendBullish Trend = "BULLISH"
	TrendBearish Trend = "BEARISH"
	TrendLateral Trend = "LATERAL"
)

// Decision is the action suggested for the current bar.
type Decision string

const (
	DecisionSell Decision = "SELL"
	DecisionBuy  Decision = "BUY"
	DecisionWait Decision = "WAIT"
)

// Color returns the fixed presentation colour for the decision.
// SELL is green and BUY is red; keep it that way.
func (d Decision) Color() string {
	switch d {
	case DecisionSell:
		return "green"
	case DecisionBuy:
		return "red"
	default:
		return "brown"
	}
}

// Evaluation is the output of one pipeline run.
type Evaluation struct {
	Price    float64
	Trend    Trend
	Baseline float64
	Decision Decision
}
