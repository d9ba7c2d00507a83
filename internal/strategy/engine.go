package strategy

import (
	"fmt"

	"TradeRobot/internal/calculator"
	"TradeRobot/internal/model"
)

// Decide maps the latest close, trend and baseline to an action.
//
//	price >= baseline and BULLISH -> SELL
//	price <  baseline and BEARISH -> BUY
//	anything else                 -> WAIT
func Decide(price float64, trend model.Trend, baseline float64) model.Decision {
	switch {
	case price >= baseline && trend == model.TrendBullish:
		return model.DecisionSell
	case price < baseline && trend == model.TrendBearish:
		return model.DecisionBuy
	default:
		return model.DecisionWait
	}
}

// Evaluate runs trend extraction and the robust baseline over the same
// snapshot and derives the decision. Any stage error aborts the evaluation.
func Evaluate(bars []model.Bar) (*model.Evaluation, error) {
	price, trend, err := calculator.ClassifyTrend(bars)
	if err != nil {
		return nil, fmt.Errorf("classify trend: %w", err)
	}
	baseline, err := calculator.RobustBaseline(bars)
	if err != nil {
		return nil, fmt.Errorf("robust baseline: %w", err)
	}
	return &model.Evaluation{
		Price:    price,
		Trend:    trend,
		Baseline: baseline,
		Decision: Decide(price, trend, baseline),
	}, nil
}
