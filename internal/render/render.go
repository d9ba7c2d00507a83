package render

import (
	"context"
	"image/color"

	"TradeRobot/internal/model"
)

// Presenter publishes a successful evaluation somewhere (file, terminal, chat).
type Presenter interface {
	Name() string
	Present(ctx context.Context, report *model.Report) error
}

// Hex colours matching Decision.Color names.
var decisionHex = map[model.Decision]string{
	model.DecisionSell: "#008000",
	model.DecisionBuy:  "#FF0000",
	model.DecisionWait: "#A52A2A",
}

// DecisionHex returns the hex colour used to draw a decision.
func DecisionHex(d model.Decision) string {
	if h, ok := decisionHex[d]; ok {
		return h
	}
	return decisionHex[model.DecisionWait]
}

// DecisionRGBA returns the decision colour as an image colour.
func DecisionRGBA(d model.Decision) color.RGBA {
	switch d {
	case model.DecisionSell:
		return color.RGBA{R: 0x00, G: 0x80, B: 0x00, A: 0xff}
	case model.DecisionBuy:
		return color.RGBA{R: 0xff, G: 0x00, B: 0x00, A: 0xff}
	default:
		return color.RGBA{R: 0xa5, G: 0x2a, B: 0x2a, A: 0xff}
	}
}
