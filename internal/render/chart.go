package render

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"

	"TradeRobot/internal/model"
)

var chartBackground = color.RGBA{R: 0xe8, G: 0xde, B: 0xe1, A: 0xff}

// ChartRenderer draws the close series, the flat baseline and the decision
// annotation into a PNG.
type ChartRenderer struct {
	Path   string
	Width  vg.Length
	Height vg.Length
}

// NewChartRenderer creates a renderer writing to path. Sizes are in inches;
// zero values fall back to 16x5.
func NewChartRenderer(path string, widthInch, heightInch float64) *ChartRenderer {
	if widthInch <= 0 {
		widthInch = 16
	}
	if heightInch <= 0 {
		heightInch = 5
	}
	return &ChartRenderer{
		Path:   path,
		Width:  vg.Length(widthInch) * vg.Inch,
		Height: vg.Length(heightInch) * vg.Inch,
	}
}

func (r *ChartRenderer) Name() string { return "chart" }

// Present renders the report and replaces the file at Path.
func (r *ChartRenderer) Present(_ context.Context, report *model.Report) error {
	if err := os.MkdirAll(filepath.Dir(r.Path), 0o755); err != nil {
		return fmt.Errorf("create chart dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(r.Path), ".chart-*.png")
	if err != nil {
		return fmt.Errorf("create temp chart: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := r.WriteTo(tmp, report); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp chart: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.Path); err != nil {
		return fmt.Errorf("replace chart: %w", err)
	}
	log.Debug().Str("path", r.Path).Str("decision", string(report.Evaluation.Decision)).Msg("chart written")
	return nil
}

// WriteTo encodes the chart for report as PNG into w.
func (r *ChartRenderer) WriteTo(w io.Writer, report *model.Report) (int64, error) {
	p, err := r.build(report)
	if err != nil {
		return 0, err
	}
	wt, err := p.WriterTo(r.Width, r.Height, "png")
	if err != nil {
		return 0, fmt.Errorf("encode chart: %w", err)
	}
	return wt.WriteTo(w)
}

func (r *ChartRenderer) build(report *model.Report) (*plot.Plot, error) {
	closes := make(plotter.XYs, 0, len(report.Bars))
	for _, b := range report.Bars {
		if !b.HasClose() {
			continue
		}
		closes = append(closes, plotter.XY{X: float64(b.Time.Unix()), Y: b.Close})
	}
	if len(closes) == 0 {
		return nil, fmt.Errorf("chart %s: no closes to draw", report.Symbol)
	}

	ev := report.Evaluation
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s close vs robust baseline", report.Symbol)
	p.X.Label.Text = "Date"
	p.Y.Label.Text = "Price"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	p.BackgroundColor = chartBackground
	p.Add(plotter.NewGrid())

	closeLine, err := plotter.NewLine(closes)
	if err != nil {
		return nil, fmt.Errorf("close line: %w", err)
	}
	closeLine.LineStyle.Color = color.RGBA{B: 0xff, A: 0xff}
	closeLine.LineStyle.Width = vg.Points(1)
	p.Add(closeLine)
	p.Legend.Add("Close", closeLine)

	if !math.IsNaN(ev.Baseline) {
		column := report.BaselineColumn()
		baseXYs := make(plotter.XYs, 0, len(column))
		for i, b := range report.Bars {
			baseXYs = append(baseXYs, plotter.XY{X: float64(b.Time.Unix()), Y: column[i]})
		}
		baseLine, err := plotter.NewLine(baseXYs)
		if err != nil {
			return nil, fmt.Errorf("baseline line: %w", err)
		}
		baseLine.LineStyle.Color = color.RGBA{R: 0xff, A: 0xff}
		baseLine.LineStyle.Width = vg.Points(1)
		baseLine.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(3), vg.Points(1), vg.Points(3)}
		p.Add(baseLine)
		p.Legend.Add(fmt.Sprintf("Baseline %.2f", ev.Baseline), baseLine)
	}
	p.Legend.Top = true
	p.Legend.Left = true

	anchor := closes[len(closes)-1]
	labels, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{anchor},
		Labels: []string{fmt.Sprintf("Decision: %s", ev.Decision)},
	})
	if err != nil {
		return nil, fmt.Errorf("decision label: %w", err)
	}
	style := labels.TextStyle[0]
	style.Color = DecisionRGBA(ev.Decision)
	style.XAlign = text.XRight
	labels.TextStyle[0] = style
	labels.Offset = vg.Point{X: -vg.Points(4), Y: vg.Points(6)}
	p.Add(labels)

	return p, nil
}
