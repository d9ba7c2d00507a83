package render

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	"TradeRobot/internal/model"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			Width(10)
)

// ConsoleRenderer prints a short evaluation summary to a terminal.
type ConsoleRenderer struct {
	Out io.Writer
}

// NewConsoleRenderer writes to out, or stdout when out is nil.
func NewConsoleRenderer(out io.Writer) *ConsoleRenderer {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleRenderer{Out: out}
}

func (c *ConsoleRenderer) Name() string { return "console" }

func (c *ConsoleRenderer) Present(_ context.Context, report *model.Report) error {
	_, err := io.WriteString(c.Out, FormatConsole(report)+"\n")
	return err
}

// FormatConsole renders the report summary with the decision in its colour.
func FormatConsole(report *model.Report) string {
	ev := report.Evaluation
	decision := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(DecisionHex(ev.Decision))).
		Render(string(ev.Decision))

	asOf := report.GeneratedAt
	if last, ok := report.LastBar(); ok {
		asOf = last.Time
	}
	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Render(fmt.Sprintf("%s @ %s", report.Symbol, asOf.Format("2006-01-02 15:04"))),
		row("Price", fmt.Sprintf("%.2f", ev.Price)),
		row("Trend", string(ev.Trend)),
		row("Baseline", fmt.Sprintf("%.2f", ev.Baseline)),
		row("Decision", decision),
	)
}
