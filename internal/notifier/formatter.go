package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"TradeRobot/internal/model"
)

var decisionEmoji = map[model.Decision]string{
	model.DecisionSell: "🟢",
	model.DecisionBuy:  "🔴",
	model.DecisionWait: "🟤",
}

// FormatDecisionReport formats an evaluation into a Telegram message.
func FormatDecisionReport(report *model.Report) string {
	ev := report.Evaluation
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %s\n\n", html.EscapeString(report.Symbol), report.GeneratedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Price: %.2f\n", ev.Price))
	b.WriteString(fmt.Sprintf("Trend: %s\n", ev.Trend))
	if ev.Baseline > 0 {
		dev := (ev.Price - ev.Baseline) / ev.Baseline * 100
		b.WriteString(fmt.Sprintf("Baseline: %.2f (%+.1f%%)\n", ev.Baseline, dev))
	} else {
		b.WriteString(fmt.Sprintf("Baseline: %.2f\n", ev.Baseline))
	}
	b.WriteString(fmt.Sprintf("\n%s <b>Decision: %s</b>\n", decisionEmoji[ev.Decision], ev.Decision))
	b.WriteString(fmt.Sprintf("Bars: %d", len(report.Bars)))
	return b.String()
}

// FormatFailure formats a failed cycle notice.
func FormatFailure(symbol string, err error, at time.Time) string {
	return fmt.Sprintf("⚠️ <b>%s</b> evaluation failed at %s\n<code>%s</code>",
		html.EscapeString(symbol), at.Format("2006-01-02 15:04"), html.EscapeString(err.Error()))
}

// HelpText lists the supported bot commands.
func HelpText() string {
	return "<b>Commands</b>\n" +
		"/decision - latest decision\n" +
		"/refresh - run an evaluation now\n" +
		"/help - this message"
}
