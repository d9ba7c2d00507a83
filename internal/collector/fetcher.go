package collector

import (
	"context"
	"errors"
	"time"

	"TradeRobot/internal/model"
)

var (
	// ErrSourceUnavailable means the data source could not be reached or returned garbage.
	ErrSourceUnavailable = errors.New("data source unavailable")
	// ErrSymbolNotFound means the data source does not know the requested symbol.
	ErrSymbolNotFound = errors.New("symbol not found")
)

// Fetcher defines the interface for fetching price bars.
type Fetcher interface {
	// FetchHistory returns daily bars in [start, end).
	FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]model.Bar, error)
	// FetchLatest returns the intraday bars of the current session.
	FetchLatest(ctx context.Context, symbol string) ([]model.Bar, error)
	Name() string
}

// ErrorKind classifies a fetch error for metrics and logs.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrSymbolNotFound):
		return "symbol_not_found"
	case errors.Is(err, ErrSourceUnavailable):
		return "unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "other"
	}
}
