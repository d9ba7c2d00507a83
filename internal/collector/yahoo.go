package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"TradeRobot/internal/model"
)

// DefaultYahooBaseURL is the public Yahoo Finance query host.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooOptions configures a YahooFetcher.
type YahooOptions struct {
	BaseURL          string
	Proxy            string
	Timeout          time.Duration
	Retries          int
	IntradayInterval string // e.g. "5m"
	IntradayRange    string // e.g. "1d"
}

// YahooFetcher implements Fetcher using the Yahoo Finance chart API.
type YahooFetcher struct {
	client           *resty.Client
	intradayInterval string
	intradayRange    string
	SymbolMap        map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(opts YahooOptions) *YahooFetcher {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultYahooBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.IntradayInterval == "" {
		opts.IntradayInterval = "5m"
	}
	if opts.IntradayRange == "" {
		opts.IntradayRange = "1d"
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("User-Agent", "Mozilla/5.0").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
	if opts.Proxy != "" {
		client.SetProxy(opts.Proxy)
	}

	return &YahooFetcher{
		client:           client,
		intradayInterval: opts.IntradayInterval,
		intradayRange:    opts.IntradayRange,
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[strings.ToUpper(symbol)]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
// Values are pointers because Yahoo returns null for missing samples.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func (f *YahooFetcher) fetchChart(ctx context.Context, symbol string, params map[string]string, daily bool) ([]model.Bar, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetPathParam("symbol", f.yahooSymbol(symbol)).
		SetQueryParams(params).
		Get("/v8/finance/chart/{symbol}")
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("yahoo fetch %s: %v: %w", symbol, err, ErrSourceUnavailable)
	}

	var chart yahooChart
	decodeErr := json.Unmarshal(resp.Body(), &chart)

	if decodeErr == nil && chart.Chart.Error != nil {
		if resp.StatusCode() == http.StatusNotFound || strings.EqualFold(chart.Chart.Error.Code, "Not Found") {
			return nil, fmt.Errorf("yahoo %s: %s: %w", symbol, chart.Chart.Error.Description, ErrSymbolNotFound)
		}
		return nil, fmt.Errorf("yahoo %s: %s: %w", symbol, chart.Chart.Error.Description, ErrSourceUnavailable)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("yahoo %s: status 404: %w", symbol, ErrSymbolNotFound)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("yahoo %s: status %d, body: %s: %w", symbol, resp.StatusCode(), resp.String(), ErrSourceUnavailable)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("yahoo decode: %v: %w", decodeErr, ErrSourceUnavailable)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo %s: no result: %w", symbol, ErrSymbolNotFound)
	}

	result := chart.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil, nil
	}
	quote := result.Indicators.Quote[0]
	var adj []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]model.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o, h, l, c := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i)
		if o == nil && h == nil && l == nil && c == nil {
			continue // empty slot (holiday or unfinished bar)
		}
		t := time.Unix(ts, 0).UTC()
		if daily {
			t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}
		closeValue := math.NaN()
		if c != nil {
			closeValue = *c
		}
		adjClose := closeValue
		if a := at(adj, i); a != nil {
			adjClose = *a
		}
		bars = append(bars, model.Bar{
			Time:     t,
			Open:     orZero(o),
			High:     orZero(h),
			Low:      orZero(l),
			Close:    closeValue,
			AdjClose: adjClose,
			Volume:   int64(orZero(at(quote.Volume, i))),
		})
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func (f *YahooFetcher) FetchHistory(ctx context.Context, symbol string, start, end time.Time) ([]model.Bar, error) {
	return f.fetchChart(ctx, symbol, map[string]string{
		"interval": "1d",
		"period1":  strconv.FormatInt(start.Unix(), 10),
		"period2":  strconv.FormatInt(end.Unix(), 10),
	}, true)
}

func (f *YahooFetcher) FetchLatest(ctx context.Context, symbol string) ([]model.Bar, error) {
	return f.fetchChart(ctx, symbol, map[string]string{
		"interval": f.intradayInterval,
		"range":    f.intradayRange,
	}, false)
}
