package notifier

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"TradeRobot/internal/model"
)

// DefaultAPIBase is the Telegram Bot API host.
const DefaultAPIBase = "https://api.telegram.org"

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	BotToken string
	ChatID   string
	// EveryCycle sends a report after every evaluation instead of only on
	// decision changes.
	EveryCycle bool
	MaxRetries int

	client  *resty.Client
	backoff time.Duration

	mu           sync.Mutex
	lastDecision model.Decision
}

// NewTelegramNotifier creates a notifier with optional proxy support.
// An empty apiBase uses the public Bot API.
func NewTelegramNotifier(botToken, chatID, proxyURL, apiBase string) *TelegramNotifier {
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(apiBase, "/")).
		SetTimeout(40 * time.Second).
		SetPathParam("token", botToken)
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &TelegramNotifier{
		BotToken:   botToken,
		ChatID:     chatID,
		MaxRetries: 3,
		client:     client,
		backoff:    time.Second,
	}
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send sends a message to the configured chat.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	var result apiResponse
	resp, err := t.client.R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetBody(map[string]string{
			"chat_id":    t.ChatID,
			"text":       text,
			"parse_mode": "HTML",
		}).
		SetResult(&result).
		SetError(&result).
		Post("/bot{token}/sendMessage")
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	if resp.IsError() || !result.OK {
		return fmt.Errorf("telegram API error: status %d: %s", resp.StatusCode(), result.Description)
	}
	return nil
}

// SendWithRetry sends a message with exponential backoff retry.
func (t *TelegramNotifier) SendWithRetry(ctx context.Context, text string, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		err := t.Send(ctx, text)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == maxRetries {
			break
		}
		backoff := t.backoff * time.Duration(1<<uint(i))
		log.Warn().Err(err).Int("attempt", i+1).Int("max", maxRetries+1).Dur("backoff", backoff).
			Msg("telegram send failed, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("all %d attempts exhausted: %w", maxRetries+1, lastErr)
}

func (t *TelegramNotifier) Name() string { return "telegram" }

// Present sends the decision report when the decision changed since the
// last one sent, or on every call when EveryCycle is set.
func (t *TelegramNotifier) Present(ctx context.Context, report *model.Report) error {
	decision := report.Evaluation.Decision

	t.mu.Lock()
	changed := decision != t.lastDecision
	t.mu.Unlock()
	if !changed && !t.EveryCycle {
		log.Debug().Str("decision", string(decision)).Msg("decision unchanged, skip notify")
		return nil
	}

	if err := t.SendWithRetry(ctx, FormatDecisionReport(report), t.MaxRetries); err != nil {
		return err
	}
	t.mu.Lock()
	t.lastDecision = decision
	t.mu.Unlock()
	return nil
}

// NotifyFailure reports a failed evaluation cycle.
func (t *TelegramNotifier) NotifyFailure(ctx context.Context, symbol string, cycleErr error) error {
	return t.SendWithRetry(ctx, FormatFailure(symbol, cycleErr, time.Now()), t.MaxRetries)
}
