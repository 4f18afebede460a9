package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sync"
	"time"

	"StockStream/internal/model"
)

const telegramAPI = "https://api.telegram.org"

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	BotToken string
	ChatID   string
	BaseURL  string
	Backoff  time.Duration // first retry delay, doubled per attempt
	Client   *http.Client
}

// NewTelegramNotifier creates a notifier with optional proxy support.
func NewTelegramNotifier(botToken, chatID, proxyURL string) *TelegramNotifier {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &TelegramNotifier{
		BotToken: botToken,
		ChatID:   chatID,
		BaseURL:  telegramAPI,
		Backoff:  time.Second,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

// Send sends a message to the configured chat.
func (t *TelegramNotifier) Send(ctx context.Context, text string) error {
	apiURL := fmt.Sprintf("%s/bot%s/sendMessage", t.BaseURL, t.BotToken)
	payload := map[string]string{
		"chat_id":    t.ChatID,
		"text":       text,
		"parse_mode": "HTML",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, string(respBody))
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
		backoff := t.Backoff * time.Duration(1<<uint(i))
		log.Printf("[WARN] Telegram send failed (attempt %d/%d): %v, retrying in %v", i+1, maxRetries+1, err, backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}

// Forwarder relays records to Telegram off the consumer's path. When its
// queue is full new records are dropped with a warning.
type Forwarder struct {
	notifier   *TelegramNotifier
	windowSize int
	maxRetries int

	queue chan model.ResultRecord
	wg    sync.WaitGroup
	sent  int
}

// NewForwarder starts a background sender with the given queue size.
func NewForwarder(ctx context.Context, n *TelegramNotifier, windowSize, queueSize, maxRetries int) *Forwarder {
	f := &Forwarder{
		notifier:   n,
		windowSize: windowSize,
		maxRetries: maxRetries,
		queue:      make(chan model.ResultRecord, queueSize),
	}
	f.wg.Add(1)
	go f.loop(ctx)
	return f
}

func (f *Forwarder) loop(ctx context.Context) {
	defer f.wg.Done()
	for rec := range f.queue {
		if err := f.notifier.SendWithRetry(ctx, FormatRecordMessage(rec, f.windowSize), f.maxRetries); err != nil {
			log.Printf("[ERROR] forward %s to Telegram: %v", rec.Symbol, err)
			continue
		}
		f.sent++
	}
}

// Forward queues rec without blocking.
func (f *Forwarder) Forward(rec model.ResultRecord) {
	select {
	case f.queue <- rec:
	default:
		log.Printf("[WARN] Telegram queue full, dropping %s", rec.Symbol)
	}
}

// Close stops accepting records, waits for queued ones and returns how many
// were delivered.
func (f *Forwarder) Close() int {
	close(f.queue)
	f.wg.Wait()
	return f.sent
}
