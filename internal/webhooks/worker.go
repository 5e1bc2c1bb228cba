// Package webhooks notifies external subscribers of dashboard refresh events
// with HMAC-signed POSTs, retrying failed deliveries with backoff.
package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"dispatchboard/internal/metrics"
)

// Config lists the subscriber endpoints.
type Config struct {
	URLs        []string `yaml:"urls" mapstructure:"urls"`
	Secret      string   `yaml:"secret" mapstructure:"secret"`
	MaxAttempts int      `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// Delivery is one pending POST of an event to one endpoint.
type Delivery struct {
	ID            string
	URL           string
	EventType     string
	Body          []byte
	Attempts      int
	NextAttemptAt time.Time
	LastError     string
}

// Worker queues deliveries in memory and sends the due ones once a second.
type Worker struct {
	cfg  Config
	HTTP *http.Client
	now  func() time.Time

	mu    sync.Mutex
	queue []*Delivery
}

func NewWorker(cfg Config) *Worker {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	return &Worker{cfg: cfg, HTTP: &http.Client{Timeout: 5 * time.Second}, now: time.Now}
}

// Enqueue schedules eventType with data for every configured endpoint.
func (w *Worker) Enqueue(eventType string, data any) {
	now := w.now()
	body, err := json.Marshal(map[string]any{
		"id":   uuid.NewString(),
		"type": eventType,
		"ts":   now.UTC().Format(time.RFC3339),
		"data": data,
	})
	if err != nil {
		zap.L().Warn("webhook payload", zap.String("type", eventType), zap.Error(err))
		return
	}
	w.mu.Lock()
	for _, u := range w.cfg.URLs {
		w.queue = append(w.queue, &Delivery{
			ID:            uuid.NewString(),
			URL:           u,
			EventType:     eventType,
			Body:          body,
			NextAttemptAt: now,
		})
	}
	w.mu.Unlock()
}

// Pending returns the number of queued deliveries.
func (w *Worker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.queue)
}

// Run sends due deliveries until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processOnce(ctx)
		}
	}
}

func (w *Worker) due() []*Delivery {
	now := w.now()
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []*Delivery
	rest := w.queue[:0]
	for _, d := range w.queue {
		if !d.NextAttemptAt.After(now) && len(out) < 50 {
			out = append(out, d)
			continue
		}
		rest = append(rest, d)
	}
	w.queue = rest
	return out
}

func (w *Worker) processOnce(ctx context.Context) {
	for _, d := range w.due() {
		code, err := w.send(ctx, d)
		if err == nil && code >= 200 && code < 300 {
			metrics.WebhookDeliveries.WithLabelValues("delivered").Inc()
			continue
		}
		d.Attempts++
		d.LastError = "status " + strconv.Itoa(code)
		if err != nil {
			d.LastError = err.Error()
		}
		if d.Attempts >= w.cfg.MaxAttempts {
			metrics.WebhookDeliveries.WithLabelValues("failed").Inc()
			zap.L().Warn("webhook delivery failed",
				zap.String("url", d.URL),
				zap.String("type", d.EventType),
				zap.Int("attempts", d.Attempts),
				zap.String("error", d.LastError),
			)
			continue
		}
		metrics.WebhookDeliveries.WithLabelValues("retry").Inc()
		d.NextAttemptAt = w.now().Add(nextBackoff(d.Attempts - 1))
		w.mu.Lock()
		w.queue = append(w.queue, d)
		w.mu.Unlock()
	}
}

func (w *Worker) send(ctx context.Context, d *Delivery) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.URL, bytes.NewReader(d.Body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Type", d.EventType)
	req.Header.Set("X-Delivery-Id", d.ID)
	if w.cfg.Secret != "" {
		req.Header.Set("X-Signature", SignHMAC(w.cfg.Secret, d.Body))
	}
	resp, err := w.HTTP.Do(req)
	if err != nil {
		return 0, err
	}
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

func nextBackoff(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	if attempts > 10 {
		attempts = 10
	}
	base := time.Second * time.Duration(1<<attempts)
	if base > time.Hour {
		base = time.Hour
	}
	return base
}
