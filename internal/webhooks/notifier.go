// Package webhooks pushes instance events to configured HTTP endpoints.
package webhooks

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"petrovrp/internal/logger"
	"petrovrp/internal/metrics"
)

// Payload is the JSON body posted to every endpoint.
type Payload struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	TS   string `json:"ts"`
	Data any    `json:"data"`
}

type delivery struct {
	eventType string
	body      []byte
}

// Notifier queues events and delivers them from a background loop, signing
// each body when a secret is set.
type Notifier struct {
	URLs       []string
	Secret     string
	HTTP       *http.Client
	MaxRetries uint64
	// NewBackOff builds the retry schedule of one delivery.
	NewBackOff func() backoff.BackOff

	queue chan delivery
	wg    sync.WaitGroup
}

func NewNotifier(urls []string, secret string) *Notifier {
	return &Notifier{
		URLs:       urls,
		Secret:     secret,
		HTTP:       &http.Client{Timeout: 5 * time.Second},
		MaxRetries: 5,
		NewBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxElapsedTime = time.Minute
			return b
		},
		queue: make(chan delivery, 64),
	}
}

// Enabled reports whether any endpoint is configured.
func (n *Notifier) Enabled() bool { return n != nil && len(n.URLs) > 0 }

// Enqueue schedules eventType/data for delivery. It never blocks; events are
// dropped with a warning when the queue is full.
func (n *Notifier) Enqueue(ctx context.Context, eventType string, data any) {
	if !n.Enabled() {
		return
	}
	body, err := sonic.Marshal(Payload{
		ID:   "evt_" + uuid.NewString(),
		Type: eventType,
		TS:   time.Now().UTC().Format(time.RFC3339),
		Data: data,
	})
	if err != nil {
		logger.Errorf(ctx, "webhook encode %s: %v", eventType, err)
		return
	}
	select {
	case n.queue <- delivery{eventType: eventType, body: body}:
	default:
		logger.Warnf(ctx, "webhook queue full, dropping %s", eventType)
		metrics.WebhookDeliveries.WithLabelValues(eventType, "dropped").Inc()
	}
}

// Start runs the delivery loop until ctx is done, then drains what is
// already queued. Wait blocks until the loop has returned.
func (n *Notifier) Start(ctx context.Context) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		for {
			select {
			case <-ctx.Done():
				n.drain(ctx)
				return
			case d := <-n.queue:
				n.deliverAll(ctx, d)
			}
		}
	}()
}

func (n *Notifier) Wait() { n.wg.Wait() }

func (n *Notifier) drain(ctx context.Context) {
	for {
		select {
		case d := <-n.queue:
			n.deliverAll(ctx, d)
		default:
			return
		}
	}
}

// deliverAll outlives the cancellation of ctx so queued events still go out
// during shutdown.
func (n *Notifier) deliverAll(ctx context.Context, d delivery) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	for _, url := range n.URLs {
		if err := n.Deliver(ctx, url, d.eventType, d.body); err != nil {
			logger.Warnf(ctx, "webhook %s to %s: %v", d.eventType, url, err)
		}
	}
}

// Deliver posts body to url, retrying transport errors and 5xx responses.
// Any other non-2xx status fails immediately.
func (n *Notifier) Deliver(ctx context.Context, url, eventType string, body []byte) error {
	start := time.Now()
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(HeaderEventType, eventType)
		if n.Secret != "" {
			req.Header.Set(HeaderSignature, Sign(n.Secret, body))
		}
		resp, err := n.HTTP.Do(req)
		if err != nil {
			return err
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return nil
		case resp.StatusCode >= 500:
			return fmt.Errorf("status %d", resp.StatusCode)
		default:
			return backoff.Permanent(fmt.Errorf("status %d", resp.StatusCode))
		}
	}
	b := backoff.WithContext(backoff.WithMaxRetries(n.NewBackOff(), n.MaxRetries), ctx)
	err := backoff.Retry(op, b)

	status := "success"
	if err != nil {
		status = "failed"
	}
	metrics.WebhookDeliveries.WithLabelValues(eventType, status).Inc()
	metrics.WebhookLatency.WithLabelValues(eventType, status).Observe(float64(time.Since(start).Milliseconds()))
	return err
}
