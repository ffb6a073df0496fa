// Package webhook pushes backend events to an external HTTP endpoint.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Event names.
const (
	EventReports   = "registros"
	EventChecklist = "checklist"
)

const (
	queueSize       = 256
	dispatchTimeout = 10 * time.Second
)

// Payload is the POST body of one delivery.
type Payload struct {
	Event     string `json:"evento"`
	Timestamp string `json:"data_hora"`
	Data      any    `json:"dados"`
}

// Sign returns the hex HMAC-SHA256 of "<unixTS>.<body>".
func Sign(secret, unixTS string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(unixTS))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Dispatch performs one synchronous POST. Returns nil on a 2xx status.
func Dispatch(ctx context.Context, client *http.Client, url, secret string, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "maprix-webhook/1")

	unixTS := strconv.FormatInt(time.Now().Unix(), 10)
	req.Header.Set("X-Maprix-Timestamp", unixTS)
	if secret != "" {
		req.Header.Set("X-Maprix-Signature", "sha256="+Sign(secret, unixTS, body))
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("POST %s: status %d", url, resp.StatusCode)
	}
	return nil
}

// Notifier delivers events in the background, one at a time and in order.
// A nil *Notifier accepts and drops every event.
type Notifier struct {
	url    string
	secret string
	client *http.Client
	now    func() time.Time

	queue chan Payload
	wg    sync.WaitGroup
}

// New returns a notifier posting to url, or nil when url is empty.
func New(url, secret string) *Notifier {
	if url == "" {
		return nil
	}
	return &Notifier{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: dispatchTimeout},
		now:    time.Now,
		queue:  make(chan Payload, queueSize),
	}
}

// Notify queues an event. It never blocks; when the queue is full the
// event is dropped and logged.
func (n *Notifier) Notify(event string, data any) {
	if n == nil {
		return
	}
	p := Payload{Event: event, Timestamp: n.now().UTC().Format(time.RFC3339), Data: data}
	select {
	case n.queue <- p:
	default:
		slog.Warn("webhook queue full, event dropped", "evento", event)
	}
}

// Start delivers queued events in a goroutine until ctx is done, then drains
// what is left. Each delivery is bounded by its own timeout, not by ctx.
func (n *Notifier) Start(ctx context.Context) {
	if n == nil {
		return
	}
	n.wg.Add(1)
	go n.run(ctx)
}

func (n *Notifier) run(ctx context.Context) {
	defer n.wg.Done()
	for {
		select {
		case p := <-n.queue:
			n.deliver(p)
		case <-ctx.Done():
			n.drain()
			return
		}
	}
}

func (n *Notifier) drain() {
	for {
		select {
		case p := <-n.queue:
			n.deliver(p)
		default:
			return
		}
	}
}

// Wait blocks until the goroutine launched by Start has finished.
func (n *Notifier) Wait() {
	if n != nil {
		n.wg.Wait()
	}
}

func (n *Notifier) deliver(p Payload) {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()
	if err := Dispatch(ctx, n.client, n.url, n.secret, p); err != nil {
		slog.Warn("webhook delivery failed", "evento", p.Event, "err", err)
		return
	}
	slog.Debug("webhook delivered", "evento", p.Event)
}
