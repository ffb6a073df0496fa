package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/maprix/maprix/internal/models"
	"github.com/maprix/maprix/internal/webhook"
)

type hookEvent struct {
	Event string `json:"evento"`
	Data  struct {
		Batch   string                 `json:"lote"`
		IDs     []int64                `json:"ids"`
		Reports []models.PendingReport `json:"registros"`
	} `json:"dados"`
}

func TestWebhookOnStoredReports(t *testing.T) {
	got := make(chan hookEvent, 4)
	receiver := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ev hookEvent
		json.NewDecoder(r.Body).Decode(&ev)
		got <- ev
	}))
	defer receiver.Close()

	h := newTestHarness(t, func(c *Config) { c.WebhookURL = receiver.URL })
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Server.hooks.Start(ctx)

	batch := []models.PendingReport{report("TR-01", 1), report("TR-01", 2)}
	AssertStatus(t, h.Do("POST", "/api/registrar", batch, idempotencyHeader, "lote-w1"), http.StatusCreated)

	select {
	case ev := <-got:
		if ev.Event != webhook.EventReports || ev.Data.Batch != "lote-w1" {
			t.Errorf("event = %+v", ev)
		}
		if len(ev.Data.IDs) != 2 || len(ev.Data.Reports) != 2 {
			t.Errorf("event carries %d ids and %d reports, want 2", len(ev.Data.IDs), len(ev.Data.Reports))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no webhook delivery")
	}

	// a replayed batch stores nothing and notifies nothing
	AssertStatus(t, h.Do("POST", "/api/registrar", batch, idempotencyHeader, "lote-w1"), http.StatusOK)
	select {
	case ev := <-got:
		t.Errorf("unexpected event for duplicate batch: %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWebhookDisabledByDefault(t *testing.T) {
	h := newTestHarness(t)
	if h.Server.hooks != nil {
		t.Fatal("notifier should be nil without a webhook url")
	}
	AssertStatus(t, h.Do("POST", "/api/registrar", report("TR-01", 0)), http.StatusCreated)
}
