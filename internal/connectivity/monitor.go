// Package connectivity tracks whether the maprix server is reachable.
//
// The monitor only reports state and notifies listeners on transitions. It
// never starts a sync; draining the queue is always an explicit operator action.
package connectivity

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/maprix/maprix/internal/apiclient"
)

// DefaultProbeTimeout bounds a single reachability probe.
const DefaultProbeTimeout = 3 * time.Second

// Prober checks server reachability.
type Prober interface {
	HealthCheck(ctx context.Context) (*apiclient.HealthResponse, error)
}

// Monitor holds the online/offline predicate.
type Monitor struct {
	mu       sync.Mutex
	online   bool
	pinned   bool
	handlers []func(online bool)

	prober       Prober
	ProbeTimeout time.Duration
}

// New returns a monitor that starts online, like a browser before its first
// connectivity event. Pass a nil prober to drive it only through Set.
func New(prober Prober) *Monitor {
	return &Monitor{
		online:       true,
		prober:       prober,
		ProbeTimeout: DefaultProbeTimeout,
	}
}

// Online reports the last observed connectivity.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online && !m.pinned
}

// OnChange registers fn to run on every offline/online transition.
func (m *Monitor) OnChange(fn func(online bool)) {
	m.mu.Lock()
	m.handlers = append(m.handlers, fn)
	m.mu.Unlock()
}

// PinOffline forces Online to report false regardless of probes.
func (m *Monitor) PinOffline(pinned bool) {
	m.mu.Lock()
	before := m.online && !m.pinned
	m.pinned = pinned
	after := m.online && !m.pinned
	handlers := m.snapshotHandlers(before != after)
	m.mu.Unlock()
	notify(handlers, after)
}

// Set records an observation and notifies listeners if the state changed.
func (m *Monitor) Set(online bool) {
	m.mu.Lock()
	before := m.online && !m.pinned
	m.online = online
	after := m.online && !m.pinned
	handlers := m.snapshotHandlers(before != after)
	m.mu.Unlock()
	notify(handlers, after)
}

func (m *Monitor) snapshotHandlers(changed bool) []func(bool) {
	if !changed {
		return nil
	}
	return append([]func(bool){}, m.handlers...)
}

func notify(handlers []func(bool), online bool) {
	for _, fn := range handlers {
		fn(online)
	}
}

// Probe checks the server once and records the result.
func (m *Monitor) Probe(ctx context.Context) bool {
	if m.prober == nil {
		return m.Online()
	}
	ctx, cancel := context.WithTimeout(ctx, m.ProbeTimeout)
	defer cancel()

	_, err := m.prober.HealthCheck(ctx)
	if err != nil {
		slog.Debug("connectivity: probe failed", "err", err)
	}
	m.Set(err == nil)
	return m.Online()
}

// Watch probes every interval until ctx is done.
func (m *Monitor) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Probe(ctx)
		}
	}
}
