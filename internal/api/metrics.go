package api

import (
	"sync/atomic"
	"time"
)

// Metrics collects in-memory server metrics using atomic counters.
type Metrics struct {
	startTime        time.Time
	requests         atomic.Int64
	serverErrors     atomic.Int64
	clientErrors     atomic.Int64
	reportsIngested  atomic.Int64
	duplicateBatches atomic.Int64
	checklists       atomic.Int64
	rateLimited      atomic.Int64
}

// MetricsSnapshot is a point-in-time view of server metrics.
type MetricsSnapshot struct {
	UptimeSeconds    float64 `json:"uptime_seconds"`
	Requests         int64   `json:"requests"`
	ServerErrors     int64   `json:"server_errors"`
	ClientErrors     int64   `json:"client_errors"`
	ReportsIngested  int64   `json:"reports_ingested"`
	DuplicateBatches int64   `json:"duplicate_batches"`
	Checklists       int64   `json:"checklists_received"`
	RateLimited      int64   `json:"rate_limited"`
}

// NewMetrics creates a new Metrics instance with the current time as start.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordRequest increments the total request counter.
func (m *Metrics) RecordRequest() {
	m.requests.Add(1)
}

// RecordError increments the server error (5xx) counter.
func (m *Metrics) RecordError() {
	m.serverErrors.Add(1)
}

// RecordClientError increments the client error (4xx) counter.
func (m *Metrics) RecordClientError() {
	m.clientErrors.Add(1)
}

// RecordReports adds n to the stored reports counter.
func (m *Metrics) RecordReports(n int64) {
	m.reportsIngested.Add(n)
}

// RecordDuplicateBatch counts a replayed batch.
func (m *Metrics) RecordDuplicateBatch() {
	m.duplicateBatches.Add(1)
}

// RecordChecklist counts a stored checklist.
func (m *Metrics) RecordChecklist() {
	m.checklists.Add(1)
}

// RecordRateLimited counts a rejected request.
func (m *Metrics) RecordRateLimited() {
	m.rateLimited.Add(1)
}

// Snapshot returns a point-in-time copy of the metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		UptimeSeconds:    time.Since(m.startTime).Seconds(),
		Requests:         m.requests.Load(),
		ServerErrors:     m.serverErrors.Load(),
		ClientErrors:     m.clientErrors.Load(),
		ReportsIngested:  m.reportsIngested.Load(),
		DuplicateBatches: m.duplicateBatches.Load(),
		Checklists:       m.checklists.Load(),
		RateLimited:      m.rateLimited.Load(),
	}
}
