// Package pipeline decides, per captured report, between immediate delivery
// and local queueing, and drains the queue on request.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/maprix/maprix/internal/apiclient"
	"github.com/maprix/maprix/internal/models"
	"github.com/maprix/maprix/internal/store"
)

// ErrSyncInProgress is returned when Sync is called while another sync is in flight.
var ErrSyncInProgress = errors.New("sync already in progress")

// Queue is the persistent pending-report queue.
type Queue interface {
	Enqueue(report models.PendingReport) error
	PeekAll() ([]models.PendingReport, error)
	SealBatch(b store.Batch) (*store.Batch, []models.PendingReport, error)
	Drop(batchID string, n int) (bool, error)
}

// Transport delivers reports to the server.
type Transport interface {
	Register(ctx context.Context, report models.PendingReport) error
	RegisterBatch(ctx context.Context, batchID string, reports []models.PendingReport) (*apiclient.RegisterBatchResponse, error)
}

// Connectivity reports whether a delivery attempt is worth making.
type Connectivity interface {
	Online() bool
}

// Outcome is what happened to a submitted report.
type Outcome int

const (
	// Delivered means the server acknowledged the report.
	Delivered Outcome = iota
	// Queued means the report was stored locally for a later sync.
	Queued
)

func (o Outcome) String() string {
	if o == Delivered {
		return "delivered"
	}
	return "queued"
}

// SubmitResult describes a Submit call. DeliveryErr is set when an online
// delivery attempt failed and the report fell back to the queue.
type SubmitResult struct {
	Outcome     Outcome
	DeliveryErr error
}

// SyncResult describes a completed Sync.
type SyncResult struct {
	BatchID   string
	Sent      int
	Duplicate bool
	Remaining int
}

// Pipeline owns delivery of reports.
type Pipeline struct {
	queue     Queue
	transport Transport
	conn      Connectivity
	syncing   atomic.Bool

	newBatchID func() string
	now        func() time.Time
}

// New builds a pipeline.
func New(queue Queue, transport Transport, conn Connectivity) *Pipeline {
	return &Pipeline{
		queue:      queue,
		transport:  transport,
		conn:       conn,
		newBatchID: uuid.NewString,
		now:        time.Now,
	}
}

// Submit tries one delivery when online and queues the report otherwise or on
// any delivery failure. The returned error is non-nil only when the report
// could be neither delivered nor queued.
func (p *Pipeline) Submit(ctx context.Context, report models.PendingReport) (SubmitResult, error) {
	if p.conn.Online() {
		err := p.transport.Register(ctx, report)
		if err == nil {
			return SubmitResult{Outcome: Delivered}, nil
		}
		slog.Debug("pipeline: delivery failed, queueing", "equipment", report.Equipment, "err", err)
		if qerr := p.queue.Enqueue(report); qerr != nil {
			return SubmitResult{}, fmt.Errorf("queue report after delivery failure (%v): %w", err, qerr)
		}
		return SubmitResult{Outcome: Queued, DeliveryErr: err}, nil
	}

	if err := p.queue.Enqueue(report); err != nil {
		return SubmitResult{}, fmt.Errorf("queue report: %w", err)
	}
	return SubmitResult{Outcome: Queued}, nil
}

// Syncing reports whether a sync is in flight.
func (p *Pipeline) Syncing() bool {
	return p.syncing.Load()
}

// Sync sends the pending queue as one bulk request. On success the sent
// reports are removed; on failure the queue is left untouched. A batch sealed
// by an earlier failed attempt is resent alone under its original id, and
// reports captured after it are left for the next sync and counted in
// Remaining.
func (p *Pipeline) Sync(ctx context.Context) (*SyncResult, error) {
	if !p.syncing.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	defer p.syncing.Store(false)

	result := &SyncResult{}
	pending, err := p.queue.PeekAll()
	if err != nil {
		return result, fmt.Errorf("read queue: %w", err)
	}
	if len(pending) == 0 {
		return result, nil
	}

	fresh := store.Batch{ID: p.newBatchID(), SealedAt: p.now().UTC().Format(time.RFC3339)}
	batch, reports, err := p.queue.SealBatch(fresh)
	if err != nil {
		return result, fmt.Errorf("seal batch: %w", err)
	}
	result.Remaining = len(pending)
	if len(reports) == 0 {
		_, err := p.queue.Drop(batch.ID, 0)
		return result, err
	}

	resp, err := p.transport.RegisterBatch(ctx, batch.ID, reports)
	if err != nil {
		return result, fmt.Errorf("sync: %w", err)
	}
	dropped, err := p.queue.Drop(batch.ID, batch.Size)
	if err != nil {
		return result, fmt.Errorf("drop synced reports: %w", err)
	}
	if !dropped {
		slog.Debug("pipeline: batch already dropped by another sync", "batch", batch.ID)
	}

	result.BatchID = batch.ID
	result.Sent = len(reports)
	result.Duplicate = resp != nil && resp.Duplicate

	rest, err := p.queue.PeekAll()
	if err != nil {
		return result, fmt.Errorf("read queue: %w", err)
	}
	result.Remaining = len(rest)
	return result, nil
}
