package store

import (
	"database/sql"
	"fmt"

	"github.com/maprix/maprix/internal/models"
)

// Batch seals the head of the queue under a batch id so that a retried sync
// sends the same entries with the same id.
type Batch struct {
	ID       string `json:"id"`
	Size     int    `json:"tamanho"`
	SealedAt string `json:"selado_em"`
}

func readQueue(q queryer) ([]models.PendingReport, error) {
	var queue []models.PendingReport
	if _, err := getJSON(q, QueueKey, &queue); err != nil {
		return nil, err
	}
	return queue, nil
}

// Enqueue appends report to the end of the pending queue.
func (s *Store) Enqueue(report models.PendingReport) error {
	return s.mutate(func(tx *sql.Tx) error {
		queue, err := readQueue(tx)
		if err != nil {
			return err
		}
		queue = append(queue, report)
		return putJSON(tx, QueueKey, queue)
	})
}

// PeekAll returns the pending queue in insertion order without removing anything.
func (s *Store) PeekAll() ([]models.PendingReport, error) {
	queue, err := readQueue(s.conn)
	if err != nil {
		return nil, err
	}
	if queue == nil {
		queue = []models.PendingReport{}
	}
	return queue, nil
}

// Count returns the number of pending reports.
func (s *Store) Count() (int, error) {
	queue, err := readQueue(s.conn)
	if err != nil {
		return 0, err
	}
	return len(queue), nil
}

// Clear empties the pending queue and forgets any sealed batch.
func (s *Store) Clear() error {
	return s.mutate(func(tx *sql.Tx) error {
		if err := deleteKey(tx, QueueKey); err != nil {
			return err
		}
		return deleteKey(tx, BatchKey)
	})
}

// Drop removes the first n reports and clears the seal, provided batchID is
// still the sealed batch. It reports false and changes nothing when no batch
// is sealed or another batch is, which happens when a second process already
// delivered and dropped the same batch. Reports appended after the batch was
// sealed are kept.
func (s *Store) Drop(batchID string, n int) (bool, error) {
	dropped := false
	err := s.mutate(func(tx *sql.Tx) error {
		var sealed Batch
		ok, err := getJSON(tx, BatchKey, &sealed)
		if err != nil {
			return err
		}
		if !ok || sealed.ID != batchID {
			return nil
		}
		queue, err := readQueue(tx)
		if err != nil {
			return err
		}
		if n > len(queue) {
			return fmt.Errorf("drop %d reports: queue holds %d", n, len(queue))
		}
		if err := deleteKey(tx, BatchKey); err != nil {
			return err
		}
		dropped = true
		rest := queue[n:]
		if len(rest) == 0 {
			return deleteKey(tx, QueueKey)
		}
		return putJSON(tx, QueueKey, rest)
	})
	if err != nil {
		return false, err
	}
	return dropped, nil
}

// GetBatch returns the sealed batch, or nil if none.
func (s *Store) GetBatch() (*Batch, error) {
	var b Batch
	ok, err := getJSON(s.conn, BatchKey, &b)
	if err != nil || !ok {
		return nil, err
	}
	return &b, nil
}

// SealBatch records b unless a batch is already sealed, and returns the batch
// in effect together with the reports it covers.
func (s *Store) SealBatch(b Batch) (*Batch, []models.PendingReport, error) {
	var sealed Batch
	var reports []models.PendingReport
	err := s.mutate(func(tx *sql.Tx) error {
		queue, err := readQueue(tx)
		if err != nil {
			return err
		}
		ok, err := getJSON(tx, BatchKey, &sealed)
		if err != nil {
			return err
		}
		if ok && sealed.Size <= len(queue) {
			reports = queue[:sealed.Size]
			return nil
		}
		sealed = b
		sealed.Size = len(queue)
		reports = queue
		return putJSON(tx, BatchKey, sealed)
	})
	if err != nil {
		return nil, nil, err
	}
	return &sealed, reports, nil
}
