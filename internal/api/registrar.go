package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/maprix/maprix/internal/ingest"
	"github.com/maprix/maprix/internal/models"
	"github.com/maprix/maprix/internal/webhook"
)

// idempotencyHeader carries the client batch id on bulk deliveries.
const idempotencyHeader = "Idempotency-Key"

// RegisterResponse is the answer to POST /api/registrar.
type RegisterResponse struct {
	Status    string  `json:"status"`
	Inserted  int     `json:"inseridos"`
	IDs       []int64 `json:"ids,omitempty"`
	Duplicate bool    `json:"duplicado,omitempty"`
}

// RecordUpdateRequest is the body of PUT /api/registro/{id}.
type RecordUpdateRequest struct {
	Equipment   string `json:"equipamento"`
	Color       string `json:"cor"`
	Observation string `json:"observacao"`
}

// decodeReports accepts a single report object or an array of them.
func decodeReports(body []byte) ([]models.PendingReport, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var reports []models.PendingReport
		if err := json.Unmarshal(trimmed, &reports); err != nil {
			return nil, err
		}
		return reports, nil
	}
	var one models.PendingReport
	if err := json.Unmarshal(trimmed, &one); err != nil {
		return nil, err
	}
	return []models.PendingReport{one}, nil
}

// handleRegister stores one report or a bulk batch in a single transaction.
// A batch whose Idempotency-Key was already accepted is acknowledged again
// without inserting.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "corpo da requisicao invalido")
		return
	}
	reports, err := decodeReports(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "JSON invalido: "+err.Error())
		return
	}

	batchID := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	log := logFor(r.Context())
	res, err := s.store.IngestReports(ingest.Delivery{
		BatchID:    batchID,
		Reports:    reports,
		ReceivedAt: s.now(),
	})
	var invalid *ingest.InvalidReportError
	switch {
	case errors.As(err, &invalid), errors.Is(err, ingest.ErrEmptyBatch):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeStoreError(w, r, err)
		return
	}

	if res.Duplicate {
		s.metrics.RecordDuplicateBatch()
		log.Info("duplicate batch acknowledged", "lote", batchID, "registros", res.Inserted)
		writeJSON(w, http.StatusOK, RegisterResponse{Status: "ok", Inserted: res.Inserted, Duplicate: true})
		return
	}
	s.metrics.RecordReports(int64(res.Inserted))
	log.Info("reports stored", "lote", batchID, "registros", res.Inserted)
	s.hooks.Notify(webhook.EventReports, map[string]interface{}{
		"lote":      batchID,
		"ids":       res.IDs,
		"registros": reports,
	})
	writeJSON(w, http.StatusCreated, RegisterResponse{Status: "ok", Inserted: res.Inserted, IDs: res.IDs})
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.ListRecords()
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req RecordUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Equipment) == "" {
		writeError(w, http.StatusBadRequest, "equipamento obrigatorio")
		return
	}
	color := req.Color
	if color == "" {
		color = models.DefaultRecordColor
	}
	if err := s.store.UpdateRecord(id, strings.TrimSpace(req.Equipment), color, req.Observation); err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusOK)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteRecord(id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusOK)
}
