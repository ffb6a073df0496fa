package api

import (
	"fmt"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/maprix/maprix/internal/models"
	"github.com/maprix/maprix/internal/serverdb"
)

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func newAsset(name string) serverdb.NewAsset { return serverdb.NewAsset{Name: name} }

func newAssetTyped(name string, typeID int64) serverdb.NewAsset {
	return serverdb.NewAsset{Name: name, TypeID: &typeID}
}

func report(equipment string, minute int) models.PendingReport {
	return models.PendingReport{
		Equipment: equipment,
		Operator:  "Ana",
		Latitude:  -23.55,
		Longitude: -46.63,
		Timestamp: time.Date(2025, 6, 15, 10, minute, 0, 0, time.UTC).Format(time.RFC3339),
	}
}

func TestRegisterSingleObject(t *testing.T) {
	h := newTestHarness(t)
	h.Store.CreateAsset(serverdb.NewAsset{Name: "TR-01", Color: "#ff8800"})

	resp := h.Do("POST", "/api/registrar", report("TR-01", 0))
	AssertStatus(t, resp, http.StatusCreated)
	out := ReadJSON[RegisterResponse](t, resp)
	if out.Inserted != 1 || len(out.IDs) != 1 || out.Duplicate {
		t.Fatalf("unexpected response: %+v", out)
	}

	var records []models.Record
	h.DoJSON("GET", "/api/locais", nil, &records)
	if len(records) != 1 || records[0].Color != "#ff8800" || records[0].SyncedAt == "" {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestRegisterBatchIdempotent(t *testing.T) {
	h := newTestHarness(t)
	batch := []models.PendingReport{report("TR-01", 2), report("TR-01", 1), report("GER-02", 3)}

	resp := h.Do("POST", "/api/registrar", batch, idempotencyHeader, "lote-abc")
	AssertStatus(t, resp, http.StatusCreated)
	first := ReadJSON[RegisterResponse](t, resp)
	if first.Inserted != 3 {
		t.Fatalf("inserted = %d", first.Inserted)
	}

	// Lost acknowledgement: the client resends the same sealed batch.
	resp = h.Do("POST", "/api/registrar", batch, idempotencyHeader, "lote-abc")
	AssertStatus(t, resp, http.StatusOK)
	again := ReadJSON[RegisterResponse](t, resp)
	if !again.Duplicate || again.Inserted != 3 {
		t.Fatalf("unexpected replay response: %+v", again)
	}

	var records []models.Record
	h.DoJSON("GET", "/api/locais", nil, &records)
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].Timestamp > records[1].Timestamp {
		t.Fatal("records should be listed in chronological order")
	}

	snap := h.Server.metrics.Snapshot()
	if snap.ReportsIngested != 3 || snap.DuplicateBatches != 1 {
		t.Fatalf("unexpected metrics: %+v", snap)
	}
}

func TestRegisterWithoutKeyInsertsAgain(t *testing.T) {
	h := newTestHarness(t)
	batch := []models.PendingReport{report("TR-01", 0)}
	for i := 0; i < 2; i++ {
		resp := h.Do("POST", "/api/registrar", batch)
		AssertStatus(t, resp, http.StatusCreated)
		resp.Body.Close()
	}
	records, _ := h.Store.ListRecords()
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}

func TestRegisterRejectsWholeBatch(t *testing.T) {
	h := newTestHarness(t)
	bad := report("TR-01", 1)
	bad.Latitude = 123
	msg := AssertErrorResponse(t, h.Do("POST", "/api/registrar", []models.PendingReport{report("TR-01", 0), bad}), http.StatusBadRequest)
	if msg == "" {
		t.Fatal("expected error message")
	}
	records, _ := h.Store.ListRecords()
	if len(records) != 0 {
		t.Fatalf("no record of a rejected batch may be stored, got %d", len(records))
	}

	AssertErrorResponse(t, h.Do("POST", "/api/registrar", []models.PendingReport{}), http.StatusBadRequest)
	AssertErrorResponse(t, h.DoRaw("POST", "/api/registrar", "application/json", []byte(`{"equipamento":`)), http.StatusBadRequest)
}

func TestUpdateAndDeleteRecord(t *testing.T) {
	h := newTestHarness(t)
	resp := h.Do("POST", "/api/registrar", report("TR-01", 0))
	id := ReadJSON[RegisterResponse](t, resp).IDs[0]
	path := fmt.Sprintf("/api/registro/%d", id)

	resp = h.Do("PUT", path, RecordUpdateRequest{Equipment: "TR-02", Observation: "corrigido"})
	AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	records, _ := h.Store.ListRecords()
	if records[0].Equipment != "TR-02" || records[0].Color != models.DefaultRecordColor || records[0].Observation != "corrigido" {
		t.Fatalf("unexpected record: %+v", records[0])
	}

	AssertErrorResponse(t, h.Do("PUT", path, RecordUpdateRequest{}), http.StatusBadRequest)

	resp = h.Do("DELETE", path, nil)
	AssertStatus(t, resp, http.StatusOK)
	resp.Body.Close()
	AssertErrorResponse(t, h.Do("DELETE", path, nil), http.StatusNotFound)
}
