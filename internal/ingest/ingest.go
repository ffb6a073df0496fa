// Package ingest stores position reports received from operators. A bulk
// delivery tagged with a batch id is applied at most once.
package ingest

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maprix/maprix/internal/models"
)

// Schema creates the tables ingest writes to.
const Schema = `
CREATE TABLE IF NOT EXISTS registros (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    equipamento TEXT NOT NULL,
    operador TEXT NOT NULL DEFAULT '',
    latitude REAL NOT NULL,
    longitude REAL NOT NULL,
    data_hora TEXT NOT NULL,
    sincronizado_em TEXT,
    observacao TEXT NOT NULL DEFAULT '',
    cor TEXT NOT NULL DEFAULT '#007bff',
    lote_id TEXT
);
CREATE INDEX IF NOT EXISTS idx_registros_data_hora ON registros(data_hora);

CREATE TABLE IF NOT EXISTS sync_lotes (
    id TEXT PRIMARY KEY,
    quantidade INTEGER NOT NULL,
    recebido_em TEXT NOT NULL
);
`

// Init creates the ingest tables if they don't exist.
func Init(db *sql.DB) error {
	if _, err := db.Exec(Schema); err != nil {
		return fmt.Errorf("init ingest tables: %w", err)
	}
	return nil
}

// InvalidReportError rejects a whole delivery because one report is malformed.
type InvalidReportError struct {
	Index  int
	Reason string
}

func (e *InvalidReportError) Error() string {
	return fmt.Sprintf("registro %d: %s", e.Index, e.Reason)
}

// ErrEmptyBatch is returned for a delivery without reports.
var ErrEmptyBatch = errors.New("nenhum registro enviado")

// Delivery is one POST /api/registrar.
type Delivery struct {
	BatchID    string
	Reports    []models.PendingReport
	ReceivedAt time.Time
}

// Result describes an applied delivery.
type Result struct {
	Inserted  int
	IDs       []int64
	Duplicate bool
}

// Validate checks every report. The first malformed one fails the delivery.
func Validate(reports []models.PendingReport) error {
	if len(reports) == 0 {
		return ErrEmptyBatch
	}
	for i, r := range reports {
		switch {
		case strings.TrimSpace(r.Equipment) == "":
			return &InvalidReportError{i, "equipamento obrigatorio"}
		case r.Latitude < -90 || r.Latitude > 90:
			return &InvalidReportError{i, fmt.Sprintf("latitude fora do intervalo: %v", r.Latitude)}
		case r.Longitude < -180 || r.Longitude > 180:
			return &InvalidReportError{i, fmt.Sprintf("longitude fora do intervalo: %v", r.Longitude)}
		case strings.TrimSpace(r.Timestamp) == "":
			return &InvalidReportError{i, "data_hora obrigatoria"}
		}
	}
	return nil
}

// Apply inserts a delivery within tx. A batch id seen before is acknowledged
// as a duplicate without inserting anything. colorFor may be nil.
func Apply(tx *sql.Tx, d Delivery, colorFor func(equipment string) string) (Result, error) {
	if err := Validate(d.Reports); err != nil {
		return Result{}, err
	}
	received := d.ReceivedAt.UTC().Format(time.RFC3339)

	if d.BatchID != "" {
		var qty int
		err := tx.QueryRow(`SELECT quantidade FROM sync_lotes WHERE id = ?`, d.BatchID).Scan(&qty)
		switch {
		case err == nil:
			slog.Debug("ingest: duplicate batch", "batch", d.BatchID, "count", qty)
			return Result{Inserted: qty, Duplicate: true}, nil
		case !errors.Is(err, sql.ErrNoRows):
			return Result{}, fmt.Errorf("lookup batch %s: %w", d.BatchID, err)
		}
	}

	var batchParam any
	if d.BatchID != "" {
		batchParam = d.BatchID
	}

	res := Result{IDs: make([]int64, 0, len(d.Reports))}
	for i, r := range d.Reports {
		color := models.DefaultRecordColor
		if colorFor != nil {
			if c := colorFor(r.Equipment); c != "" {
				color = c
			}
		}
		out, err := tx.Exec(
			`INSERT INTO registros (equipamento, operador, latitude, longitude, data_hora, sincronizado_em, observacao, cor, lote_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			strings.TrimSpace(r.Equipment), r.Operator, r.Latitude, r.Longitude, r.Timestamp,
			received, r.Observation, color, batchParam,
		)
		if err != nil {
			return Result{}, fmt.Errorf("insert report %d: %w", i, err)
		}
		id, err := out.LastInsertId()
		if err != nil {
			return Result{}, fmt.Errorf("last insert id: %w", err)
		}
		res.IDs = append(res.IDs, id)
		res.Inserted++
	}

	if d.BatchID != "" {
		if _, err := tx.Exec(`INSERT INTO sync_lotes (id, quantidade, recebido_em) VALUES (?, ?, ?)`,
			d.BatchID, res.Inserted, received); err != nil {
			return Result{}, fmt.Errorf("record batch %s: %w", d.BatchID, err)
		}
	}
	return res, nil
}
