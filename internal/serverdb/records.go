package serverdb

import (
	"database/sql"
	"fmt"

	"github.com/maprix/maprix/internal/ingest"
	"github.com/maprix/maprix/internal/models"
)

// IngestReports stores a delivery in one transaction. Records take the
// asset's default color when the equipment is registered.
func (db *ServerDB) IngestReports(d ingest.Delivery) (ingest.Result, error) {
	var res ingest.Result
	err := db.withTx(func(tx *sql.Tx) error {
		var err error
		res, err = ingest.Apply(tx, d, func(equipment string) string {
			return assetColor(tx, equipment)
		})
		return err
	})
	return res, err
}

// ListRecords returns every stored position in chronological order.
func (db *ServerDB) ListRecords() ([]models.Record, error) {
	rows, err := db.conn.Query(
		`SELECT id, equipamento, latitude, longitude, data_hora, COALESCE(sincronizado_em, ''), observacao, cor
		 FROM registros ORDER BY data_hora ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	records := []models.Record{}
	for rows.Next() {
		var r models.Record
		if err := rows.Scan(&r.ID, &r.Equipment, &r.Latitude, &r.Longitude, &r.Timestamp, &r.SyncedAt, &r.Observation, &r.Color); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// UpdateRecord rewrites the editable fields of a record.
func (db *ServerDB) UpdateRecord(id int64, equipment, color, observation string) error {
	res, err := db.conn.Exec(`UPDATE registros SET equipamento = ?, cor = ?, observacao = ? WHERE id = ?`,
		equipment, color, observation, id)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	return checkAffected(res, "record", id)
}

// DeleteRecord removes a record.
func (db *ServerDB) DeleteRecord(id int64) error {
	res, err := db.conn.Exec(`DELETE FROM registros WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return checkAffected(res, "record", id)
}
