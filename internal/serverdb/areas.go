package serverdb

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/maprix/maprix/internal/models"
)

// SaveArea stores a named geofence. geometry must be valid JSON.
func (db *ServerDB) SaveArea(name string, geometry json.RawMessage, color string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("area name is required")
	}
	if !json.Valid(geometry) {
		return 0, fmt.Errorf("area geometry is not valid JSON")
	}
	if color == "" {
		color = models.DefaultAreaColor
	}
	res, err := db.conn.Exec(`INSERT INTO areas (nome, geometria, cor) VALUES (?, ?, ?)`, name, string(geometry), color)
	if err != nil {
		return 0, fmt.Errorf("insert area: %w", err)
	}
	return res.LastInsertId()
}

// ListAreas returns every area.
func (db *ServerDB) ListAreas() ([]models.Area, error) {
	rows, err := db.conn.Query(`SELECT id, nome, geometria, cor FROM areas ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list areas: %w", err)
	}
	defer rows.Close()

	areas := []models.Area{}
	for rows.Next() {
		var a models.Area
		var geom string
		if err := rows.Scan(&a.ID, &a.Name, &geom, &a.Color); err != nil {
			return nil, err
		}
		a.Geometry = json.RawMessage(geom)
		areas = append(areas, a)
	}
	return areas, rows.Err()
}

// DeleteArea removes an area.
func (db *ServerDB) DeleteArea(id int64) error {
	res, err := db.conn.Exec(`DELETE FROM areas WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete area: %w", err)
	}
	return checkAffected(res, "area", id)
}
