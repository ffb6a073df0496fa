package serverdb

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/maprix/maprix/internal/models"
)

// ListTypes returns every equipment type ordered by name.
func (db *ServerDB) ListTypes() ([]models.AssetType, error) {
	rows, err := db.conn.Query(`SELECT id, nome FROM tipos ORDER BY nome`)
	if err != nil {
		return nil, fmt.Errorf("list types: %w", err)
	}
	defer rows.Close()

	types := []models.AssetType{}
	for rows.Next() {
		var t models.AssetType
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// CreateType inserts a type, or returns the existing one with the same name.
func (db *ServerDB) CreateType(name string) (*models.AssetType, error) {
	var t *models.AssetType
	err := db.withTx(func(tx *sql.Tx) error {
		var err error
		t, err = ensureType(tx, name)
		return err
	})
	return t, err
}

func ensureType(tx *sql.Tx, name string) (*models.AssetType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("type name is required")
	}
	t := &models.AssetType{Name: name}
	err := tx.QueryRow(`SELECT id, nome FROM tipos WHERE nome = ? COLLATE NOCASE`, name).Scan(&t.ID, &t.Name)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lookup type: %w", err)
	}
	res, err := tx.Exec(`INSERT INTO tipos (nome) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("insert type: %w", err)
	}
	t.ID, _ = res.LastInsertId()
	return t, nil
}

func typeExists(q interface {
	QueryRow(string, ...any) *sql.Row
}, id int64) (bool, error) {
	var n int
	if err := q.QueryRow(`SELECT COUNT(*) FROM tipos WHERE id = ?`, id).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

const assetColumns = `a.id, a.nome, a.tipo_id, COALESCE(t.nome, ''), a.cor_padrao, a.bateria_fabricacao`

func scanAsset(scan func(...any) error) (models.Asset, error) {
	var a models.Asset
	var typeID sql.NullInt64
	if err := scan(&a.ID, &a.Name, &typeID, &a.TypeName, &a.Color, &a.BatteryManufactureDate); err != nil {
		return a, err
	}
	if typeID.Valid {
		id := typeID.Int64
		a.TypeID = &id
	}
	return a, nil
}

// ListAssets returns every asset ordered by name.
func (db *ServerDB) ListAssets() ([]models.Asset, error) {
	rows, err := db.conn.Query(`SELECT ` + assetColumns + ` FROM ativos a LEFT JOIN tipos t ON t.id = a.tipo_id ORDER BY a.nome`)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	assets := []models.Asset{}
	for rows.Next() {
		a, err := scanAsset(rows.Scan)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// GetAssetByName looks an asset up case-insensitively.
func (db *ServerDB) GetAssetByName(name string) (*models.Asset, error) {
	row := db.conn.QueryRow(`SELECT `+assetColumns+` FROM ativos a LEFT JOIN tipos t ON t.id = a.tipo_id WHERE a.nome = ? COLLATE NOCASE`, strings.TrimSpace(name))
	a, err := scanAsset(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("asset %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get asset: %w", err)
	}
	return &a, nil
}

// NewAsset is the input of CreateAsset. TypeName, when set, creates or reuses
// a type by name and wins over TypeID.
type NewAsset struct {
	Name     string
	TypeID   *int64
	TypeName string
	Color    string
}

// CreateAsset registers an asset. Names are unique ignoring case.
func (db *ServerDB) CreateAsset(in NewAsset) (int64, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return 0, fmt.Errorf("asset name is required")
	}
	color := in.Color
	if color == "" {
		color = models.DefaultAssetColor
	}

	var id int64
	err := db.withTx(func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM ativos WHERE nome = ? COLLATE NOCASE`, name).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("asset %q: %w", name, ErrConflict)
		}

		var typeID any
		switch {
		case strings.TrimSpace(in.TypeName) != "":
			t, err := ensureType(tx, in.TypeName)
			if err != nil {
				return err
			}
			typeID = t.ID
		case in.TypeID != nil:
			ok, err := typeExists(tx, *in.TypeID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("type %d: %w", *in.TypeID, ErrNotFound)
			}
			typeID = *in.TypeID
		}

		res, err := tx.Exec(`INSERT INTO ativos (nome, tipo_id, cor_padrao) VALUES (?, ?, ?)`, name, typeID, color)
		if err != nil {
			return fmt.Errorf("insert asset: %w", err)
		}
		id, _ = res.LastInsertId()
		return nil
	})
	return id, err
}

// DeleteAsset removes an asset.
func (db *ServerDB) DeleteAsset(id int64) error {
	res, err := db.conn.Exec(`DELETE FROM ativos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	return checkAffected(res, "asset", id)
}

// SetBatteryDate records the battery manufacture date (YYYY-MM-DD) of an asset.
func (db *ServerDB) SetBatteryDate(name, date string) error {
	res, err := db.conn.Exec(`UPDATE ativos SET bateria_fabricacao = ? WHERE nome = ? COLLATE NOCASE`, date, strings.TrimSpace(name))
	if err != nil {
		return fmt.Errorf("set battery date: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("asset %q: %w", name, ErrNotFound)
	}
	return nil
}

func assetColor(tx *sql.Tx, name string) string {
	var color string
	if err := tx.QueryRow(`SELECT cor_padrao FROM ativos WHERE nome = ? COLLATE NOCASE`, strings.TrimSpace(name)).Scan(&color); err != nil {
		return ""
	}
	return color
}
