package serverdb

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/maprix/maprix/internal/models"
)

// ImportCounts reports how many rows an import created.
type ImportCounts struct {
	Types     int `json:"tipos"`
	Assets    int `json:"ativos"`
	Questions int `json:"perguntas"`
	Records   int `json:"registros"`
	Areas     int `json:"areas"`
}

// Export dumps every table needed to rebuild the installation.
func (db *ServerDB) Export() (*models.Export, error) {
	doc := &models.Export{Questions: map[string][]models.ChecklistQuestion{}}
	var err error
	if doc.Types, err = db.ListTypes(); err != nil {
		return nil, err
	}
	if doc.Assets, err = db.ListAssets(); err != nil {
		return nil, err
	}
	for _, t := range doc.Types {
		qs, err := db.ListQuestions(t.ID)
		if err != nil {
			return nil, err
		}
		if len(qs) > 0 {
			doc.Questions[t.Name] = qs
		}
	}
	if doc.Records, err = db.ListRecords(); err != nil {
		return nil, err
	}
	if doc.Areas, err = db.ListAreas(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Import loads an exported document in one transaction. Types and assets are
// matched by name and reused; questions, records and areas are appended.
// Ids in the document are not preserved.
func (db *ServerDB) Import(doc *models.Export) (ImportCounts, error) {
	var c ImportCounts
	err := db.withTx(func(tx *sql.Tx) error {
		typeIDs := map[int64]int64{}
		byName := map[string]int64{}
		for _, t := range doc.Types {
			before, err := countRows(tx, "tipos")
			if err != nil {
				return err
			}
			got, err := ensureType(tx, t.Name)
			if err != nil {
				return err
			}
			after, _ := countRows(tx, "tipos")
			c.Types += after - before
			typeIDs[t.ID] = got.ID
			byName[models.NormalizeName(t.Name)] = got.ID
		}

		for _, a := range doc.Assets {
			name := strings.TrimSpace(a.Name)
			if name == "" {
				continue
			}
			var exists int
			if err := tx.QueryRow(`SELECT COUNT(*) FROM ativos WHERE nome = ? COLLATE NOCASE`, name).Scan(&exists); err != nil {
				return err
			}
			if exists > 0 {
				continue
			}
			var typeID any
			if a.TypeName != "" {
				if id, ok := byName[models.NormalizeName(a.TypeName)]; ok {
					typeID = id
				}
			} else if a.TypeID != nil {
				if id, ok := typeIDs[*a.TypeID]; ok {
					typeID = id
				}
			}
			color := a.Color
			if color == "" {
				color = models.DefaultAssetColor
			}
			if _, err := tx.Exec(`INSERT INTO ativos (nome, tipo_id, cor_padrao, bateria_fabricacao) VALUES (?, ?, ?, ?)`,
				name, typeID, color, a.BatteryManufactureDate); err != nil {
				return fmt.Errorf("import asset %q: %w", name, err)
			}
			c.Assets++
		}

		for typeName, qs := range doc.Questions {
			t, err := ensureType(tx, typeName)
			if err != nil {
				return err
			}
			for _, q := range qs {
				if _, err := tx.Exec(
					`INSERT INTO checklist_perguntas (tipo_id, texto, ordem)
					 VALUES (?, ?, (SELECT COALESCE(MAX(ordem), 0) + 1 FROM checklist_perguntas WHERE tipo_id = ?))`,
					t.ID, q.Text, t.ID); err != nil {
					return fmt.Errorf("import question: %w", err)
				}
				c.Questions++
			}
		}

		for _, r := range doc.Records {
			color := r.Color
			if color == "" {
				color = models.DefaultRecordColor
			}
			if _, err := tx.Exec(
				`INSERT INTO registros (equipamento, latitude, longitude, data_hora, sincronizado_em, observacao, cor)
				 VALUES (?, ?, ?, ?, NULLIF(?, ''), ?, ?)`,
				r.Equipment, r.Latitude, r.Longitude, r.Timestamp, r.SyncedAt, r.Observation, color); err != nil {
				return fmt.Errorf("import record: %w", err)
			}
			c.Records++
		}

		for _, a := range doc.Areas {
			color := a.Color
			if color == "" {
				color = models.DefaultAreaColor
			}
			if _, err := tx.Exec(`INSERT INTO areas (nome, geometria, cor) VALUES (?, ?, ?)`, a.Name, string(a.Geometry), color); err != nil {
				return fmt.Errorf("import area: %w", err)
			}
			c.Areas++
		}
		return nil
	})
	return c, err
}

func countRows(tx *sql.Tx, table string) (int, error) {
	var n int
	err := tx.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n)
	return n, err
}
