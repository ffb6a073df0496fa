package models

import (
	"encoding/json"
	"strings"
)

// Session identifies the operator shift active on this device.
type Session struct {
	Equipment string `json:"equipamento"`
	Operator  string `json:"operador"`
}

// PendingReport is a GPS capture that has not been confirmed delivered.
// Field names follow the wire format of POST /api/registrar.
type PendingReport struct {
	Equipment   string  `json:"equipamento"`
	Operator    string  `json:"operador"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Timestamp   string  `json:"data_hora"`
	Observation string  `json:"observacao,omitempty"`
}

// Asset is a tracked piece of equipment as returned by GET /api/ativos.
type Asset struct {
	ID                     int64  `json:"id"`
	Name                   string `json:"nome"`
	TypeID                 *int64 `json:"tipo_id"`
	TypeName               string `json:"nome_tipo,omitempty"`
	Color                  string `json:"cor_padrao,omitempty"`
	BatteryManufactureDate string `json:"bateria_fabricacao,omitempty"`
	BatteryStatus          string `json:"status_bateria,omitempty"`
	BatteryColor           string `json:"cor_bateria,omitempty"`
}

// HasType reports whether the asset declares an equipment type.
func (a Asset) HasType() bool {
	return a.TypeID != nil
}

// NormalizeName is the canonical equipment name comparison key:
// surrounding whitespace is ignored and matching is case-insensitive.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// FindAsset returns the first asset whose normalized name matches name.
func FindAsset(assets []Asset, name string) (Asset, bool) {
	key := NormalizeName(name)
	for _, a := range assets {
		if NormalizeName(a.Name) == key {
			return a, true
		}
	}
	return Asset{}, false
}

// AssetType is a category of equipment owning a checklist.
type AssetType struct {
	ID   int64  `json:"id"`
	Name string `json:"nome"`
}

// ChecklistQuestion is one configured checklist item for a type.
type ChecklistQuestion struct {
	ID   int64  `json:"id"`
	Text string `json:"texto"`
}

// ChecklistAnswer is the operator's answer to one question.
type ChecklistAnswer struct {
	QuestionID  int64  `json:"pergunta_id"`
	Text        string `json:"texto"`
	Conformant  bool   `json:"conforme"`
	Observation string `json:"observacao,omitempty"`
	PhotoName   string `json:"foto_nome,omitempty"`
	Photo       []byte `json:"-"`
}

// HasPhoto reports whether a photo is attached.
func (a ChecklistAnswer) HasPhoto() bool {
	return len(a.Photo) > 0
}

// ChecklistSubmission is a stored checklist as listed by the server.
type ChecklistSubmission struct {
	ID        int64             `json:"id"`
	Equipment string            `json:"equipamento"`
	Operator  string            `json:"operador"`
	LocalTime string            `json:"data_hora_local"`
	CreatedAt string            `json:"recebido_em"`
	Items     []ChecklistAnswer `json:"itens"`
}

// Record is a stored position as listed by GET /api/locais.
type Record struct {
	ID          int64   `json:"id"`
	Equipment   string  `json:"equipamento"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Timestamp   string  `json:"data_hora"`
	SyncedAt    string  `json:"sincronizado_em,omitempty"`
	Observation string  `json:"observacao"`
	Color       string  `json:"cor"`
}

// Area is a named geofence polygon.
type Area struct {
	ID       int64           `json:"id"`
	Name     string          `json:"nome"`
	Geometry json.RawMessage `json:"geometry"`
	Color    string          `json:"cor"`
}

// BatteryUpdate is the server's answer to a battery date change.
type BatteryUpdate struct {
	Status    string `json:"status"`
	NewStatus string `json:"novo_status"`
	NewColor  string `json:"nova_cor"`
}

// Export is the document produced by GET /api/exportar and consumed by POST /api/importar.
type Export struct {
	Types     []AssetType                    `json:"tipos"`
	Assets    []Asset                        `json:"ativos"`
	Questions map[string][]ChecklistQuestion `json:"perguntas"` // keyed by type name
	Records   []Record                       `json:"registros"`
	Areas     []Area                         `json:"areas"`
}

// Default colors used by the console and the server.
const (
	DefaultRecordColor = "#007bff"
	DefaultAreaColor   = "#FFC107"
	DefaultAssetColor  = "#007bff"
)
