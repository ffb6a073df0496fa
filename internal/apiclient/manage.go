package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/maprix/maprix/internal/models"
)

// --- Types ---

// ListTypes fetches every equipment type.
func (c *Client) ListTypes(ctx context.Context) ([]models.AssetType, error) {
	var resp []models.AssetType
	if err := c.do(ctx, http.MethodGet, "/api/tipos", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// CreateType creates an equipment type.
func (c *Client) CreateType(ctx context.Context, name string) (*models.AssetType, error) {
	var resp models.AssetType
	if err := c.do(ctx, http.MethodPost, "/api/tipos", nil, map[string]string{"nome": name}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteAsset removes an asset.
func (c *Client) DeleteAsset(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/ativos/%d", id), nil, nil, nil)
}

// --- Checklist configuration ---

// AddQuestion appends a question to a type's checklist.
func (c *Client) AddQuestion(ctx context.Context, typeID int64, text string) (*models.ChecklistQuestion, error) {
	var resp models.ChecklistQuestion
	path := fmt.Sprintf("/api/checklist/config/%d", typeID)
	if err := c.do(ctx, http.MethodPost, path, nil, map[string]string{"texto": text}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteQuestion removes a checklist question.
func (c *Client) DeleteQuestion(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/checklist/pergunta/%d", id), nil, nil, nil)
}

// ListSubmissions lists received checklists, newest first. A non-empty
// equipment restricts the list to that equipment.
func (c *Client) ListSubmissions(ctx context.Context, equipment string) ([]models.ChecklistSubmission, error) {
	path := "/api/checklist/respostas"
	if equipment != "" {
		path += "?" + url.Values{"equipamento": {equipment}}.Encode()
	}
	var resp []models.ChecklistSubmission
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// --- Records ---

// ListRecords fetches stored positions in chronological order.
func (c *Client) ListRecords(ctx context.Context) ([]models.Record, error) {
	var resp []models.Record
	if err := c.do(ctx, http.MethodGet, "/api/locais", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// RecordUpdate is the body of PUT /api/registro/{id}.
type RecordUpdate struct {
	Equipment   string `json:"equipamento"`
	Color       string `json:"cor"`
	Observation string `json:"observacao"`
}

// UpdateRecord edits a stored position.
func (c *Client) UpdateRecord(ctx context.Context, id int64, u RecordUpdate) error {
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/api/registro/%d", id), nil, u, nil)
}

// DeleteRecord removes a stored position.
func (c *Client) DeleteRecord(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/registro/%d", id), nil, nil, nil)
}

// --- Areas ---

// ListAreas fetches every geofence.
func (c *Client) ListAreas(ctx context.Context) ([]models.Area, error) {
	var resp []models.Area
	if err := c.do(ctx, http.MethodGet, "/api/areas", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// SaveArea stores a geofence polygon.
func (c *Client) SaveArea(ctx context.Context, name string, geometry json.RawMessage, color string) error {
	body := map[string]any{"nome": name, "geometry": geometry, "cor": color}
	return c.do(ctx, http.MethodPost, "/api/salvar_area", nil, body, nil)
}

// DeleteArea removes a geofence.
func (c *Client) DeleteArea(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/area/%d", id), nil, nil, nil)
}

// --- Export / import ---

// Export downloads the full data document.
func (c *Client) Export(ctx context.Context) (*models.Export, error) {
	var resp models.Export
	if err := c.do(ctx, http.MethodGet, "/api/exportar", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ImportResponse summarizes an import.
type ImportResponse struct {
	Status    string `json:"status"`
	Types     int    `json:"tipos"`
	Assets    int    `json:"ativos"`
	Questions int    `json:"perguntas"`
	Records   int    `json:"registros"`
	Areas     int    `json:"areas"`
}

// Import uploads a data document.
func (c *Client) Import(ctx context.Context, doc *models.Export) (*ImportResponse, error) {
	var resp ImportResponse
	if err := c.do(ctx, http.MethodPost, "/api/importar", nil, doc, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
