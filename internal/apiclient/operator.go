package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/maprix/maprix/internal/models"
)

// CreateAssetRequest is the body of POST /api/ativos. TypeID is sent as null
// when neither TypeID nor TypeName is set.
type CreateAssetRequest struct {
	Name     string `json:"nome"`
	TypeID   *int64 `json:"tipo_id"`
	TypeName string `json:"tipo,omitempty"`
	Color    string `json:"cor,omitempty"`
}

// CreateAssetResponse is the response of POST /api/ativos.
type CreateAssetResponse struct {
	StatusResponse
	ID int64 `json:"id,omitempty"`
}

// ListAssets fetches every asset.
func (c *Client) ListAssets(ctx context.Context) ([]models.Asset, error) {
	var resp []models.Asset
	if err := c.do(ctx, http.MethodGet, "/api/ativos", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// CreateAsset registers an asset.
func (c *Client) CreateAsset(ctx context.Context, req CreateAssetRequest) (*CreateAssetResponse, error) {
	var resp CreateAssetResponse
	if err := c.do(ctx, http.MethodPost, "/api/ativos", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ChecklistConfig fetches the ordered questions configured for a type.
func (c *Client) ChecklistConfig(ctx context.Context, typeID int64) ([]models.ChecklistQuestion, error) {
	var resp []models.ChecklistQuestion
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/checklist/config/%d", typeID), nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// SubmitChecklist posts an already encoded multipart checklist body.
func (c *Client) SubmitChecklist(ctx context.Context, contentType string, body []byte) (*StatusResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/checklist/submit", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	var resp StatusResponse
	if err := c.send(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register delivers a single report.
func (c *Client) Register(ctx context.Context, report models.PendingReport) error {
	return c.do(ctx, http.MethodPost, "/api/registrar", nil, report, nil)
}

// RegisterBatchResponse is the response of a bulk POST /api/registrar.
type RegisterBatchResponse struct {
	Status    string `json:"status"`
	Inserted  int    `json:"inseridos"`
	Duplicate bool   `json:"duplicado,omitempty"`
}

// RegisterBatch delivers reports as one bulk array tagged with batchID.
func (c *Client) RegisterBatch(ctx context.Context, batchID string, reports []models.PendingReport) (*RegisterBatchResponse, error) {
	header := http.Header{}
	if batchID != "" {
		header.Set(IdempotencyHeader, batchID)
	}
	var resp RegisterBatchResponse
	if err := c.do(ctx, http.MethodPost, "/api/registrar", header, reports, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateBattery records a new battery manufacture date for an equipment.
func (c *Client) UpdateBattery(ctx context.Context, equipment, date string) (*models.BatteryUpdate, error) {
	body := map[string]string{"equipamento": equipment, "data": date}
	var resp models.BatteryUpdate
	if err := c.do(ctx, http.MethodPost, "/api/operador/bateria", nil, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
