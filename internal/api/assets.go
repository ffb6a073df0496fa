package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/maprix/maprix/internal/battery"
	"github.com/maprix/maprix/internal/models"
	"github.com/maprix/maprix/internal/serverdb"
)

// CreateAssetRequest is the body of POST /api/ativos.
type CreateAssetRequest struct {
	Name     string `json:"nome"`
	TypeID   *int64 `json:"tipo_id"`
	TypeName string `json:"tipo"`
	Color    string `json:"cor"`
}

// BatteryRequest is the body of POST /api/operador/bateria.
type BatteryRequest struct {
	Equipment string `json:"equipamento"`
	Date      string `json:"data"`
}

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	assets, err := s.store.ListAssets()
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	now := s.now()
	for i := range assets {
		s.gradeBattery(&assets[i], now)
	}
	writeJSON(w, http.StatusOK, assets)
}

func (s *Server) gradeBattery(a *models.Asset, now time.Time) {
	if a.BatteryManufactureDate == "" {
		return
	}
	g, err := battery.Classify(a.BatteryManufactureDate, now, s.config.Battery)
	if err != nil {
		return
	}
	a.BatteryStatus = g.Status
	a.BatteryColor = g.Color
}

func (s *Server) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	var req CreateAssetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "nome obrigatorio")
		return
	}
	id, err := s.store.CreateAsset(serverdb.NewAsset{
		Name:     req.Name,
		TypeID:   req.TypeID,
		TypeName: req.TypeName,
		Color:    req.Color,
	})
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	logFor(r.Context()).Info("asset created", "id", id, "nome", strings.TrimSpace(req.Name), "typed", req.TypeID != nil || req.TypeName != "")
	writeJSON(w, http.StatusCreated, StatusResponse{Status: "ok", ID: id})
}

func (s *Server) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteAsset(id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusOK)
}

func (s *Server) handleListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := s.store.ListTypes()
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types)
}

func (s *Server) handleCreateType(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"nome"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "nome obrigatorio")
		return
	}
	t, err := s.store.CreateType(req.Name)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleBattery(w http.ResponseWriter, r *http.Request) {
	var req BatteryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Equipment) == "" {
		writeError(w, http.StatusBadRequest, "equipamento obrigatorio")
		return
	}
	made, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "data invalida, use AAAA-MM-DD")
		return
	}
	now := s.now()
	if made.After(now) {
		writeError(w, http.StatusBadRequest, "data de fabricacao no futuro")
		return
	}
	grade, err := battery.Classify(req.Date, now, s.config.Battery)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.SetBatteryDate(req.Equipment, req.Date); err != nil {
		writeStoreError(w, r, err)
		return
	}
	logFor(r.Context()).Info("battery updated", "equipamento", req.Equipment, "status", grade.Status, "meses", grade.Months)
	writeJSON(w, http.StatusOK, models.BatteryUpdate{Status: "ok", NewStatus: grade.Status, NewColor: grade.Color})
}
