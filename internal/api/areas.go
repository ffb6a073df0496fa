package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

// SaveAreaRequest is the body of POST /api/salvar_area.
type SaveAreaRequest struct {
	Name     string          `json:"nome"`
	Geometry json.RawMessage `json:"geometry"`
	Color    string          `json:"cor"`
}

func (s *Server) handleSaveArea(w http.ResponseWriter, r *http.Request) {
	var req SaveAreaRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" || len(req.Geometry) == 0 || !json.Valid(req.Geometry) {
		writeError(w, http.StatusBadRequest, "nome e geometry sao obrigatorios")
		return
	}
	id, err := s.store.SaveArea(req.Name, req.Geometry, req.Color)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, StatusResponse{Status: "ok", ID: id})
}

func (s *Server) handleListAreas(w http.ResponseWriter, r *http.Request) {
	areas, err := s.store.ListAreas()
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, areas)
}

func (s *Server) handleDeleteArea(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteArea(id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusOK)
}
