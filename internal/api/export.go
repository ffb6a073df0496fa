package api

import (
	"fmt"
	"net/http"

	"github.com/maprix/maprix/internal/models"
	"github.com/maprix/maprix/internal/serverdb"
)

// ImportResponse summarizes an import.
type ImportResponse struct {
	Status string `json:"status"`
	serverdb.ImportCounts
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	doc, err := s.store.Export()
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="maprix-%s.json"`, s.now().Format("20060102")))
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var doc models.Export
	if !decodeJSON(w, r, &doc) {
		return
	}
	counts, err := s.store.Import(&doc)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	logFor(r.Context()).Info("import", "tipos", counts.Types, "ativos", counts.Assets, "registros", counts.Records)
	writeJSON(w, http.StatusOK, ImportResponse{Status: "ok", ImportCounts: counts})
}
