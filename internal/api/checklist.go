package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/maprix/maprix/internal/checklist"
	"github.com/maprix/maprix/internal/webhook"
)

// maxMultipartMemory is how much of a checklist form is held in memory
// before photo parts spill to temporary files.
const maxMultipartMemory = 8 << 20

func (s *Server) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	typeID, ok := pathID(w, r, "tipoId")
	if !ok {
		return
	}
	qs, err := s.store.ListQuestions(typeID)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, qs)
}

func (s *Server) handleAddQuestion(w http.ResponseWriter, r *http.Request) {
	typeID, ok := pathID(w, r, "tipoId")
	if !ok {
		return
	}
	var req struct {
		Text string `json:"texto"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "texto obrigatorio")
		return
	}
	q, err := s.store.AddQuestion(typeID, req.Text)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (s *Server) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.store.DeleteQuestion(id); err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusOK)
}

// handleSubmitChecklist stores a multipart checklist and its photos.
func (s *Server) handleSubmitChecklist(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "formulario multipart invalido")
		return
	}
	defer r.MultipartForm.RemoveAll()

	d, err := checklist.Decode(r.MultipartForm)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := d.CheckReceived(); err != nil {
		var verr *checklist.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, verr.First().Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var saved []string
	sub := d.Submission
	for i, item := range sub.Items {
		fh := d.Photos[item.QuestionID]
		if fh == nil {
			sub.Items[i].PhotoName = ""
			continue
		}
		name, err := s.photos.Save(fh)
		if err != nil {
			s.photos.Remove(saved...)
			logFor(r.Context()).Error("save photo", "err", err)
			writeError(w, http.StatusInternalServerError, "falha ao salvar foto")
			return
		}
		saved = append(saved, name)
		sub.Items[i].PhotoName = name
	}

	id, err := s.store.InsertSubmission(sub, s.now())
	if err != nil {
		s.photos.Remove(saved...)
		writeStoreError(w, r, err)
		return
	}
	s.metrics.RecordChecklist()
	logFor(r.Context()).Info("checklist received", "id", id, "equipamento", sub.Equipment, "itens", len(sub.Items), "fotos", len(saved))
	s.hooks.Notify(webhook.EventChecklist, map[string]interface{}{
		"id":          id,
		"equipamento": sub.Equipment,
		"operador":    sub.Operator,
		"itens":       sub.Items,
	})
	writeJSON(w, http.StatusCreated, StatusResponse{Status: "ok", ID: id})
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.store.ListSubmissions(r.URL.Query().Get("equipamento"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

// handlePhoto serves a stored checklist photo.
func (s *Server) handlePhoto(w http.ResponseWriter, r *http.Request) {
	path, ok := s.photos.Path(r.PathValue("nome"))
	if !ok {
		writeError(w, http.StatusBadRequest, "nome invalido")
		return
	}
	http.ServeFile(w, r, path)
}
