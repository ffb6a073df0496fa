// Package checklist builds, validates and encodes equipment checklists.
//
// Policy: a non-conformant answer needs both an observation and a photo.
// Conformant answers need neither.
package checklist

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/maprix/maprix/internal/models"
)

// LocalTimeLayout is the client local-time format sent as data_hora_local.
const LocalTimeLayout = "2006-01-02T15:04:05"

// Problem names a validation failure on one question.
type Problem string

const (
	MissingObservation Problem = "missing_observation"
	MissingPhoto       Problem = "missing_photo"
)

// FieldError is one failed rule on one question.
type FieldError struct {
	QuestionID int64
	Question   string
	Problem    Problem
}

func (e FieldError) Error() string {
	switch e.Problem {
	case MissingObservation:
		return fmt.Sprintf("%q: observation required for non-conformant item", e.Question)
	case MissingPhoto:
		return fmt.Sprintf("%q: photo required for non-conformant item", e.Question)
	}
	return fmt.Sprintf("%q: %s", e.Question, e.Problem)
}

// ValidationError lists every failed rule, in question order.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Error()
	}
	return "checklist incomplete: " + strings.Join(msgs, "; ")
}

// Has reports whether question id failed with problem p.
func (e *ValidationError) Has(id int64, p Problem) bool {
	for _, f := range e.Fields {
		if f.QuestionID == id && f.Problem == p {
			return true
		}
	}
	return false
}

// First returns the first offending field, where the operator is sent back to.
func (e *ValidationError) First() FieldError {
	return e.Fields[0]
}

// NewAnswers returns one default (conformant) answer per question.
func NewAnswers(questions []models.ChecklistQuestion) []models.ChecklistAnswer {
	answers := make([]models.ChecklistAnswer, len(questions))
	for i, q := range questions {
		answers[i] = models.ChecklistAnswer{QuestionID: q.ID, Text: q.Text, Conformant: true}
	}
	return answers
}

// Merge lays answers over the defaults for questions. Answers for unknown
// questions are ignored; missing answers stay conformant.
func Merge(questions []models.ChecklistQuestion, answers []models.ChecklistAnswer) []models.ChecklistAnswer {
	byID := make(map[int64]models.ChecklistAnswer, len(answers))
	for _, a := range answers {
		byID[a.QuestionID] = a
	}
	merged := NewAnswers(questions)
	for i, d := range merged {
		if a, ok := byID[d.QuestionID]; ok {
			a.Text = d.Text
			merged[i] = a
		}
	}
	return merged
}

// Validate checks every answer against the evidence rule.
func Validate(answers []models.ChecklistAnswer) error {
	var fields []FieldError
	for _, a := range answers {
		if a.Conformant {
			continue
		}
		if strings.TrimSpace(a.Observation) == "" {
			fields = append(fields, FieldError{QuestionID: a.QuestionID, Question: a.Text, Problem: MissingObservation})
		}
		if !a.HasPhoto() {
			fields = append(fields, FieldError{QuestionID: a.QuestionID, Question: a.Text, Problem: MissingPhoto})
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Encode bundles answers and identity into one multipart body. It does not
// validate; call Validate first.
func Encode(sess models.Session, answers []models.ChecklistAnswer, at time.Time) (contentType string, body []byte, err error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"equipamento", sess.Equipment},
		{"operador", sess.Operator},
		{"data_hora_local", at.Local().Format(LocalTimeLayout)},
	}
	for _, a := range answers {
		prefix := "item_" + strconv.FormatInt(a.QuestionID, 10)
		fields = append(fields,
			[2]string{prefix + "_conforme", strconv.FormatBool(a.Conformant)},
			[2]string{prefix + "_texto", a.Text},
			[2]string{prefix + "_obs", a.Observation},
		)
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return "", nil, fmt.Errorf("write field %s: %w", f[0], err)
		}
	}

	for _, a := range answers {
		if !a.HasPhoto() {
			continue
		}
		name := a.PhotoName
		if name == "" {
			name = fmt.Sprintf("item_%d.jpg", a.QuestionID)
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="item_%d_foto"; filename=%q`, a.QuestionID, filepath.Base(name)))
		h.Set("Content-Type", photoContentType(name))
		part, err := w.CreatePart(h)
		if err != nil {
			return "", nil, fmt.Errorf("create photo part: %w", err)
		}
		if _, err := part.Write(a.Photo); err != nil {
			return "", nil, fmt.Errorf("write photo: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return "", nil, fmt.Errorf("close multipart: %w", err)
	}
	return w.FormDataContentType(), buf.Bytes(), nil
}

func photoContentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".heic":
		return "image/heic"
	default:
		return "image/jpeg"
	}
}

// Decoded is a checklist read back from a multipart form.
type Decoded struct {
	Submission models.ChecklistSubmission
	Photos     map[int64]*multipart.FileHeader
}

// Decode reads a form produced by Encode. Items come back ordered by question
// id; photo bytes are left in Photos for the caller to store.
func Decode(form *multipart.Form) (*Decoded, error) {
	value := func(key string) string {
		if vs := form.Value[key]; len(vs) > 0 {
			return vs[0]
		}
		return ""
	}

	d := &Decoded{
		Submission: models.ChecklistSubmission{
			Equipment: strings.TrimSpace(value("equipamento")),
			Operator:  strings.TrimSpace(value("operador")),
			LocalTime: value("data_hora_local"),
		},
		Photos: map[int64]*multipart.FileHeader{},
	}
	if d.Submission.Equipment == "" || d.Submission.Operator == "" {
		return nil, fmt.Errorf("equipamento e operador sao obrigatorios")
	}

	items := map[int64]*models.ChecklistAnswer{}
	item := func(key, suffix string) (*models.ChecklistAnswer, bool) {
		rest, ok := strings.CutPrefix(key, "item_")
		if !ok {
			return nil, false
		}
		idStr, ok := strings.CutSuffix(rest, suffix)
		if !ok {
			return nil, false
		}
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			return nil, false
		}
		a, ok := items[id]
		if !ok {
			a = &models.ChecklistAnswer{QuestionID: id}
			items[id] = a
		}
		return a, true
	}

	for key, vs := range form.Value {
		if len(vs) == 0 {
			continue
		}
		if a, ok := item(key, "_conforme"); ok {
			c, err := strconv.ParseBool(vs[0])
			if err != nil {
				return nil, fmt.Errorf("%s: valor invalido %q", key, vs[0])
			}
			a.Conformant = c
		} else if a, ok := item(key, "_texto"); ok {
			a.Text = vs[0]
		} else if a, ok := item(key, "_obs"); ok {
			a.Observation = vs[0]
		}
	}
	for key, fhs := range form.File {
		if len(fhs) == 0 {
			continue
		}
		if a, ok := item(key, "_foto"); ok {
			d.Photos[a.QuestionID] = fhs[0]
			a.PhotoName = fhs[0].Filename
		}
	}

	ids := make([]int64, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		d.Submission.Items = append(d.Submission.Items, *items[id])
	}
	return d, nil
}

// CheckReceived applies the non-conformance rule to a decoded form, where
// photo presence is known from the file parts rather than from bytes.
func (d *Decoded) CheckReceived() error {
	var errs []FieldError
	for _, a := range d.Submission.Items {
		if a.Conformant {
			continue
		}
		if strings.TrimSpace(a.Observation) == "" {
			errs = append(errs, FieldError{QuestionID: a.QuestionID, Question: a.Text, Problem: MissingObservation})
		}
		if d.Photos[a.QuestionID] == nil {
			errs = append(errs, FieldError{QuestionID: a.QuestionID, Question: a.Text, Problem: MissingPhoto})
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
