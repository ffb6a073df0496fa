package checklist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/maprix/maprix/internal/models"
)

// ItemInput holds the raw values bound to one question's form fields.
type ItemInput struct {
	Question    models.ChecklistQuestion
	Conformant  bool
	Observation string
	PhotoPath   string
}

// FormState holds the interactive checklist for one equipment.
type FormState struct {
	Equipment string
	Items     []*ItemInput
	Form      *huh.Form
}

// NewFormState builds the form for questions, every item defaulting to conformant.
func NewFormState(equipment string, questions []models.ChecklistQuestion) *FormState {
	fs := &FormState{Equipment: equipment}
	for _, q := range questions {
		fs.Items = append(fs.Items, &ItemInput{Question: q, Conformant: true})
	}
	fs.buildForm()
	return fs
}

func (fs *FormState) buildForm() {
	groups := make([]*huh.Group, 0, len(fs.Items))
	for i, item := range fs.Items {
		item := item
		groups = append(groups, huh.NewGroup(
			huh.NewConfirm().
				Title(item.Question.Text).
				Affirmative("Conforme").
				Negative("Não conforme").
				Value(&item.Conformant),
			huh.NewText().
				Title("Observação").
				Placeholder("Obrigatória se não conforme").
				Lines(2).
				Value(&item.Observation).
				Validate(func(s string) error {
					if !item.Conformant && strings.TrimSpace(s) == "" {
						return fmt.Errorf("observation required for non-conformant item")
					}
					return nil
				}),
			huh.NewInput().
				Title("Foto (caminho do arquivo)").
				Value(&item.PhotoPath).
				Validate(func(s string) error {
					s = strings.TrimSpace(s)
					if s == "" {
						if !item.Conformant {
							return fmt.Errorf("photo required for non-conformant item")
						}
						return nil
					}
					if _, err := os.Stat(s); err != nil {
						return fmt.Errorf("photo not readable: %w", err)
					}
					return nil
				}),
		).Title(fmt.Sprintf("Checklist %s (%d/%d)", fs.Equipment, i+1, len(fs.Items))))
	}
	fs.Form = huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
}

// Run shows the form on the terminal and returns the collected answers.
func (fs *FormState) Run() ([]models.ChecklistAnswer, error) {
	if err := fs.Form.Run(); err != nil {
		return nil, err
	}
	return fs.Answers()
}

// Answers converts the bound values to answers, reading photo files from disk.
func (fs *FormState) Answers() ([]models.ChecklistAnswer, error) {
	answers := make([]models.ChecklistAnswer, 0, len(fs.Items))
	for _, item := range fs.Items {
		a := models.ChecklistAnswer{
			QuestionID:  item.Question.ID,
			Text:        item.Question.Text,
			Conformant:  item.Conformant,
			Observation: strings.TrimSpace(item.Observation),
		}
		if err := attachPhoto(&a, item.PhotoPath); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, nil
}

// FileAnswer is one entry of a non-interactive answers file.
type FileAnswer struct {
	QuestionID  int64  `json:"pergunta_id"`
	Conformant  *bool  `json:"conforme,omitempty"`
	Observation string `json:"observacao,omitempty"`
	PhotoPath   string `json:"foto,omitempty"`
}

// LoadAnswersFile reads a JSON array of FileAnswer. Relative photo paths
// resolve against the file's directory. Omitted conforme means conformant.
func LoadAnswersFile(path string) ([]models.ChecklistAnswer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read answers: %w", err)
	}
	var entries []FileAnswer
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse answers: %w", err)
	}
	dir := filepath.Dir(path)
	answers := make([]models.ChecklistAnswer, 0, len(entries))
	for _, e := range entries {
		a := models.ChecklistAnswer{
			QuestionID:  e.QuestionID,
			Conformant:  e.Conformant == nil || *e.Conformant,
			Observation: strings.TrimSpace(e.Observation),
		}
		photo := e.PhotoPath
		if photo != "" && !filepath.IsAbs(photo) {
			photo = filepath.Join(dir, photo)
		}
		if err := attachPhoto(&a, photo); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, nil
}

func attachPhoto(a *models.ChecklistAnswer, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read photo for %q: %w", a.Text, err)
	}
	a.Photo = data
	a.PhotoName = filepath.Base(path)
	return nil
}
