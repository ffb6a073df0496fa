package serverdb

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/maprix/maprix/internal/models"
)

// ListQuestions returns the questions of a type in display order.
func (db *ServerDB) ListQuestions(typeID int64) ([]models.ChecklistQuestion, error) {
	rows, err := db.conn.Query(`SELECT id, texto FROM checklist_perguntas WHERE tipo_id = ? ORDER BY ordem, id`, typeID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	qs := []models.ChecklistQuestion{}
	for rows.Next() {
		var q models.ChecklistQuestion
		if err := rows.Scan(&q.ID, &q.Text); err != nil {
			return nil, err
		}
		qs = append(qs, q)
	}
	return qs, rows.Err()
}

// AddQuestion appends a question to a type's checklist.
func (db *ServerDB) AddQuestion(typeID int64, text string) (*models.ChecklistQuestion, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("question text is required")
	}
	q := &models.ChecklistQuestion{Text: text}
	err := db.withTx(func(tx *sql.Tx) error {
		ok, err := typeExists(tx, typeID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("type %d: %w", typeID, ErrNotFound)
		}
		res, err := tx.Exec(
			`INSERT INTO checklist_perguntas (tipo_id, texto, ordem)
			 VALUES (?, ?, (SELECT COALESCE(MAX(ordem), 0) + 1 FROM checklist_perguntas WHERE tipo_id = ?))`,
			typeID, text, typeID)
		if err != nil {
			return fmt.Errorf("insert question: %w", err)
		}
		q.ID, _ = res.LastInsertId()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return q, nil
}

// DeleteQuestion removes a question.
func (db *ServerDB) DeleteQuestion(id int64) error {
	res, err := db.conn.Exec(`DELETE FROM checklist_perguntas WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	return checkAffected(res, "question", id)
}

// InsertSubmission stores a checklist and its answers. Items carry the stored
// photo file name in PhotoName.
func (db *ServerDB) InsertSubmission(sub models.ChecklistSubmission, receivedAt time.Time) (int64, error) {
	var id int64
	err := db.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(
			`INSERT INTO checklist_respostas (equipamento, operador, data_hora_local, recebido_em) VALUES (?, ?, ?, ?)`,
			sub.Equipment, sub.Operator, sub.LocalTime, receivedAt.UTC().Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("insert submission: %w", err)
		}
		id, _ = res.LastInsertId()
		for _, it := range sub.Items {
			if _, err := tx.Exec(
				`INSERT INTO checklist_itens (resposta_id, pergunta_id, texto, conforme, observacao, foto) VALUES (?, ?, ?, ?, ?, ?)`,
				id, it.QuestionID, it.Text, it.Conformant, it.Observation, it.PhotoName); err != nil {
				return fmt.Errorf("insert item %d: %w", it.QuestionID, err)
			}
		}
		return nil
	})
	return id, err
}

// ListSubmissions returns stored checklists, newest first, optionally
// filtered by equipment.
func (db *ServerDB) ListSubmissions(equipment string) ([]models.ChecklistSubmission, error) {
	query := `SELECT id, equipamento, operador, data_hora_local, recebido_em FROM checklist_respostas`
	var args []any
	if equipment != "" {
		query += ` WHERE equipamento = ? COLLATE NOCASE`
		args = append(args, strings.TrimSpace(equipment))
	}
	query += ` ORDER BY id DESC`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	subs := []models.ChecklistSubmission{}
	for rows.Next() {
		var s models.ChecklistSubmission
		if err := rows.Scan(&s.ID, &s.Equipment, &s.Operator, &s.LocalTime, &s.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		subs = append(subs, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range subs {
		items, err := db.submissionItems(subs[i].ID)
		if err != nil {
			return nil, err
		}
		subs[i].Items = items
	}
	return subs, nil
}

func (db *ServerDB) submissionItems(id int64) ([]models.ChecklistAnswer, error) {
	rows, err := db.conn.Query(
		`SELECT pergunta_id, texto, conforme, observacao, foto FROM checklist_itens WHERE resposta_id = ? ORDER BY pergunta_id`, id)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []models.ChecklistAnswer
	for rows.Next() {
		var it models.ChecklistAnswer
		if err := rows.Scan(&it.QuestionID, &it.Text, &it.Conformant, &it.Observation, &it.PhotoName); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
