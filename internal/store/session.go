package store

import (
	"database/sql"

	"github.com/maprix/maprix/internal/models"
)

// GetSession returns the persisted session, or nil when logged out.
func (s *Store) GetSession() (*models.Session, error) {
	var sess models.Session
	ok, err := getJSON(s.conn, SessionKey, &sess)
	if err != nil || !ok {
		return nil, err
	}
	return &sess, nil
}

// SaveSession replaces the active session.
func (s *Store) SaveSession(sess models.Session) error {
	return s.mutate(func(tx *sql.Tx) error {
		return putJSON(tx, SessionKey, sess)
	})
}

// ClearSession removes the session. The pending queue is left alone.
func (s *Store) ClearSession() error {
	return s.mutate(func(tx *sql.Tx) error {
		return deleteKey(tx, SessionKey)
	})
}
