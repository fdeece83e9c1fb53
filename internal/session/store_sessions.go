package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// New inserts a fresh session in the unselected state.
func (s *Store) New(ctx context.Context) (*Session, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO sessions (state, created_at, updated_at) VALUES (?, ?, ?)`,
		StateUnselected,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a session by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// MostRecent returns the newest session, or nil when the registry is empty.
func (s *Store) MostRecent(ctx context.Context) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions ORDER BY id DESC LIMIT 1`)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("most recent session: %w", err)
	}
	return sess, nil
}

// FindByRecordingID returns the session holding a backend recording identifier.
func (s *Store) FindByRecordingID(ctx context.Context, recordingID string) (*Session, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE recording_id = ? ORDER BY id LIMIT 1`,
		recordingID,
	)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by recording id: %w", err)
	}
	return sess, nil
}

// Update persists changes to an existing session.
func (s *Store) Update(ctx context.Context, sess *Session) error {
	if sess == nil {
		return errors.New("session is nil")
	}
	sess.UpdatedAt = time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE sessions
         SET state = ?, title = ?, artifact_path = ?, artifact_name = ?,
             artifact_mime = ?, artifact_size = ?, artifact_source = ?,
             error_message = ?, recording_id = ?, updated_at = ?
         WHERE id = ?`,
		sess.State,
		nullableString(sess.Title),
		nullableString(sess.ArtifactPath),
		nullableString(sess.ArtifactName),
		nullableString(sess.ArtifactMIME),
		sess.ArtifactSize,
		nullableString(sess.ArtifactSource),
		nullableString(sess.ErrorMessage),
		nullableString(sess.RecordingID),
		sess.UpdatedAt.Format(time.RFC3339Nano),
		sess.ID,
	); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// List returns sessions filtered by state set (or all sessions when no state is provided).
func (s *Store) List(ctx context.Context, states ...State) ([]*Session, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + sessionColumns + ` FROM sessions`
	orderClause := ` ORDER BY created_at`

	if len(states) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(states))
		args := make([]any, len(states))
		for i, state := range states {
			args[i] = state
		}
		query := baseQuery + ` WHERE state IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// Remove deletes a session by identifier.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ClearComplete removes only completed sessions from the registry.
func (s *Store) ClearComplete(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM sessions WHERE state = ?`, StateComplete)
	if err != nil {
		return 0, fmt.Errorf("clear complete: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes all sessions from the registry.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM sessions`)
	if err != nil {
		return 0, fmt.Errorf("clear sessions: %w", err)
	}
	return res.RowsAffected()
}
