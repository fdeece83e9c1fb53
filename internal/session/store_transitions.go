package session

import (
	"context"
	"fmt"
	"time"
)

// Transition moves a session between states only when it still sits in the
// expected source state. It reports whether the move happened, so callers
// can guard actions that must run at most once, such as confirming a staged
// artifact into processing.
func (s *Store) Transition(ctx context.Context, id int64, from, to State) (bool, error) {
	if !CanTransition(from, to) {
		return false, fmt.Errorf("transition %s -> %s not permitted", from, to)
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE sessions SET state = ?, updated_at = ? WHERE id = ? AND state = ?`,
		to,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		from,
	)
	if err != nil {
		return false, fmt.Errorf("transition session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// RecoverInterrupted sweeps sessions stranded in live states by a daemon
// restart. Processing sessions fall back to reviewing with their artifact
// retained so the user can confirm again; recording sessions lose their
// capture and return to unselected.
func (s *Store) RecoverInterrupted(ctx context.Context) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	var total int64
	res, err := s.execWithRetry(
		ctx,
		`UPDATE sessions SET state = ?, error_message = ?, updated_at = ? WHERE state = ?`,
		StateReviewing,
		"processing interrupted by daemon restart",
		now,
		StateProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("recover processing sessions: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	total += affected

	res, err = s.execWithRetry(
		ctx,
		`UPDATE sessions
         SET state = ?, error_message = ?, updated_at = ?,
             title = NULL, artifact_path = NULL, artifact_name = NULL,
             artifact_mime = NULL, artifact_size = 0, artifact_source = NULL
         WHERE state = ?`,
		StateUnselected,
		"recording interrupted by daemon restart",
		now,
		StateRecording,
	)
	if err != nil {
		return 0, fmt.Errorf("recover recording sessions: %w", err)
	}
	affected, err = res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	total += affected

	return total, nil
}
