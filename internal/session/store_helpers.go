package session

import (
	"database/sql"
	"errors"
	"time"
)

const sessionColumns = "id, state, title, artifact_path, artifact_name, artifact_mime, artifact_size, artifact_source, error_message, recording_id, created_at, updated_at"

func scanSession(scanner interface{ Scan(dest ...any) error }) (*Session, error) {
	var (
		id             int64
		stateStr       string
		title          sql.NullString
		artifactPath   sql.NullString
		artifactName   sql.NullString
		artifactMIME   sql.NullString
		artifactSize   sql.NullInt64
		artifactSource sql.NullString
		errorMessage   sql.NullString
		recordingID    sql.NullString
		createdRaw     sql.NullString
		updatedRaw     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&stateStr,
		&title,
		&artifactPath,
		&artifactName,
		&artifactMIME,
		&artifactSize,
		&artifactSource,
		&errorMessage,
		&recordingID,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	sess := &Session{
		ID:             id,
		State:          State(stateStr),
		Title:          title.String,
		ArtifactPath:   artifactPath.String,
		ArtifactName:   artifactName.String,
		ArtifactMIME:   artifactMIME.String,
		ArtifactSize:   artifactSize.Int64,
		ArtifactSource: artifactSource.String,
		ErrorMessage:   errorMessage.String,
		RecordingID:    recordingID.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		sess.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		sess.UpdatedAt = updated
	}
	return sess, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
