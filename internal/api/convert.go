package api

import (
	"github.com/mohdateeqmarch2-spec/hriday/internal/acquire"
	"github.com/mohdateeqmarch2-spec/hriday/internal/deps"
	"github.com/mohdateeqmarch2-spec/hriday/internal/preflight"
	"github.com/mohdateeqmarch2-spec/hriday/internal/services/vitals"
	"github.com/mohdateeqmarch2-spec/hriday/internal/session"
)

// FromSession converts a session record to its API representation.
func FromSession(sess *session.Session) Session {
	if sess == nil {
		return Session{}
	}

	dto := Session{
		ID:           sess.ID,
		State:        string(sess.State),
		Mode:         string(sess.Mode()),
		Title:        sess.Title,
		RecordingID:  sess.RecordingID,
		ErrorMessage: sess.ErrorMessage,
	}
	if artifact := sess.Artifact(); artifact != nil {
		dto.FileName = artifact.DisplayName()
		dto.MIMEType = artifact.MIMEType
		dto.SizeBytes = artifact.SizeBytes
		dto.DisplaySizeMB = artifact.DisplaySizeMB()
		dto.StagedPath = artifact.Path
		dto.Source = string(artifact.Source)
	}
	if !sess.CreatedAt.IsZero() {
		dto.CreatedAt = sess.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !sess.UpdatedAt.IsZero() {
		dto.UpdatedAt = sess.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromSessions converts a slice of session records into API DTOs.
func FromSessions(sessions []*session.Session) []Session {
	if len(sessions) == 0 {
		return nil
	}
	out := make([]Session, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, FromSession(sess))
	}
	return out
}

// FromHealth converts a store health summary into session stats.
func FromHealth(summary session.HealthSummary) SessionStats {
	return SessionStats{
		Total:      summary.Total,
		Active:     summary.Active,
		Reviewing:  summary.Reviewing,
		Processing: summary.Processing,
		Complete:   summary.Complete,
	}
}

// FromDependencyStatuses converts dependency checks into API DTOs.
func FromDependencyStatuses(statuses []deps.Status) []DependencyStatus {
	if len(statuses) == 0 {
		return nil
	}
	out := make([]DependencyStatus, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, DependencyStatus{
			Name:        status.Name,
			Command:     status.Command,
			Description: status.Description,
			Optional:    status.Optional,
			Available:   status.Available,
			Version:     status.Version,
			Detail:      status.Detail,
		})
	}
	return out
}

// FromCheckResults converts preflight results into API DTOs.
func FromCheckResults(results []preflight.Result) []CheckResult {
	if len(results) == 0 {
		return nil
	}
	out := make([]CheckResult, 0, len(results))
	for _, result := range results {
		out = append(out, CheckResult{
			Name:   result.Name,
			Passed: result.Passed,
			Detail: result.Detail,
		})
	}
	return out
}

// FromProgress converts a live capture progress update into an API DTO.
func FromProgress(update acquire.ProgressUpdate, active bool) CaptureProgress {
	return CaptureProgress{
		Active:  active,
		Seconds: update.Seconds,
		Percent: update.Percent,
		Message: update.Message,
	}
}

// FromPrediction converts a stored prediction and its series into a results
// payload.
func FromPrediction(prediction vitals.Prediction, samples []vitals.Sample) Results {
	results := Results{
		RecordingID: prediction.RecordingID,
		RiskLevel:   prediction.RiskLevel,
		RiskScore:   prediction.RiskScore,
		AverageBPM:  prediction.AverageBPM,
		MinBPM:      prediction.MinBPM,
		MaxBPM:      prediction.MaxBPM,
		Insights:    prediction.Insights,
		Model:       prediction.Model,
	}
	if len(samples) > 0 {
		points := make([]SamplePoint, 0, len(samples))
		for _, sample := range samples {
			points = append(points, SamplePoint{
				Timestamp: sample.Timestamp.UTC().Format(dateTimeFormat),
				BPM:       sample.BPM,
			})
		}
		results.Samples = points
	}
	return results
}
