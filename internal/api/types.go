package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Session describes a capture session in a transport-friendly format.
type Session struct {
	ID            int64   `json:"id"`
	State         string  `json:"state"`
	Mode          string  `json:"mode"`
	Title         string  `json:"title,omitempty"`
	FileName      string  `json:"fileName,omitempty"`
	MIMEType      string  `json:"mimeType,omitempty"`
	SizeBytes     int64   `json:"sizeBytes,omitempty"`
	DisplaySizeMB float64 `json:"displaySizeMb,omitempty"`
	StagedPath    string  `json:"stagedPath,omitempty"`
	Source        string  `json:"source,omitempty"`
	RecordingID   string  `json:"recordingId,omitempty"`
	ErrorMessage  string  `json:"errorMessage,omitempty"`
	CreatedAt     string  `json:"createdAt,omitempty"`
	UpdatedAt     string  `json:"updatedAt,omitempty"`
}

// CaptureProgress reports live recording progress for a session.
type CaptureProgress struct {
	Active  bool    `json:"active"`
	Seconds float64 `json:"seconds"`
	Percent float64 `json:"percent"`
	Message string  `json:"message,omitempty"`
}

// SessionStats aggregates session counts by lifecycle position.
type SessionStats struct {
	Total      int `json:"total"`
	Active     int `json:"active"`
	Reviewing  int `json:"reviewing"`
	Processing int `json:"processing"`
	Complete   int `json:"complete"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Version     string `json:"version,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// CheckResult mirrors a preflight check outcome.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running       bool               `json:"running"`
	PID           int                `json:"pid"`
	SessionDBPath string             `json:"sessionDbPath"`
	LockFilePath  string             `json:"lockFilePath"`
	CameraPresent bool               `json:"cameraPresent"`
	Sessions      SessionStats       `json:"sessions"`
	Dependencies  []DependencyStatus `json:"dependencies"`
	Checks        []CheckResult      `json:"checks,omitempty"`
}

// SamplePoint is one heart-rate measurement in a results payload.
type SamplePoint struct {
	Timestamp string  `json:"timestamp"`
	BPM       float64 `json:"bpm"`
}

// Results carries the stored analysis for a completed session.
type Results struct {
	RecordingID string        `json:"recordingId"`
	RiskLevel   string        `json:"riskLevel"`
	RiskScore   float64       `json:"riskScore"`
	AverageBPM  float64       `json:"averageBpm"`
	MinBPM      float64       `json:"minBpm"`
	MaxBPM      float64       `json:"maxBpm"`
	Insights    []string      `json:"insights,omitempty"`
	Model       string        `json:"model,omitempty"`
	Samples     []SamplePoint `json:"samples,omitempty"`
}

// RecordRequest starts a camera capture.
type RecordRequest struct {
	MaxSeconds int `json:"maxSeconds,omitempty"`
}

// UploadRequest selects files already on the daemon host for import.
type UploadRequest struct {
	Paths []string `json:"paths"`
}

// SessionResponse wraps a single session.
type SessionResponse struct {
	Session Session `json:"session"`
}

// SessionListResponse wraps a collection of sessions.
type SessionListResponse struct {
	Sessions []Session `json:"sessions"`
}

// ResultsResponse wraps a session's stored analysis.
type ResultsResponse struct {
	Results Results `json:"results"`
}

// ProgressResponse wraps live capture progress.
type ProgressResponse struct {
	Progress CaptureProgress `json:"progress"`
}

// ClearedResponse reports how many sessions a bulk removal deleted.
type ClearedResponse struct {
	Removed int64 `json:"removed"`
}

// NotifyTestResponse reports the outcome of a notification test.
type NotifyTestResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

// ShutdownResponse acknowledges a shutdown request.
type ShutdownResponse struct {
	Stopping bool `json:"stopping"`
}

// ErrorResponse is the error payload for non-2xx responses.
type ErrorResponse struct {
	Error string `json:"error"`
}
