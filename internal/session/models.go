package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/mohdateeqmarch2-spec/hriday/internal/media"
)

// State represents the lifecycle position of a capture session.
type State string

const (
	// StateUnselected is the initial state before a capture mode is chosen.
	StateUnselected State = "unselected"
	// StateRecording marks a live camera capture in progress.
	StateRecording State = "recording"
	// StateUploading marks file import in progress or awaiting a valid file.
	StateUploading State = "uploading"
	// StateReviewing holds a staged artifact awaiting confirmation.
	StateReviewing State = "reviewing"
	// StateProcessing marks a confirmed artifact running the pipeline.
	StateProcessing State = "processing"
	// StateComplete marks a session whose pipeline finished successfully.
	StateComplete State = "complete"
)

// allStates enumerates every valid session state.
var allStates = []State{
	StateUnselected,
	StateRecording,
	StateUploading,
	StateReviewing,
	StateProcessing,
	StateComplete,
}

var stateSet = func() map[State]struct{} {
	set := make(map[State]struct{}, len(allStates))
	for _, state := range allStates {
		set[state] = struct{}{}
	}
	return set
}()

// ParseState validates a raw string and returns the matching State.
func ParseState(raw string) (State, error) {
	candidate := State(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := stateSet[candidate]; !ok {
		return "", fmt.Errorf("invalid session state %q", raw)
	}
	return candidate, nil
}

// AllStates returns the valid states in lifecycle order.
func AllStates() []State {
	states := make([]State, len(allStates))
	copy(states, allStates)
	return states
}

// transitions describes the moves the lifecycle permits. Same-state updates
// (a rejected file while reviewing, a retried capture while recording) are
// not transitions and are always allowed.
var transitions = map[State][]State{
	StateUnselected: {StateRecording, StateUploading},
	StateRecording:  {StateReviewing, StateUnselected},
	StateUploading:  {StateReviewing, StateUnselected},
	StateReviewing:  {StateProcessing, StateUnselected},
	StateProcessing: {StateComplete, StateReviewing},
	StateComplete:   {StateUnselected},
}

// CanTransition reports whether the lifecycle permits moving between states.
func CanTransition(from, to State) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Mode records which acquisition path a session is using. It is derived from
// the state and the staged artifact rather than stored.
type Mode string

const (
	ModeNone   Mode = "none"
	ModeRecord Mode = "record"
	ModeUpload Mode = "upload"
)

// Session models a capture session row.
type Session struct {
	ID             int64
	State          State
	Title          string
	ArtifactPath   string
	ArtifactName   string
	ArtifactMIME   string
	ArtifactSize   int64
	ArtifactSource string
	ErrorMessage   string
	RecordingID    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasArtifact reports whether the session holds a staged artifact.
func (s *Session) HasArtifact() bool {
	return s != nil && s.ArtifactPath != ""
}

// Artifact reconstructs the staged artifact, or nil when none is staged.
func (s *Session) Artifact() *media.Artifact {
	if !s.HasArtifact() {
		return nil
	}
	return &media.Artifact{
		Path:      s.ArtifactPath,
		FileName:  s.ArtifactName,
		MIMEType:  s.ArtifactMIME,
		SizeBytes: s.ArtifactSize,
		Source:    media.SourceKind(s.ArtifactSource),
	}
}

// SetArtifact stages an artifact on the session, replacing any prior one,
// and refreshes the display title.
func (s *Session) SetArtifact(artifact media.Artifact) {
	s.ArtifactPath = artifact.Path
	s.ArtifactName = artifact.FileName
	s.ArtifactMIME = artifact.MIMEType
	s.ArtifactSize = artifact.SizeBytes
	s.ArtifactSource = string(artifact.Source)
	s.Title = media.DeriveTitle(artifact.DisplayName())
}

// ClearArtifact discards the staged artifact metadata.
func (s *Session) ClearArtifact() {
	s.ArtifactPath = ""
	s.ArtifactName = ""
	s.ArtifactMIME = ""
	s.ArtifactSize = 0
	s.ArtifactSource = ""
	s.Title = ""
}

// Mode derives the acquisition mode from the state and staged artifact.
func (s *Session) Mode() Mode {
	if s == nil {
		return ModeNone
	}
	switch s.State {
	case StateRecording:
		return ModeRecord
	case StateUploading:
		return ModeUpload
	}
	switch media.SourceKind(s.ArtifactSource) {
	case media.SourceRecorded:
		return ModeRecord
	case media.SourceUploaded:
		return ModeUpload
	}
	return ModeNone
}

// IsProcessing reports whether the session owns an in-flight pipeline run.
func (s *Session) IsProcessing() bool {
	return s != nil && s.State == StateProcessing
}

// Label returns a short human identifier for log and CLI output.
func (s *Session) Label() string {
	if s == nil {
		return "session ?"
	}
	if s.Title != "" {
		return fmt.Sprintf("session %d (%s)", s.ID, s.Title)
	}
	return fmt.Sprintf("session %d", s.ID)
}

// HealthSummary aggregates session counts for diagnostic output.
type HealthSummary struct {
	Total      int
	Active     int
	Reviewing  int
	Processing int
	Complete   int
}

// DatabaseHealth reports diagnostic details about the session database.
type DatabaseHealth struct {
	DBPath           string
	SchemaVersion    string
	DatabaseExists   bool
	DatabaseReadable bool
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	TotalSessions    int
	IntegrityCheck   bool
	Error            string
}
