package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/mohdateeqmarch2-spec/hriday/internal/config"
	"github.com/mohdateeqmarch2-spec/hriday/internal/identity"
	"github.com/mohdateeqmarch2-spec/hriday/internal/logging"
	"github.com/mohdateeqmarch2-spec/hriday/internal/media"
	"github.com/mohdateeqmarch2-spec/hriday/internal/media/ffprobe"
	"github.com/mohdateeqmarch2-spec/hriday/internal/services"
	"github.com/mohdateeqmarch2-spec/hriday/internal/services/inference"
	"github.com/mohdateeqmarch2-spec/hriday/internal/services/profile"
	"github.com/mohdateeqmarch2-spec/hriday/internal/services/recordings"
	"github.com/mohdateeqmarch2-spec/hriday/internal/services/vitals"
)

// ProfileService is the slice of the profile client the pipeline drives.
type ProfileService interface {
	Ensure(ctx context.Context, userID, email, displayName string) (profile.Profile, error)
}

// RecordingService registers recordings with the backend.
type RecordingService interface {
	Create(ctx context.Context, req recordings.CreateRequest) (recordings.Recording, error)
}

// VitalsService persists generated series and predictions.
type VitalsService interface {
	SaveSeries(ctx context.Context, recordingID string, samples []vitals.Sample) (int, error)
	SavePrediction(ctx context.Context, prediction vitals.Prediction) (vitals.Prediction, error)
}

// DurationProber reports a media file's duration in seconds. It backs the
// optional capture.probe_duration path; the default implementation shells
// out to ffprobe.
type DurationProber func(ctx context.Context, path string) (float64, error)

// Result reports what the pipeline accomplished. On failure it reflects the
// steps that completed before the abort; persisted rows are not rolled back.
type Result struct {
	RecordingID     string
	FileName        string
	DurationSeconds int
	SamplesSaved    int
	Prediction      vitals.Prediction
	Elapsed         time.Duration
}

// Runner executes the processing steps in order against the configured
// backend services.
type Runner struct {
	logger         *slog.Logger
	profiles       ProfileService
	recordings     RecordingService
	vitals         VitalsService
	generator      inference.Generator
	prober         DurationProber
	probeDuration  bool
	nominalSeconds int
}

// Option overrides a Runner dependency, primarily for tests.
type Option func(*Runner)

func WithProfileService(svc ProfileService) Option {
	return func(r *Runner) {
		if svc != nil {
			r.profiles = svc
		}
	}
}

func WithRecordingService(svc RecordingService) Option {
	return func(r *Runner) {
		if svc != nil {
			r.recordings = svc
		}
	}
}

func WithVitalsService(svc VitalsService) Option {
	return func(r *Runner) {
		if svc != nil {
			r.vitals = svc
		}
	}
}

func WithGenerator(gen inference.Generator) Option {
	return func(r *Runner) {
		if gen != nil {
			r.generator = gen
		}
	}
}

func WithDurationProber(probe DurationProber) Option {
	return func(r *Runner) {
		if probe != nil {
			r.prober = probe
		}
	}
}

// NewRunner wires the pipeline against the configured services. The
// generator backend comes from inference config (simulated by default).
func NewRunner(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Runner, error) {
	generator, err := inference.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	ffprobeBinary := cfg.FFprobeBinary()
	runner := &Runner{
		logger:         logging.NewComponentLogger(logger, "pipeline"),
		profiles:       profile.NewClient(cfg),
		recordings:     recordings.NewClient(cfg),
		vitals:         vitals.NewClient(cfg),
		generator:      generator,
		probeDuration:  cfg.Capture.ProbeDuration,
		nominalSeconds: cfg.Capture.MaxDurationSeconds,
		prober: func(ctx context.Context, path string) (float64, error) {
			probed, err := ffprobe.Inspect(ctx, ffprobeBinary, path)
			if err != nil {
				return 0, err
			}
			return probed.DurationSeconds(), nil
		},
	}
	for _, opt := range opts {
		opt(runner)
	}
	return runner, nil
}

type step struct {
	name  string
	label string
	run   func(context.Context) error
}

// Process runs every step in order for the session's artifact and returns
// the backend recording id. The first failing step aborts the remainder;
// nothing already persisted is undone.
func (r *Runner) Process(ctx context.Context, user identity.User, artifact media.Artifact) (Result, error) {
	var result Result
	if strings.TrimSpace(user.ID) == "" || strings.TrimSpace(user.Email) == "" {
		return result, services.Wrap(services.ErrConfiguration, "pipeline", "process", "user identity is not configured", nil)
	}
	if strings.TrimSpace(artifact.Path) == "" {
		return result, services.Wrap(services.ErrValidation, "pipeline", "process", "no artifact to process", nil)
	}

	result.FileName = artifactFileName(artifact)
	result.DurationSeconds = r.resolveDuration(ctx, artifact)

	var (
		recording  recordings.Recording
		series     []vitals.Sample
		prediction vitals.Prediction
	)

	// Both generation steps run before either persistence step; a failed
	// generation leaves no vitals rows behind.
	steps := []step{
		{name: "ensure_profile", label: "ensure profile", run: func(ctx context.Context) error {
			_, err := r.profiles.Ensure(ctx, user.ID, user.Email, user.DisplayName)
			return err
		}},
		{name: "create_recording", label: "create recording", run: func(ctx context.Context) error {
			created, err := r.recordings.Create(ctx, recordings.CreateRequest{
				UserID:          user.ID,
				FileName:        result.FileName,
				DurationSeconds: result.DurationSeconds,
			})
			if err != nil {
				return err
			}
			recording = created
			result.RecordingID = created.ID
			return nil
		}},
		{name: "generate_series", label: "generate heart rate series", run: func(ctx context.Context) error {
			samples, err := r.generator.GenerateSeries(ctx, inference.SeriesRequest{
				RecordingID:     recording.ID,
				DurationSeconds: result.DurationSeconds,
				SourceName:      result.FileName,
			})
			if err != nil {
				return err
			}
			if len(samples) == 0 {
				return errors.New("generator produced no samples")
			}
			series = samples
			return nil
		}},
		{name: "generate_prediction", label: "generate risk prediction", run: func(ctx context.Context) error {
			generated, err := r.generator.GeneratePrediction(ctx, inference.PredictionRequest{
				RecordingID: recording.ID,
				SourceName:  result.FileName,
				Samples:     series,
			})
			if err != nil {
				return err
			}
			prediction = generated
			return nil
		}},
		{name: "persist_series", label: "persist heart rate series", run: func(ctx context.Context) error {
			saved, err := r.vitals.SaveSeries(ctx, recording.ID, series)
			if err != nil {
				return err
			}
			result.SamplesSaved = saved
			return nil
		}},
		{name: "persist_prediction", label: "persist risk prediction", run: func(ctx context.Context) error {
			stored, err := r.vitals.SavePrediction(ctx, prediction)
			if err != nil {
				return err
			}
			result.Prediction = stored
			return nil
		}},
	}

	started := time.Now()
	for _, s := range steps {
		if err := r.runStep(ctx, s); err != nil {
			result.Elapsed = time.Since(started)
			return result, err
		}
	}
	result.Elapsed = time.Since(started)

	r.logger.Info("pipeline completed",
		logging.String(logging.FieldRecordingID, result.RecordingID),
		logging.Int("samples_saved", result.SamplesSaved),
		logging.String("risk_level", result.Prediction.RiskLevel),
		logging.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

func (r *Runner) runStep(ctx context.Context, s step) error {
	stepCtx := services.WithStep(ctx, s.name)
	stepLogger := logging.WithContext(stepCtx, r.logger)

	started := time.Now()
	stepLogger.Info("step started")
	if err := s.run(stepCtx); err != nil {
		stepLogger.Error("step failed",
			logging.Error(err),
			logging.Duration("elapsed", time.Since(started)),
		)
		return services.Wrap(services.ErrPipelineStep, "pipeline", s.name, s.label+" failed", err)
	}
	stepLogger.Info("step completed", logging.Duration("elapsed", time.Since(started)))
	return nil
}

// resolveDuration returns the nominal capture bound unless duration probing
// is enabled and the probe succeeds. Probe failures fall back silently so a
// missing ffprobe never blocks processing.
func (r *Runner) resolveDuration(ctx context.Context, artifact media.Artifact) int {
	duration := r.nominalSeconds
	if duration <= 0 {
		duration = 60
	}
	if !r.probeDuration || r.prober == nil {
		return duration
	}
	probed, err := r.prober(ctx, artifact.Path)
	if err != nil {
		r.logger.Debug("duration probe failed; using nominal duration",
			logging.Error(err),
			logging.Int("nominal_seconds", duration),
		)
		return duration
	}
	if rounded := int(math.Round(probed)); rounded > 0 {
		return rounded
	}
	return duration
}

func artifactFileName(artifact media.Artifact) string {
	if name := strings.TrimSpace(artifact.FileName); name != "" {
		return name
	}
	ext := "mp4"
	if idx := strings.LastIndexByte(artifact.Path, '.'); idx >= 0 && idx < len(artifact.Path)-1 {
		ext = artifact.Path[idx+1:]
	}
	return fmt.Sprintf("capture-%s.%s", time.Now().UTC().Format("20060102-150405"), ext)
}
