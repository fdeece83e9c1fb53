package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"github.com/mohdateeqmarch2-spec/hriday/internal/config"
	"github.com/mohdateeqmarch2-spec/hriday/internal/deps"
	"github.com/mohdateeqmarch2-spec/hriday/internal/logging"
	"github.com/mohdateeqmarch2-spec/hriday/internal/notifications"
	"github.com/mohdateeqmarch2-spec/hriday/internal/orchestrator"
	"github.com/mohdateeqmarch2-spec/hriday/internal/preflight"
	"github.com/mohdateeqmarch2-spec/hriday/internal/services"
	"github.com/mohdateeqmarch2-spec/hriday/internal/services/vitals"
	"github.com/mohdateeqmarch2-spec/hriday/internal/session"
)

// Daemon coordinates the background services and enforces single-instance
// execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *session.Store
	orch   *orchestrator.Orchestrator
	vitals *vitals.Client

	logPath  string
	lockPath string
	lock     *flock.Flock

	api     *apiServer
	monitor *cameraMonitor

	cameraPresent atomic.Bool
	running       atomic.Bool
	ctx           context.Context
	cancel        context.CancelFunc

	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	SessionDBPath string
	LockFilePath  string
	CameraPresent bool
	Sessions      session.HealthSummary
	Dependencies  []deps.Status
	Checks        []preflight.Result
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *session.Store, logger *slog.Logger, orch *orchestrator.Orchestrator) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || orch == nil {
		return nil, errors.New("daemon requires config, store, logger, and orchestrator")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "hridayd.lock")
	d := &Daemon{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		orch:       orch,
		vitals:     vitals.NewClient(cfg),
		logPath:    filepath.Join(cfg.Paths.LogDir, "hriday.log"),
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
		shutdownCh: make(chan struct{}),
	}
	d.monitor = newCameraMonitor(cfg, logger, d.onCameraEvent)

	srv, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = srv
	return d, nil
}

// Start acquires the daemon lock, recovers interrupted sessions, and brings
// up the API server and camera monitor.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another hriday daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	d.refreshCameraPresence()

	recovered, err := d.orch.RecoverInterrupted(d.ctx)
	if err != nil {
		d.logger.Warn("session recovery sweep failed", logging.Error(err))
	} else if recovered > 0 {
		d.logger.Info("recovered interrupted sessions", logging.Int64("count", recovered))
	}

	for _, result := range preflight.RunAll(d.ctx, d.cfg) {
		if result.Passed {
			d.logger.Debug("preflight check passed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail))
			continue
		}
		d.logger.Warn("preflight check failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail))
	}

	if d.monitor != nil {
		if err := d.monitor.Start(d.ctx); err != nil {
			d.logger.Warn("camera monitor start failed", logging.Error(err))
		}
	}

	if d.api != nil {
		if err := d.api.start(d.ctx); err != nil {
			if d.monitor != nil {
				d.monitor.Stop()
			}
			_ = d.lock.Unlock()
			d.cancel()
			d.ctx = nil
			d.cancel = nil
			return fmt.Errorf("start api server: %w", err)
		}
	}

	d.running.Store(true)
	d.logger.Info("hriday daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background services and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.monitor != nil {
		d.monitor.Stop()
	}
	if d.api != nil {
		d.api.stop()
	}
	d.orch.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("hriday daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// RequestShutdown asks the daemon's run loop to exit. Safe to call more
// than once.
func (d *Daemon) RequestShutdown() {
	d.shutdownOnce.Do(func() {
		close(d.shutdownCh)
	})
}

// ShutdownRequested is closed when an API consumer asked the daemon to stop.
func (d *Daemon) ShutdownRequested() <-chan struct{} {
	return d.shutdownCh
}

// RemoveSession deletes a session row. Sessions running the pipeline are
// refused.
func (d *Daemon) RemoveSession(ctx context.Context, id int64) error {
	sess, err := d.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if sess == nil {
		return fmt.Errorf("%w: session %d not found", services.ErrNotFound, id)
	}
	if sess.IsProcessing() {
		return fmt.Errorf("%w: cannot remove a session while processing", services.ErrBusy)
	}
	_, err = d.store.Remove(ctx, id)
	return err
}

// ClearCompleted removes completed sessions and reports how many were
// deleted.
func (d *Daemon) ClearCompleted(ctx context.Context) (int64, error) {
	return d.store.ClearComplete(ctx)
}

// Results fetches the stored analysis for the given session from the
// services backend.
func (d *Daemon) Results(ctx context.Context, id int64) (vitals.Prediction, []vitals.Sample, error) {
	sess, err := d.store.GetByID(ctx, id)
	if err != nil {
		return vitals.Prediction{}, nil, err
	}
	if sess == nil {
		return vitals.Prediction{}, nil, fmt.Errorf("%w: session %d not found", services.ErrNotFound, id)
	}
	if strings.TrimSpace(sess.RecordingID) == "" {
		return vitals.Prediction{}, nil, fmt.Errorf("%w: session %d has no stored analysis", services.ErrNotFound, id)
	}

	prediction, err := d.vitals.PredictionForRecording(ctx, sess.RecordingID)
	if err != nil {
		return vitals.Prediction{}, nil, err
	}
	samples, err := d.vitals.SeriesForRecording(ctx, sess.RecordingID)
	if err != nil {
		// The prediction is the payload that matters; a missing series
		// should not fail the fetch.
		d.logger.Debug("series fetch failed", logging.Error(err), logging.Int64(logging.FieldSessionID, id))
		samples = nil
	}
	return prediction, samples, nil
}

// TestNotification triggers a test notification using the current
// configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg == nil {
		return false, "configuration unavailable", errors.New("configuration unavailable")
	}
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := notifications.NewService(d.cfg)
	if err := notifier.Publish(ctx, notifications.EventTest, nil); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// APIAddr returns the address the HTTP API is listening on, or an empty
// string when the API server is disabled.
func (d *Daemon) APIAddr() string {
	return d.api.addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	summary, err := d.store.Health(ctx)
	if err != nil {
		d.logger.Warn("session health query failed", logging.Error(err))
	}
	return Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		SessionDBPath: filepath.Join(d.cfg.Paths.DataDir, "sessions.db"),
		LockFilePath:  d.lockPath,
		CameraPresent: d.cameraPresent.Load(),
		Sessions:      summary,
		Dependencies:  preflight.CheckSystemDeps(ctx, d.cfg),
		Checks:        preflight.RunAll(ctx, d.cfg),
	}
}

func (d *Daemon) refreshCameraPresence() {
	device := strings.TrimSpace(d.cfg.Capture.VideoDevice)
	if device == "" {
		d.cameraPresent.Store(false)
		return
	}
	_, err := os.Stat(device)
	d.cameraPresent.Store(err == nil)
}

func (d *Daemon) onCameraEvent(_ context.Context, action, device string) {
	present := action != "remove"
	d.cameraPresent.Store(present)
	if present {
		d.logger.Info("camera available", logging.String("device", device))
		return
	}
	d.logger.Warn("camera disconnected", logging.String("device", device))
}
