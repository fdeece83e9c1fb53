package orchestrator

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mohdateeqmarch2-spec/hriday/internal/acquire"
	"github.com/mohdateeqmarch2-spec/hriday/internal/config"
	"github.com/mohdateeqmarch2-spec/hriday/internal/identity"
	"github.com/mohdateeqmarch2-spec/hriday/internal/logging"
	"github.com/mohdateeqmarch2-spec/hriday/internal/media"
	"github.com/mohdateeqmarch2-spec/hriday/internal/notifications"
	"github.com/mohdateeqmarch2-spec/hriday/internal/pipeline"
	"github.com/mohdateeqmarch2-spec/hriday/internal/session"
)

// Processor runs the post-confirm pipeline. Satisfied by *pipeline.Runner.
type Processor interface {
	Process(ctx context.Context, user identity.User, artifact media.Artifact) (pipeline.Result, error)
}

// Navigator receives the post-completion navigation callback once the
// configured delay elapses without a reset.
type Navigator interface {
	NavigateToResults(ctx context.Context, sessionID int64, recordingID string) error
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(ctx context.Context, sessionID int64, recordingID string) error

func (f NavigatorFunc) NavigateToResults(ctx context.Context, sessionID int64, recordingID string) error {
	return f(ctx, sessionID, recordingID)
}

// Orchestrator coordinates session state transitions with the acquisition
// and processing machinery.
type Orchestrator struct {
	cfg       *config.Config
	store     *session.Store
	logger    *slog.Logger
	notifier  notifications.Service
	uploader  *acquire.Uploader
	recorder  *acquire.Recorder
	processor Processor
	navigator Navigator

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu        sync.Mutex
	captures  map[int64]context.CancelFunc
	navCancel map[int64]context.CancelFunc
	progress  map[int64]acquire.ProgressUpdate
	closed    bool

	wg sync.WaitGroup
}

// Option overrides an orchestrator dependency.
type Option func(*Orchestrator)

func WithNotifier(notifier notifications.Service) Option {
	return func(o *Orchestrator) {
		if notifier != nil {
			o.notifier = notifier
		}
	}
}

func WithProcessor(processor Processor) Option {
	return func(o *Orchestrator) {
		if processor != nil {
			o.processor = processor
		}
	}
}

func WithNavigator(navigator Navigator) Option {
	return func(o *Orchestrator) {
		if navigator != nil {
			o.navigator = navigator
		}
	}
}

func WithRecorder(recorder *acquire.Recorder) Option {
	return func(o *Orchestrator) {
		if recorder != nil {
			o.recorder = recorder
		}
	}
}

// New builds an orchestrator wired against the configured services. The
// returned orchestrator is ready; call Stop to cancel in-flight work and
// wait for goroutines to drain.
func New(cfg *config.Config, store *session.Store, logger *slog.Logger, opts ...Option) (*Orchestrator, error) {
	recorder, err := acquire.NewRecorder(cfg)
	if err != nil {
		return nil, err
	}
	runner, err := pipeline.NewRunner(cfg, logger)
	if err != nil {
		return nil, err
	}

	baseCtx, baseCancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		cfg:        cfg,
		store:      store,
		logger:     logging.NewComponentLogger(logger, "orchestrator"),
		notifier:   notifications.NewService(cfg),
		uploader:   acquire.NewUploader(cfg),
		recorder:   recorder,
		processor:  runner,
		baseCtx:    baseCtx,
		baseCancel: baseCancel,
		captures:   make(map[int64]context.CancelFunc),
		navCancel:  make(map[int64]context.CancelFunc),
		progress:   make(map[int64]acquire.ProgressUpdate),
	}
	o.navigator = NavigatorFunc(func(ctx context.Context, sessionID int64, recordingID string) error {
		o.logger.Info("navigate to results",
			logging.Int64(logging.FieldSessionID, sessionID),
			logging.String(logging.FieldRecordingID, recordingID),
		)
		return nil
	})
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Stop cancels in-flight captures, pipeline runs, and navigation timers,
// then waits for all background work to finish. Canceling a capture lets
// ffmpeg finalize the container, so a session mid-recording lands in
// reviewing rather than losing its footage.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.mu.Unlock()

	o.baseCancel()
	o.wg.Wait()
}

// ActiveSession returns the most recent session, creating one when the
// store is empty.
func (o *Orchestrator) ActiveSession(ctx context.Context) (*session.Session, error) {
	sess, err := o.store.MostRecent(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return o.store.New(ctx)
	}
	return sess, nil
}

// StartSession creates a fresh unselected session.
func (o *Orchestrator) StartSession(ctx context.Context) (*session.Session, error) {
	return o.store.New(ctx)
}

// Session loads a session by id; nil when absent.
func (o *Orchestrator) Session(ctx context.Context, id int64) (*session.Session, error) {
	return o.store.GetByID(ctx, id)
}

// Sessions lists sessions, optionally filtered by state.
func (o *Orchestrator) Sessions(ctx context.Context, states ...session.State) ([]*session.Session, error) {
	return o.store.List(ctx, states...)
}

// Health reports session counts by lifecycle phase.
func (o *Orchestrator) Health(ctx context.Context) (session.HealthSummary, error) {
	return o.store.Health(ctx)
}

// RecoverInterrupted sweeps sessions stranded mid-flight by a previous
// daemon run: processing sessions return to reviewing with their artifact
// intact, recording sessions lose the unfinished capture and return to
// unselected.
func (o *Orchestrator) RecoverInterrupted(ctx context.Context) (int64, error) {
	return o.store.RecoverInterrupted(ctx)
}

// CaptureProgress reports the latest ffmpeg progress for an active capture.
func (o *Orchestrator) CaptureProgress(id int64) (acquire.ProgressUpdate, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	update, ok := o.progress[id]
	return update, ok
}

func (o *Orchestrator) registerCapture(id int64, cancel context.CancelFunc) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return false
	}
	o.captures[id] = cancel
	return true
}

func (o *Orchestrator) unregisterCapture(id int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.captures, id)
	delete(o.progress, id)
}

func (o *Orchestrator) captureCancel(id int64) (context.CancelFunc, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	cancel, ok := o.captures[id]
	return cancel, ok
}

func (o *Orchestrator) recordProgress(id int64, update acquire.ProgressUpdate) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.progress[id] = update
}

func (o *Orchestrator) registerNavigation(id int64, cancel context.CancelFunc) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if previous, ok := o.navCancel[id]; ok {
		previous()
	}
	o.navCancel[id] = cancel
}

func (o *Orchestrator) clearNavigation(id int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.navCancel, id)
}

func (o *Orchestrator) cancelNavigation(id int64) {
	o.mu.Lock()
	cancel, ok := o.navCancel[id]
	delete(o.navCancel, id)
	o.mu.Unlock()
	if ok {
		cancel()
	}
}
