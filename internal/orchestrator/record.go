package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/mohdateeqmarch2-spec/hriday/internal/acquire"
	"github.com/mohdateeqmarch2-spec/hriday/internal/logging"
	"github.com/mohdateeqmarch2-spec/hriday/internal/media"
	"github.com/mohdateeqmarch2-spec/hriday/internal/notifications"
	"github.com/mohdateeqmarch2-spec/hriday/internal/services"
	"github.com/mohdateeqmarch2-spec/hriday/internal/session"
)

// StartRecording moves an unselected session into recording and launches the
// camera capture in the background. The session lands in reviewing with the
// finalized artifact, or back in unselected with the failure surfaced.
func (o *Orchestrator) StartRecording(ctx context.Context, id int64, maxSeconds int) (*session.Session, error) {
	sess, err := o.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, services.Wrap(services.ErrNotFound, "orchestrator", "record", "session not found", nil)
	}

	moved, err := o.store.Transition(ctx, id, session.StateUnselected, session.StateRecording)
	if err != nil {
		return nil, err
	}
	if !moved {
		if sess.State == session.StateRecording {
			return nil, services.Wrap(services.ErrBusy, "orchestrator", "record", "a capture is already running for this session", nil)
		}
		return nil, services.Wrap(services.ErrValidation, "orchestrator", "record", "session already has an artifact; reset before recording again", nil)
	}

	captureCtx, cancel := context.WithCancel(o.baseCtx)
	if !o.registerCapture(id, cancel) {
		cancel()
		_, _ = o.store.Transition(ctx, id, session.StateRecording, session.StateUnselected)
		return nil, services.Wrap(services.ErrUnexpected, "orchestrator", "record", "orchestrator is shutting down", nil)
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer o.unregisterCapture(id)
		defer cancel()
		o.runCapture(captureCtx, id, maxSeconds)
	}()

	return o.store.GetByID(ctx, id)
}

// StopRecording cancels an active capture. ffmpeg finalizes the container on
// interrupt, so the capture goroutine still stages the artifact and the
// session proceeds to reviewing.
func (o *Orchestrator) StopRecording(ctx context.Context, id int64) error {
	cancel, ok := o.captureCancel(id)
	if !ok {
		return services.Wrap(services.ErrNotFound, "orchestrator", "record", "no active capture for this session", nil)
	}
	cancel()
	return nil
}

func (o *Orchestrator) runCapture(ctx context.Context, id int64, maxSeconds int) {
	logger := o.logger.With(logging.Int64(logging.FieldSessionID, id))

	artifact, err := o.recorder.Record(ctx, id, maxSeconds, func(update acquire.ProgressUpdate) {
		o.recordProgress(id, update)
	})

	// Store writes must survive daemon shutdown so interrupted captures
	// leave the session in a coherent state.
	persistCtx := context.WithoutCancel(ctx)

	if err != nil {
		o.failCapture(persistCtx, logger, id, err)
		return
	}

	if result := media.Validate(artifact.FileName, artifact.MIMEType, artifact.SizeBytes); !result.Accepted {
		_ = os.Remove(artifact.Path)
		o.failCapture(persistCtx, logger, id, services.Wrap(services.ErrValidation, "recorder", "validate", result.Reason, nil))
		return
	}

	moved, err := o.store.Transition(persistCtx, id, session.StateRecording, session.StateReviewing)
	if err != nil {
		logger.Error("failed to persist capture result", logging.Error(err))
		return
	}
	if !moved {
		// The session was reset mid-capture; drop the orphaned payload.
		_ = os.Remove(artifact.Path)
		return
	}

	sess, err := o.store.GetByID(persistCtx, id)
	if err != nil || sess == nil {
		logger.Error("failed to reload session after capture", logging.Error(err))
		return
	}
	if sess.State != session.StateReviewing {
		_ = os.Remove(artifact.Path)
		return
	}
	sess.SetArtifact(artifact)
	sess.ErrorMessage = ""
	if err := o.store.Update(persistCtx, sess); err != nil {
		logger.Error("failed to persist capture artifact", logging.Error(err))
		return
	}

	logger.Info("capture ready for review",
		logging.String("file", artifact.DisplayName()),
		logging.Int64("size_bytes", artifact.SizeBytes),
	)
	o.publish(persistCtx, notifications.EventArtifactReady, notifications.Payload{
		"file":    artifact.DisplayName(),
		"size_mb": artifact.DisplaySizeMB(),
	})
}

func (o *Orchestrator) failCapture(ctx context.Context, logger *slog.Logger, id int64, captureErr error) {
	moved, err := o.store.Transition(ctx, id, session.StateRecording, session.StateUnselected)
	if err != nil {
		logger.Error("failed to persist capture failure", logging.Error(err))
		return
	}
	if !moved {
		return
	}
	sess, err := o.store.GetByID(ctx, id)
	if err != nil || sess == nil {
		logger.Error("failed to reload session after capture failure", logging.Error(err))
		return
	}
	sess.ClearArtifact()
	sess.ErrorMessage = services.UserMessage(captureErr)
	if err := o.store.Update(ctx, sess); err != nil {
		logger.Error("failed to persist capture failure", logging.Error(err))
	}

	logger.Error("capture failed", logging.Error(captureErr))
	if !errors.Is(captureErr, context.Canceled) {
		o.publish(ctx, notifications.EventError, notifications.Payload{
			"error":   captureErr,
			"context": "capture",
		})
	}
}

func (o *Orchestrator) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if o.notifier == nil {
		return
	}
	if err := o.notifier.Publish(ctx, event, payload); err != nil {
		o.logger.Debug("notification failed", logging.Error(err), logging.String("event", string(event)))
	}
}
