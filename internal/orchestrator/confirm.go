package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/mohdateeqmarch2-spec/hriday/internal/identity"
	"github.com/mohdateeqmarch2-spec/hriday/internal/logging"
	"github.com/mohdateeqmarch2-spec/hriday/internal/media"
	"github.com/mohdateeqmarch2-spec/hriday/internal/notifications"
	"github.com/mohdateeqmarch2-spec/hriday/internal/services"
	"github.com/mohdateeqmarch2-spec/hriday/internal/session"
)

// Confirm accepts the reviewed artifact and starts the processing pipeline.
// A session without an artifact is left untouched. The reviewing to
// processing transition is a compare-and-swap, so concurrent confirms start
// the pipeline at most once; repeat confirms while processing report busy.
func (o *Orchestrator) Confirm(ctx context.Context, id int64) (*session.Session, error) {
	sess, err := o.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, services.Wrap(services.ErrNotFound, "orchestrator", "confirm", "session not found", nil)
	}

	if !sess.HasArtifact() {
		o.logger.Debug("confirm ignored; session has no artifact",
			logging.Int64(logging.FieldSessionID, id),
		)
		return sess, nil
	}

	user, err := identity.FromConfig(o.cfg)
	if err != nil {
		return nil, err
	}

	moved, err := o.store.Transition(ctx, id, session.StateReviewing, session.StateProcessing)
	if err != nil {
		return nil, err
	}
	if !moved {
		fresh, loadErr := o.store.GetByID(ctx, id)
		if loadErr != nil {
			return nil, loadErr
		}
		if fresh != nil && fresh.State == session.StateProcessing {
			return nil, services.Wrap(services.ErrBusy, "orchestrator", "confirm", "processing already underway", nil)
		}
		return nil, services.Wrap(services.ErrValidation, "orchestrator", "confirm", "session is not awaiting review", nil)
	}

	// Re-read after the swap: a reselect can replace the artifact between
	// the initial load and the transition, and the pipeline must process
	// whatever the session holds now that it owns the processing state.
	sess, err = o.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil || !sess.HasArtifact() {
		_, _ = o.store.Transition(ctx, id, session.StateProcessing, session.StateReviewing)
		return nil, services.Wrap(services.ErrValidation, "orchestrator", "confirm", "artifact disappeared before processing", nil)
	}
	artifact := *sess.Artifact()
	title := sess.Label()

	o.publish(ctx, notifications.EventProcessingStarted, notifications.Payload{"title": title})

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.runPipeline(id, title, user, artifact)
	}()

	return o.store.GetByID(ctx, id)
}

func (o *Orchestrator) runPipeline(id int64, title string, user identity.User, artifact media.Artifact) {
	ctx := services.WithSessionID(o.baseCtx, id)
	logger := logging.WithContext(ctx, o.logger)

	// Whatever happens below, the session must not stay in processing. The
	// success path moves it to complete first, making this a no-op.
	persistCtx := context.WithoutCancel(ctx)
	defer func() {
		if moved, err := o.store.Transition(persistCtx, id, session.StateProcessing, session.StateReviewing); err != nil {
			logger.Error("failed to clear processing state", logging.Error(err))
		} else if moved {
			logger.Warn("processing guard cleared without explicit outcome")
		}
	}()

	result, err := o.processor.Process(ctx, user, artifact)
	if err != nil {
		o.failProcessing(persistCtx, logger, id, title, err)
		return
	}

	sess, loadErr := o.store.GetByID(persistCtx, id)
	if loadErr != nil || sess == nil {
		logger.Error("failed to reload session after processing", logging.Error(loadErr))
		return
	}
	sess.RecordingID = result.RecordingID
	sess.ErrorMessage = ""
	if err := o.store.Update(persistCtx, sess); err != nil {
		logger.Error("failed to persist processing result", logging.Error(err))
		return
	}
	moved, err := o.store.Transition(persistCtx, id, session.StateProcessing, session.StateComplete)
	if err != nil {
		logger.Error("failed to complete session", logging.Error(err))
		return
	}
	if !moved {
		logger.Warn("session left processing before completion could be recorded")
		return
	}

	logger.Info("processing complete",
		logging.String(logging.FieldRecordingID, result.RecordingID),
		logging.Int("samples_saved", result.SamplesSaved),
		logging.String("risk_level", result.Prediction.RiskLevel),
		logging.Duration("elapsed", result.Elapsed),
	)
	o.publish(persistCtx, notifications.EventSessionComplete, notifications.Payload{
		"title":        title,
		"risk_level":   result.Prediction.RiskLevel,
		"recording_id": result.RecordingID,
	})

	o.scheduleNavigation(id, result.RecordingID)
}

func (o *Orchestrator) failProcessing(ctx context.Context, logger *slog.Logger, id int64, title string, procErr error) {
	moved, err := o.store.Transition(ctx, id, session.StateProcessing, session.StateReviewing)
	if err != nil {
		logger.Error("failed to return session to reviewing", logging.Error(err))
		return
	}
	sess, loadErr := o.store.GetByID(ctx, id)
	if loadErr != nil || sess == nil {
		logger.Error("failed to reload session after processing failure", logging.Error(loadErr))
		return
	}
	if moved {
		// Artifact stays in place so the user can retry the confirm.
		sess.ErrorMessage = services.UserMessage(procErr)
		if err := o.store.Update(ctx, sess); err != nil {
			logger.Error("failed to persist processing failure", logging.Error(err))
		}
	}

	logger.Error("processing failed", logging.Error(procErr))
	o.publish(ctx, notifications.EventSessionFailed, notifications.Payload{
		"title": title,
		"error": services.UserMessage(procErr),
	})
}

// scheduleNavigation waits out the configured delay and then hands the
// recording id to the navigator. A reset or shutdown during the delay
// cancels the hand-off.
func (o *Orchestrator) scheduleNavigation(id int64, recordingID string) {
	delay := time.Duration(o.cfg.Workflow.NavigateDelayMS) * time.Millisecond
	if delay <= 0 {
		delay = 2 * time.Second
	}

	navCtx, cancel := context.WithCancel(o.baseCtx)
	o.registerNavigation(id, cancel)

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer o.clearNavigation(id)
		defer cancel()

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-navCtx.Done():
			return
		case <-timer.C:
		}

		if err := o.navigator.NavigateToResults(navCtx, id, recordingID); err != nil {
			o.logger.Warn("results navigation failed",
				logging.Int64(logging.FieldSessionID, id),
				logging.String(logging.FieldRecordingID, recordingID),
				logging.Error(err),
			)
		}
	}()
}
