package orchestrator

import (
	"context"

	"github.com/mohdateeqmarch2-spec/hriday/internal/acquire"
	"github.com/mohdateeqmarch2-spec/hriday/internal/logging"
	"github.com/mohdateeqmarch2-spec/hriday/internal/services"
	"github.com/mohdateeqmarch2-spec/hriday/internal/session"
)

// Reset returns a session to unselected, discarding its artifact and staged
// payloads. Resetting is refused while the pipeline is running; every other
// state may reset, including complete, which also cancels a pending results
// navigation. An active capture is stopped first.
func (o *Orchestrator) Reset(ctx context.Context, id int64) (*session.Session, error) {
	sess, err := o.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, services.Wrap(services.ErrNotFound, "orchestrator", "reset", "session not found", nil)
	}
	if sess.State == session.StateProcessing {
		return nil, services.Wrap(services.ErrBusy, "orchestrator", "reset", "cannot reset while processing; wait for it to finish", nil)
	}

	o.cancelNavigation(id)
	if cancel, ok := o.captureCancel(id); ok {
		cancel()
	}

	// The capture goroutine may race the state forward, so retry the swap
	// from whatever state the session has settled into.
	for attempt := 0; attempt < 3; attempt++ {
		if sess.State == session.StateUnselected {
			break
		}
		if sess.State == session.StateProcessing {
			return nil, services.Wrap(services.ErrBusy, "orchestrator", "reset", "cannot reset while processing; wait for it to finish", nil)
		}
		moved, err := o.store.Transition(ctx, id, sess.State, session.StateUnselected)
		if err != nil {
			return nil, err
		}
		if moved {
			break
		}
		sess, err = o.store.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if sess == nil {
			return nil, services.Wrap(services.ErrNotFound, "orchestrator", "reset", "session disappeared during reset", nil)
		}
	}

	fresh, err := o.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if fresh == nil {
		return nil, services.Wrap(services.ErrNotFound, "orchestrator", "reset", "session disappeared during reset", nil)
	}
	fresh.ClearArtifact()
	fresh.ErrorMessage = ""
	fresh.RecordingID = ""
	if err := o.store.Update(ctx, fresh); err != nil {
		return nil, err
	}

	if err := acquire.Discard(o.cfg.Paths.StagingDir, id); err != nil {
		o.logger.Warn("failed to discard staged payloads",
			logging.Int64(logging.FieldSessionID, id),
			logging.Error(err),
		)
	}

	o.logger.Info("session reset", logging.Int64(logging.FieldSessionID, id))
	return o.store.GetByID(ctx, id)
}
