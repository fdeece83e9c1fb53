package orchestrator

import (
	"context"
	"os"

	"github.com/mohdateeqmarch2-spec/hriday/internal/logging"
	"github.com/mohdateeqmarch2-spec/hriday/internal/notifications"
	"github.com/mohdateeqmarch2-spec/hriday/internal/services"
	"github.com/mohdateeqmarch2-spec/hriday/internal/session"
)

// SelectUpload validates and stages the first of the given files for the
// session. From unselected the session enters uploading and, once a file is
// accepted, moves on to reviewing. A rejected file keeps the session in
// uploading with the reason recorded, so the next selection retries in place
// and only an explicit reset returns to unselected. From reviewing an
// accepted file completely replaces the prior artifact; a rejected file
// leaves the prior artifact untouched.
func (o *Orchestrator) SelectUpload(ctx context.Context, id int64, paths []string) (*session.Session, error) {
	sess, err := o.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, services.Wrap(services.ErrNotFound, "orchestrator", "upload", "session not found", nil)
	}

	switch sess.State {
	case session.StateUnselected:
		return o.selectFresh(ctx, id, paths)
	case session.StateUploading:
		return o.stageUpload(ctx, id, paths)
	case session.StateReviewing:
		return o.reselect(ctx, sess, paths)
	case session.StateProcessing:
		return nil, services.Wrap(services.ErrBusy, "orchestrator", "upload", "cannot select a file while processing", nil)
	default:
		return nil, services.Wrap(services.ErrValidation, "orchestrator", "upload", "session is not ready for file selection", nil)
	}
}

func (o *Orchestrator) selectFresh(ctx context.Context, id int64, paths []string) (*session.Session, error) {
	moved, err := o.store.Transition(ctx, id, session.StateUnselected, session.StateUploading)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, services.Wrap(services.ErrBusy, "orchestrator", "upload", "session state changed; retry the selection", nil)
	}
	return o.stageUpload(ctx, id, paths)
}

// stageUpload runs the selection for a session already in uploading. On
// rejection the session stays in uploading with the reason recorded.
func (o *Orchestrator) stageUpload(ctx context.Context, id int64, paths []string) (*session.Session, error) {
	artifact, selectErr := o.uploader.Select(ctx, id, paths)
	if selectErr != nil {
		if err := o.recordSelectionError(ctx, id, selectErr); err != nil {
			return nil, err
		}
		return nil, selectErr
	}

	sess, err := o.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, services.Wrap(services.ErrNotFound, "orchestrator", "upload", "session disappeared during selection", nil)
	}
	sess.SetArtifact(artifact)
	sess.ErrorMessage = ""
	if err := o.store.Update(ctx, sess); err != nil {
		return nil, err
	}
	if _, err := o.store.Transition(ctx, id, session.StateUploading, session.StateReviewing); err != nil {
		return nil, err
	}

	o.logger.Info("upload staged for review",
		logging.Int64(logging.FieldSessionID, id),
		logging.String("file", artifact.DisplayName()),
		logging.Int64("size_bytes", artifact.SizeBytes),
	)
	o.publish(ctx, notifications.EventArtifactReady, notifications.Payload{
		"file":    artifact.DisplayName(),
		"size_mb": artifact.DisplaySizeMB(),
	})
	return o.store.GetByID(ctx, id)
}

// reselect replaces a reviewed artifact in place. The session stays in
// reviewing throughout so a rejection cannot strand it without its prior
// artifact.
func (o *Orchestrator) reselect(ctx context.Context, sess *session.Session, paths []string) (*session.Session, error) {
	prior := sess.Artifact()

	artifact, err := o.uploader.Select(ctx, sess.ID, paths)
	if err != nil {
		return nil, err
	}

	fresh, loadErr := o.store.GetByID(ctx, sess.ID)
	if loadErr != nil {
		return nil, loadErr
	}
	if fresh == nil || fresh.State != session.StateReviewing {
		_ = os.Remove(artifact.Path)
		return nil, services.Wrap(services.ErrBusy, "orchestrator", "upload", "session state changed; retry the selection", nil)
	}
	fresh.SetArtifact(artifact)
	fresh.ErrorMessage = ""
	if err := o.store.Update(ctx, fresh); err != nil {
		return nil, err
	}

	if prior != nil && prior.Path != "" && prior.Path != artifact.Path {
		_ = os.Remove(prior.Path)
	}

	o.logger.Info("artifact replaced",
		logging.Int64(logging.FieldSessionID, sess.ID),
		logging.String("file", artifact.DisplayName()),
	)
	return o.store.GetByID(ctx, sess.ID)
}

func (o *Orchestrator) recordSelectionError(ctx context.Context, id int64, selectErr error) error {
	sess, err := o.store.GetByID(ctx, id)
	if err != nil || sess == nil {
		return err
	}
	sess.ErrorMessage = services.UserMessage(selectErr)
	return o.store.Update(ctx, sess)
}
