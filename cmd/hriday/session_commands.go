package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mohdateeqmarch2-spec/hriday/internal/api"
	"github.com/mohdateeqmarch2-spec/hriday/internal/config"
)

const sessionPollInterval = 500 * time.Millisecond

func newRecordCommand(ctx *commandContext) *cobra.Command {
	var seconds int
	var detach bool

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a facial video with the configured camera",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				stdout := cmd.OutOrStdout()

				sess, err := client.ActiveSession(cmd.Context())
				if err != nil {
					return err
				}
				if sess.State != "unselected" {
					return fmt.Errorf("session %d is %s; run `hriday reset` before recording", sess.ID, sess.State)
				}

				sess, err = client.StartRecording(cmd.Context(), sess.ID, seconds)
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "Recording started for session %d\n", sess.ID)
				if detach {
					fmt.Fprintln(stdout, "Use `hriday sessions` to watch for the capture to finish")
					return nil
				}

				final, err := waitForRecording(cmd.Context(), client, sess.ID, stdout)
				if err != nil {
					return err
				}
				if final.ErrorMessage != "" {
					return fmt.Errorf("capture failed: %s", final.ErrorMessage)
				}
				fmt.Fprintln(stdout)
				printSession(stdout, final)
				fmt.Fprintln(stdout, "Run `hriday confirm` to process the capture")
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&seconds, "seconds", 0, "Maximum capture length (default from config)")
	cmd.Flags().BoolVar(&detach, "detach", false, "Return immediately instead of waiting for the capture to finish")
	return cmd
}

func waitForRecording(ctx context.Context, client *api.Client, id int64, stdout io.Writer) (api.Session, error) {
	lastLine := ""
	for {
		select {
		case <-ctx.Done():
			return api.Session{}, ctx.Err()
		case <-time.After(sessionPollInterval):
		}

		sess, err := client.Session(ctx, id)
		if err != nil {
			return api.Session{}, err
		}
		if sess.State != "recording" {
			return sess, nil
		}

		progress, err := client.Progress(ctx, id)
		if err == nil && progress.Active {
			line := fmt.Sprintf("\rRecording... %5.1fs (%3.0f%%)", progress.Seconds, progress.Percent)
			if line != lastLine {
				fmt.Fprint(stdout, line)
				lastLine = line
			}
		}
	}
}

func newImportCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE [FILE...]",
		Short: "Import a video file as the session's artifact",
		Long: "Import stages a local video file for review. When several files are " +
			"given only the first is used; the rest are ignored, matching the " +
			"single-artifact acquisition contract.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				stdout := cmd.OutOrStdout()

				paths := make([]string, 0, len(args))
				for _, arg := range args {
					expanded, err := config.ExpandPath(arg)
					if err != nil {
						return err
					}
					paths = append(paths, expanded)
				}

				sess, err := client.ActiveSession(cmd.Context())
				if err != nil {
					return err
				}
				sess, err = client.Upload(cmd.Context(), sess.ID, paths)
				if err != nil {
					return err
				}

				fmt.Fprintf(stdout, "Staged %s (%.2f MB) for review\n", sess.FileName, sess.DisplaySizeMB)
				fmt.Fprintln(stdout, "Run `hriday confirm` to process it")
				return nil
			})
		},
	}
	return cmd
}

func newConfirmCommand(ctx *commandContext) *cobra.Command {
	var noWait bool

	cmd := &cobra.Command{
		Use:   "confirm",
		Short: "Submit the reviewed artifact for heart-rate processing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				stdout := cmd.OutOrStdout()

				sess, err := client.ActiveSession(cmd.Context())
				if err != nil {
					return err
				}
				if sess.State != "reviewing" {
					return fmt.Errorf("session %d is %s; record or import a video first", sess.ID, sess.State)
				}

				sess, err = client.Confirm(cmd.Context(), sess.ID)
				if err != nil {
					return err
				}
				if sess.State != "processing" {
					// Confirm without an artifact is a no-op on the daemon side.
					fmt.Fprintf(stdout, "Session %d was not submitted (state %s)\n", sess.ID, sess.State)
					return nil
				}
				fmt.Fprintf(stdout, "Processing session %d...\n", sess.ID)
				if noWait {
					return nil
				}

				final, err := waitForProcessing(cmd.Context(), client, sess.ID)
				if err != nil {
					return err
				}
				switch final.State {
				case "complete":
					fmt.Fprintf(stdout, "Complete. Recording id: %s\n", final.RecordingID)
					fmt.Fprintf(stdout, "Run `hriday results %d` to view the analysis\n", final.ID)
				default:
					message := strings.TrimSpace(final.ErrorMessage)
					if message == "" {
						message = "processing did not complete"
					}
					return fmt.Errorf("%s (artifact kept; fix the issue and confirm again)", message)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&noWait, "no-wait", false, "Return immediately instead of waiting for processing to finish")
	return cmd
}

func waitForProcessing(ctx context.Context, client *api.Client, id int64) (api.Session, error) {
	for {
		select {
		case <-ctx.Done():
			return api.Session{}, ctx.Err()
		case <-time.After(sessionPollInterval):
		}

		sess, err := client.Session(ctx, id)
		if err != nil {
			return api.Session{}, err
		}
		if sess.State != "processing" {
			return sess, nil
		}
	}
}

func newResetCommand(ctx *commandContext) *cobra.Command {
	var sessionID int64

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Discard the session's artifact and return it to the initial state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				id := sessionID
				if id == 0 {
					sess, err := client.ActiveSession(cmd.Context())
					if err != nil {
						return err
					}
					id = sess.ID
				}
				sess, err := client.Reset(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Session %d reset\n", sess.ID)
				return nil
			})
		},
	}

	cmd.Flags().Int64Var(&sessionID, "session", 0, "Session id (default: most recent)")
	return cmd
}
