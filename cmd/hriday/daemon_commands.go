package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mohdateeqmarch2-spec/hriday/internal/api"
	"github.com/mohdateeqmarch2-spec/hriday/internal/daemonrun"
)

const daemonStartTimeout = 10 * time.Second

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the hriday daemon in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}

			if client.Health(cmd.Context()) == nil {
				fmt.Fprintln(stdout, "Daemon already running")
				return nil
			}

			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("resolve executable: %w", err)
			}
			launchArgs := []string{"daemon"}
			if ctx.configFlag != nil {
				if path := strings.TrimSpace(*ctx.configFlag); path != "" {
					launchArgs = append(launchArgs, "--config", path)
				}
			}
			launch := exec.Command(exe, launchArgs...)
			launch.Stdout = nil
			launch.Stderr = nil
			launch.Stdin = nil
			if err := launch.Start(); err != nil {
				return fmt.Errorf("launch daemon: %w", err)
			}
			// The daemon outlives the CLI; release the child so it is not
			// reaped through this process.
			if err := launch.Process.Release(); err != nil {
				return fmt.Errorf("release daemon process: %w", err)
			}
			fmt.Fprintln(stdout, "Daemon not running, launching...")

			if err := waitForDaemon(cmd.Context(), client, true); err != nil {
				return fmt.Errorf("daemon did not become ready: %w", err)
			}
			fmt.Fprintln(stdout, "Daemon started")
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the hriday daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}

			err = client.Shutdown(cmd.Context())
			if errors.Is(err, api.ErrDaemonUnavailable) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if err := waitForDaemon(cmd.Context(), client, false); err != nil {
				fmt.Fprintln(stdout, "Stop request sent")
				return nil
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and session status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *api.Client) error {
				status, err := client.Status(cmd.Context())
				if err != nil {
					return err
				}

				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)

				for _, line := range renderSectionHeader("Daemon", colorize) {
					fmt.Fprintln(stdout, line)
				}
				fmt.Fprintln(stdout, renderStatusLine("Running", boolKind(status.Running), fmt.Sprintf("pid %d", status.PID), colorize))
				cameraKind := statusWarn
				cameraDetail := "no camera detected"
				if status.CameraPresent {
					cameraKind = statusOK
					cameraDetail = "camera detected"
				}
				fmt.Fprintln(stdout, renderStatusLine("Camera", cameraKind, cameraDetail, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Session DB", statusInfo, status.SessionDBPath, colorize))
				fmt.Fprintln(stdout)

				for _, line := range renderSectionHeader("Checks", colorize) {
					fmt.Fprintln(stdout, line)
				}
				for _, check := range status.Checks {
					fmt.Fprintln(stdout, renderStatusLine(check.Name, boolKind(check.Passed), check.Detail, colorize))
				}
				fmt.Fprintln(stdout)

				for _, line := range renderSectionHeader("Dependencies", colorize) {
					fmt.Fprintln(stdout, line)
				}
				for _, dep := range status.Dependencies {
					kind := boolKind(dep.Available)
					detail := dep.Detail
					if dep.Available {
						detail = "ready"
						if dep.Version != "" {
							detail = fmt.Sprintf("ready (%s)", dep.Version)
						}
					} else if dep.Optional {
						kind = statusWarn
					}
					fmt.Fprintln(stdout, renderStatusLine(dep.Name, kind, detail, colorize))
				}
				fmt.Fprintln(stdout)

				for _, line := range renderSectionHeader("Sessions", colorize) {
					fmt.Fprintln(stdout, line)
				}
				rows := sessionStatsRows(status.Sessions)
				if len(rows) == 0 {
					fmt.Fprintln(stdout, "No sessions")
					return nil
				}
				fmt.Fprintln(stdout, renderTable([]tableColumn{col("Phase"), numCol("Count")}, rows))
				return nil
			})
		},
	}

	var logLevel string
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the hriday daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{LogLevel: logLevel})
		},
	}
	daemonCmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level")

	return []*cobra.Command{startCmd, stopCmd, statusCmd, daemonCmd}
}

// waitForDaemon polls the health endpoint until the daemon reaches the
// desired availability or the timeout lapses.
func waitForDaemon(ctx context.Context, client *api.Client, up bool) error {
	deadline := time.Now().Add(daemonStartTimeout)
	for {
		err := client.Health(ctx)
		if up && err == nil {
			return nil
		}
		if !up && errors.Is(err, api.ErrDaemonUnavailable) {
			return nil
		}
		if time.Now().After(deadline) {
			if err != nil {
				return err
			}
			return fmt.Errorf("timed out")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(250 * time.Millisecond):
		}
	}
}

func sessionStatsRows(stats api.SessionStats) [][]string {
	if stats.Total == 0 {
		return nil
	}
	return [][]string{
		{"Active", fmt.Sprintf("%d", stats.Active)},
		{"Reviewing", fmt.Sprintf("%d", stats.Reviewing)},
		{"Processing", fmt.Sprintf("%d", stats.Processing)},
		{"Complete", fmt.Sprintf("%d", stats.Complete)},
		{"Total", fmt.Sprintf("%d", stats.Total)},
	}
}
