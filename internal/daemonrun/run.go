// Package daemonrun boots the hriday daemon process: logging, session
// store, orchestrator, API server, and signal handling live here so the
// standalone hridayd binary and the CLI's foreground daemon command share
// one runtime path.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mohdateeqmarch2-spec/hriday/internal/config"
	"github.com/mohdateeqmarch2-spec/hriday/internal/daemon"
	"github.com/mohdateeqmarch2-spec/hriday/internal/deps"
	"github.com/mohdateeqmarch2-spec/hriday/internal/logging"
	"github.com/mohdateeqmarch2-spec/hriday/internal/orchestrator"
	"github.com/mohdateeqmarch2-spec/hriday/internal/session"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the hriday daemon and blocks until the process receives a
// termination signal or a client requests shutdown over the API.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("hriday-%s.log", runID))

	level := strings.TrimSpace(opts.LogLevel)
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(logger, cfg)
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update hriday.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "hriday-*.log", Exclude: []string{logPath}},
	)

	pidPath := filepath.Join(cfg.Paths.LogDir, "hridayd.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := session.Open(cfg)
	if err != nil {
		logger.Error("open session store", logging.Error(err))
		return err
	}
	defer store.Close()

	orch, err := orchestrator.New(cfg, store, logger)
	if err != nil {
		return fmt.Errorf("create orchestrator: %w", err)
	}

	d, err := daemon.New(cfg, store, logger, orch)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return err
	}

	select {
	case <-signalCtx.Done():
	case <-d.ShutdownRequested():
		logger.Info("shutdown requested over api")
	}
	logger.Info("hriday daemon shutting down")
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "hriday.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	attrs := []any{
		logging.Bool("services_url_present", strings.TrimSpace(cfg.Services.BaseURL) != ""),
		logging.Bool("ntfy_topic_present", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
	}
	for _, status := range deps.CheckBinaries(deps.For(cfg)) {
		key := strings.ToLower(status.Name)
		attrs = append(attrs, logging.Bool(key+"_available", status.Available))
		if status.Version != "" {
			attrs = append(attrs, logging.String(key+"_version", status.Version))
		}
	}
	logger.Info("dependency snapshot", attrs...)
}
