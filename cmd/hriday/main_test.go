package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mohdateeqmarch2-spec/hriday/internal/config"
	"github.com/mohdateeqmarch2-spec/hriday/internal/daemon"
	"github.com/mohdateeqmarch2-spec/hriday/internal/identity"
	"github.com/mohdateeqmarch2-spec/hriday/internal/logging"
	"github.com/mohdateeqmarch2-spec/hriday/internal/media"
	"github.com/mohdateeqmarch2-spec/hriday/internal/orchestrator"
	"github.com/mohdateeqmarch2-spec/hriday/internal/pipeline"
	"github.com/mohdateeqmarch2-spec/hriday/internal/session"
	"github.com/mohdateeqmarch2-spec/hriday/internal/testsupport"
)

type stubProcessor struct {
	result pipeline.Result
	err    error
}

func (p *stubProcessor) Process(context.Context, identity.User, media.Artifact) (pipeline.Result, error) {
	if p.err != nil {
		return pipeline.Result{}, p.err
	}
	return p.result, nil
}

type cliTestEnv struct {
	cfg        *config.Config
	store      *session.Store
	daemon     *daemon.Daemon
	apiAddr    string
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, processor orchestrator.Processor) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	orch, err := orchestrator.New(cfg, store, logging.NewNop(),
		orchestrator.WithProcessor(processor))
	if err != nil {
		t.Fatalf("orchestrator.New: %v", err)
	}

	d, err := daemon.New(cfg, store, logging.NewNop(), orch)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(func() {
		d.Stop()
		orch.Stop()
	})

	base := filepath.Dir(cfg.Paths.StagingDir)
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		store:      store,
		daemon:     d,
		apiAddr:    d.APIAddr(),
		configPath: configPath,
		baseDir:    base,
	}
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--api", env.apiAddr, "--config", env.configPath}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nstaging_dir = %q\ndata_dir = %q\nlog_dir = %q\napi_bind = %q\n\n[user]\nid = %q\nemail = %q\n\n[services]\nbase_url = %q\n",
		cfg.Paths.StagingDir,
		cfg.Paths.DataDir,
		cfg.Paths.LogDir,
		cfg.Paths.APIBind,
		cfg.User.ID,
		cfg.User.Email,
		cfg.Services.BaseURL,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func writeClip(t *testing.T, dir, name string, size int64) string {
	t.Helper()
	path := filepath.Join(dir, name)
	testsupport.WriteFile(t, path, size)
	return path
}

func TestCLIImportConfirmLifecycle(t *testing.T) {
	env := setupCLITestEnv(t, &stubProcessor{
		result: pipeline.Result{RecordingID: "rec-cli-1", SamplesSaved: 60},
	})

	clip := writeClip(t, env.baseDir, "clip.mp4", 2048)

	out, _, err := runCLI(t, env, "import", clip)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "clip.mp4") || !strings.Contains(out, "review") {
		t.Fatalf("unexpected import output: %q", out)
	}

	out, _, err = runCLI(t, env, "sessions")
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if !strings.Contains(out, "reviewing") || !strings.Contains(out, "clip.mp4") {
		t.Fatalf("sessions output missing staged artifact: %q", out)
	}

	out, _, err = runCLI(t, env, "confirm")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !strings.Contains(out, "rec-cli-1") {
		t.Fatalf("confirm output missing recording id: %q", out)
	}

	out, _, err = runCLI(t, env, "sessions", "--state", "complete")
	if err != nil {
		t.Fatalf("sessions --state complete: %v", err)
	}
	if !strings.Contains(out, "rec-cli-1") {
		t.Fatalf("expected completed session in output: %q", out)
	}
}

func TestCLIImportRejectsBadFormat(t *testing.T) {
	env := setupCLITestEnv(t, &stubProcessor{})

	notes := writeClip(t, env.baseDir, "notes.txt", 128)

	_, _, err := runCLI(t, env, "import", notes)
	if err == nil {
		t.Fatal("expected import of a text file to fail")
	}
	if !strings.Contains(err.Error(), "format") {
		t.Fatalf("expected a format rejection reason, got %v", err)
	}

	out, _, listErr := runCLI(t, env, "sessions")
	if listErr != nil {
		t.Fatalf("sessions: %v", listErr)
	}
	if strings.Contains(out, "reviewing") {
		t.Fatalf("rejected file must not reach reviewing: %q", out)
	}
	if !strings.Contains(out, "uploading") {
		t.Fatalf("rejection should keep the session in the uploading mode: %q", out)
	}
}

func TestCLIConfirmFailureKeepsArtifact(t *testing.T) {
	env := setupCLITestEnv(t, &stubProcessor{err: fmt.Errorf("create recording failed")})

	clip := writeClip(t, env.baseDir, "clip.webm", 1024)
	if _, _, err := runCLI(t, env, "import", clip); err != nil {
		t.Fatalf("import: %v", err)
	}

	_, _, err := runCLI(t, env, "confirm")
	if err == nil {
		t.Fatal("expected confirm to surface the pipeline failure")
	}
	if !strings.Contains(err.Error(), "create recording failed") {
		t.Fatalf("expected the step error to surface, got %v", err)
	}

	out, _, listErr := runCLI(t, env, "sessions", "--state", "reviewing")
	if listErr != nil {
		t.Fatalf("sessions: %v", listErr)
	}
	if !strings.Contains(out, "clip.webm") {
		t.Fatalf("artifact should survive a failed pipeline run: %q", out)
	}
}

func TestCLIResetReturnsToUnselected(t *testing.T) {
	env := setupCLITestEnv(t, &stubProcessor{})

	clip := writeClip(t, env.baseDir, "clip.mov", 512)
	if _, _, err := runCLI(t, env, "import", clip); err != nil {
		t.Fatalf("import: %v", err)
	}

	out, _, err := runCLI(t, env, "reset")
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if !strings.Contains(out, "reset") {
		t.Fatalf("unexpected reset output: %q", out)
	}

	out, _, err = runCLI(t, env, "sessions", "--state", "unselected")
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if !strings.Contains(out, "unselected") {
		t.Fatalf("expected an unselected session after reset: %q", out)
	}
}

func TestCLIStatusRendersSections(t *testing.T) {
	env := setupCLITestEnv(t, &stubProcessor{})

	out, _, err := runCLI(t, env, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{"Daemon", "Checks", "Dependencies", "Sessions"} {
		if !strings.Contains(out, want) {
			t.Fatalf("status output missing %q section: %q", want, out)
		}
	}
}

func TestCLISessionsJSON(t *testing.T) {
	env := setupCLITestEnv(t, &stubProcessor{})

	clip := writeClip(t, env.baseDir, "clip.avi", 256)
	if _, _, err := runCLI(t, env, "import", clip); err != nil {
		t.Fatalf("import: %v", err)
	}

	out, _, err := runCLI(t, env, "sessions", "--json")
	if err != nil {
		t.Fatalf("sessions --json: %v", err)
	}
	if !strings.Contains(out, `"state": "reviewing"`) || !strings.Contains(out, `"fileName": "clip.avi"`) {
		t.Fatalf("unexpected JSON output: %q", out)
	}
}

func TestCLIExportWritesWorkbook(t *testing.T) {
	env := setupCLITestEnv(t, &stubProcessor{
		result: pipeline.Result{RecordingID: "rec-export"},
	})

	clip := writeClip(t, env.baseDir, "clip.mp4", 1024)
	if _, _, err := runCLI(t, env, "import", clip); err != nil {
		t.Fatalf("import: %v", err)
	}
	if _, _, err := runCLI(t, env, "confirm"); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	target := filepath.Join(env.baseDir, "report.xlsx")
	out, _, err := runCLI(t, env, "export", "--output", target)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, "report.xlsx") {
		t.Fatalf("unexpected export output: %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("workbook not written: %v", err)
	}
}

func TestCLIDaemonUnavailableMessage(t *testing.T) {
	env := setupCLITestEnv(t, &stubProcessor{})
	env.daemon.Stop()

	_, _, err := runCLI(t, env, "sessions")
	if err == nil {
		t.Fatal("expected an error once the daemon is stopped")
	}
	if !strings.Contains(err.Error(), "hriday start") {
		t.Fatalf("expected guidance to start the daemon, got %v", err)
	}
}
