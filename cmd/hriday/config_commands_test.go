package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runBareCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestConfigInitThenValidate(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	out, err := runBareCLI(t, "config", "init")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Wrote sample configuration") {
		t.Fatalf("unexpected init output: %q", out)
	}

	target := filepath.Join(home, ".config", "hriday", "config.toml")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config not written: %v", err)
	}

	out, err = runBareCLI(t, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(out, "Configuration valid") {
		t.Fatalf("unexpected validate output: %q", out)
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	if _, err := runBareCLI(t, "config", "init"); err != nil {
		t.Fatalf("first init: %v", err)
	}
	if _, err := runBareCLI(t, "config", "init"); err == nil {
		t.Fatal("second init without --overwrite should fail")
	}
	if _, err := runBareCLI(t, "config", "init", "--overwrite"); err != nil {
		t.Fatalf("init --overwrite: %v", err)
	}
}

func TestConfigValidateWithoutConfigReportsMissingUser(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	_, err := runBareCLI(t, "config", "validate")
	if err == nil {
		t.Fatal("expected validation to fail without a configured user")
	}
	if !strings.Contains(err.Error(), "user.id") {
		t.Fatalf("expected a user.id hint, got %v", err)
	}
}

func TestConfigShowRedactsSecrets(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	target := filepath.Join(home, "hriday.toml")
	content := "[paths]\nstaging_dir = \"" + filepath.Join(home, "staging") + "\"\n" +
		"data_dir = \"" + filepath.Join(home, "data") + "\"\n" +
		"log_dir = \"" + filepath.Join(home, "logs") + "\"\n\n" +
		"[user]\nid = \"user-1\"\nemail = \"user@example.com\"\n\n" +
		"[services]\nbase_url = \"https://api.example.com\"\napi_key = \"super-secret\"\n"
	if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	out, err := runBareCLI(t, "--config", target, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "super-secret") {
		t.Fatal("config show must not print the services api key")
	}
	if !strings.Contains(out, "<redacted>") {
		t.Fatalf("expected redaction marker in output: %q", out)
	}
}
