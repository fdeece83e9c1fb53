package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"github.com/mohdateeqmarch2-spec/hriday/internal/config"
)

func TestLoadDefaultConfigUsesEnvIdentityAndExpandsPaths(t *testing.T) {
	t.Setenv("HRIDAY_USER_ID", "user-1")
	t.Setenv("HRIDAY_USER_EMAIL", "Someone@Example.com")
	t.Setenv("HRIDAY_SERVICES_URL", "https://api.example.com/")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantStaging := filepath.Join(tempHome, ".local", "share", "hriday", "staging")
	if cfg.Paths.StagingDir != wantStaging {
		t.Fatalf("unexpected staging dir: got %q want %q", cfg.Paths.StagingDir, wantStaging)
	}
	if cfg.Paths.DataDir != filepath.Join(tempHome, ".local", "share", "hriday") {
		t.Fatalf("unexpected data dir: %q", cfg.Paths.DataDir)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7823" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.User.ID != "user-1" {
		t.Fatalf("expected user id from env, got %q", cfg.User.ID)
	}
	if cfg.User.Email != "someone@example.com" {
		t.Fatalf("expected lowercased email from env, got %q", cfg.User.Email)
	}
	if cfg.Services.BaseURL != "https://api.example.com" {
		t.Fatalf("expected trimmed services base url, got %q", cfg.Services.BaseURL)
	}
	if cfg.Inference.Mode != "simulated" {
		t.Fatalf("expected simulated inference by default, got %q", cfg.Inference.Mode)
	}
	if cfg.Capture.MaxDurationSeconds != 60 {
		t.Fatalf("expected 60 second capture bound, got %d", cfg.Capture.MaxDurationSeconds)
	}
	if cfg.Workflow.NavigateDelayMS != 2000 {
		t.Fatalf("expected 2000ms navigate delay, got %d", cfg.Workflow.NavigateDelayMS)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	for _, dir := range []string{cfg.Paths.StagingDir, cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "hriday.toml")

	type payload struct {
		User struct {
			ID    string `toml:"id"`
			Email string `toml:"email"`
		} `toml:"user"`
		Services struct {
			BaseURL string `toml:"base_url"`
		} `toml:"services"`
		Capture struct {
			MaxDurationSeconds int `toml:"max_duration_seconds"`
		} `toml:"capture"`
		Workflow struct {
			NavigateDelayMS int `toml:"navigate_delay_ms"`
		} `toml:"workflow"`
	}
	custom := payload{}
	custom.User.ID = "abc123"
	custom.User.Email = "abc@example.com"
	custom.Services.BaseURL = "https://backend.example.com"
	custom.Capture.MaxDurationSeconds = 30
	custom.Workflow.NavigateDelayMS = 500
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.User.ID != "abc123" {
		t.Fatalf("expected user id from file, got %q", cfg.User.ID)
	}
	if cfg.Services.BaseURL != "https://backend.example.com" {
		t.Fatalf("expected services base url override, got %q", cfg.Services.BaseURL)
	}
	if cfg.Capture.MaxDurationSeconds != 30 {
		t.Fatalf("expected capture bound 30, got %d", cfg.Capture.MaxDurationSeconds)
	}
	if cfg.Workflow.NavigateDelayMS != 500 {
		t.Fatalf("expected navigate delay 500, got %d", cfg.Workflow.NavigateDelayMS)
	}
}

func TestEnvVarOverridesConfigFileForCredentials(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "hriday.toml")

	type payload struct {
		User struct {
			ID    string `toml:"id"`
			Email string `toml:"email"`
		} `toml:"user"`
		Services struct {
			BaseURL string `toml:"base_url"`
			APIKey  string `toml:"api_key"`
		} `toml:"services"`
		Inference struct {
			APIKey string `toml:"api_key"`
		} `toml:"inference"`
	}
	custom := payload{}
	custom.User.ID = "file-user"
	custom.User.Email = "file@example.com"
	custom.Services.BaseURL = "https://file.example.com"
	custom.Services.APIKey = "file-services"
	custom.Inference.APIKey = "file-inference"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	t.Setenv("HRIDAY_SERVICES_API_KEY", "env-services")
	t.Setenv("HRIDAY_INFERENCE_API_KEY", "env-inference")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	// File values win when present; env fills the gaps.
	if cfg.Services.APIKey != "file-services" {
		t.Errorf("expected services key from file, got %q", cfg.Services.APIKey)
	}
	custom.Services.APIKey = ""
	custom.Inference.APIKey = ""
	data, err = toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}
	cfg, _, _, err = config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Services.APIKey != "env-services" {
		t.Errorf("expected services key from env, got %q", cfg.Services.APIKey)
	}
	if cfg.Inference.APIKey != "env-inference" {
		t.Errorf("expected inference key from env, got %q", cfg.Inference.APIKey)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "your_email@example.com") {
		t.Fatalf("sample config missing placeholder email: %s", contents)
	}

	// Validate it decodes
	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.StagingDir, "hriday") {
		t.Fatalf("expected staging dir to contain hriday, got %q", cfg.Paths.StagingDir)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	valid := func() config.Config {
		cfg := config.Default()
		cfg.User.ID = "user-1"
		cfg.User.Email = "user@example.com"
		cfg.Services.BaseURL = "https://api.example.com"
		return cfg
	}

	cfg := valid()
	cfg.User.Email = "not-an-address"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for malformed email")
	}

	cfg = valid()
	cfg.Capture.MaxDurationSeconds = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for non-positive capture bound")
	}

	cfg = valid()
	cfg.Capture.CaptureTimeout = cfg.Capture.MaxDurationSeconds
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when capture timeout <= max duration")
	}

	cfg = valid()
	cfg.Capture.Resolution = "wide"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for malformed resolution")
	}

	cfg = valid()
	cfg.Capture.Container = "mkv"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unsupported container")
	}

	cfg = valid()
	cfg.Services.BaseURL = "api.example.com"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for scheme-less services url")
	}

	cfg = valid()
	cfg.Inference.Mode = "remote"
	cfg.Inference.BaseURL = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for remote inference without base url")
	}

	cfg = valid()
	cfg.Inference.Mode = "guess"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown inference mode")
	}

	cfg = valid()
	cfg.Notifications.NtfyTopic = "has space"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for ntfy topic with whitespace")
	}
}
