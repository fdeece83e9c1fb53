package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateUser(); err != nil {
		return err
	}
	if err := c.validateCapture(); err != nil {
		return err
	}
	if err := c.validateServices(); err != nil {
		return err
	}
	if err := c.validateInference(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateUser() error {
	if c.User.ID == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/hriday/config.toml"
		}
		return fmt.Errorf("user.id is required. Set HRIDAY_USER_ID env var or edit %s (create with 'hriday config init')", defaultPath)
	}
	if c.User.Email == "" {
		return errors.New("user.email is required. Set HRIDAY_USER_EMAIL env var or edit the config file")
	}
	if !strings.Contains(c.User.Email, "@") {
		return fmt.Errorf("user.email %q is not a valid address", c.User.Email)
	}
	return nil
}

func (c *Config) validateCapture() error {
	if err := ensurePositiveMap(map[string]int{
		"capture.max_duration_seconds": c.Capture.MaxDurationSeconds,
		"capture.frame_rate":           c.Capture.FrameRate,
		"capture.capture_timeout":      c.Capture.CaptureTimeout,
	}); err != nil {
		return err
	}
	if c.Capture.CaptureTimeout <= c.Capture.MaxDurationSeconds {
		return errors.New("capture.capture_timeout must be greater than capture.max_duration_seconds")
	}
	width, height, ok := strings.Cut(c.Capture.Resolution, "x")
	if !ok {
		return fmt.Errorf("capture.resolution %q must look like 1280x720", c.Capture.Resolution)
	}
	for _, part := range []string{width, height} {
		value, err := strconv.Atoi(part)
		if err != nil || value <= 0 {
			return fmt.Errorf("capture.resolution %q must look like 1280x720", c.Capture.Resolution)
		}
	}
	switch c.Capture.Container {
	case "mp4", "webm":
	default:
		return fmt.Errorf("capture.container %q must be mp4 or webm", c.Capture.Container)
	}
	return nil
}

func (c *Config) validateServices() error {
	if c.Services.BaseURL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/hriday/config.toml"
		}
		return fmt.Errorf("services.base_url is required. Set HRIDAY_SERVICES_URL env var or edit %s (create with 'hriday config init')", defaultPath)
	}
	if !strings.HasPrefix(c.Services.BaseURL, "http://") && !strings.HasPrefix(c.Services.BaseURL, "https://") {
		return fmt.Errorf("services.base_url %q must start with http:// or https://", c.Services.BaseURL)
	}
	return nil
}

func (c *Config) validateInference() error {
	switch c.Inference.Mode {
	case "simulated":
	case "remote":
		if c.Inference.BaseURL == "" {
			return errors.New("inference.base_url must be set when inference.mode is \"remote\"")
		}
		if !strings.HasPrefix(c.Inference.BaseURL, "http://") && !strings.HasPrefix(c.Inference.BaseURL, "https://") {
			return fmt.Errorf("inference.base_url %q must start with http:// or https://", c.Inference.BaseURL)
		}
	default:
		return fmt.Errorf("inference.mode %q must be \"simulated\" or \"remote\"", c.Inference.Mode)
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	return ensurePositiveMap(map[string]int{
		"workflow.navigate_delay_ms":    c.Workflow.NavigateDelayMS,
		"services.request_timeout":      c.Services.RequestTimeout,
		"inference.timeout_seconds":     c.Inference.TimeoutSeconds,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	})
}

func (c *Config) validateNotifications() error {
	if c.Notifications.NtfyTopic == "" {
		return nil
	}
	if strings.ContainsAny(c.Notifications.NtfyTopic, " \t") {
		return fmt.Errorf("notifications.ntfy_topic %q must not contain whitespace", c.Notifications.NtfyTopic)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
