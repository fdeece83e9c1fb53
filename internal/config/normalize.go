package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeUser()
	c.normalizeCapture()
	c.normalizeServices()
	c.normalizeInference()
	c.normalizeNotifications()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("HRIDAY_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeUser() {
	if c.User.ID == "" {
		if value, ok := os.LookupEnv("HRIDAY_USER_ID"); ok {
			c.User.ID = value
		}
	}
	if c.User.Email == "" {
		if value, ok := os.LookupEnv("HRIDAY_USER_EMAIL"); ok {
			c.User.Email = value
		}
	}
	c.User.ID = strings.TrimSpace(c.User.ID)
	c.User.Email = strings.TrimSpace(strings.ToLower(c.User.Email))
	c.User.DisplayName = strings.TrimSpace(c.User.DisplayName)
}

func (c *Config) normalizeCapture() {
	c.Capture.VideoDevice = strings.TrimSpace(c.Capture.VideoDevice)
	if c.Capture.VideoDevice == "" {
		c.Capture.VideoDevice = defaultVideoDevice
	}
	c.Capture.AudioDevice = strings.TrimSpace(c.Capture.AudioDevice)
	if c.Capture.AudioDevice == "" {
		c.Capture.AudioDevice = defaultAudioDevice
	}
	if c.Capture.MaxDurationSeconds <= 0 {
		c.Capture.MaxDurationSeconds = defaultMaxDurationSeconds
	}
	if c.Capture.FrameRate <= 0 {
		c.Capture.FrameRate = defaultFrameRate
	}
	c.Capture.Resolution = strings.ToLower(strings.TrimSpace(c.Capture.Resolution))
	if c.Capture.Resolution == "" {
		c.Capture.Resolution = defaultResolution
	}
	c.Capture.Container = strings.ToLower(strings.TrimSpace(c.Capture.Container))
	if c.Capture.Container == "" {
		c.Capture.Container = defaultContainer
	}
	if c.Capture.CaptureTimeout <= 0 {
		c.Capture.CaptureTimeout = defaultCaptureTimeout
	}
}

func (c *Config) normalizeServices() {
	if c.Services.BaseURL == "" {
		if value, ok := os.LookupEnv("HRIDAY_SERVICES_URL"); ok {
			c.Services.BaseURL = value
		}
	}
	if c.Services.APIKey == "" {
		if value, ok := os.LookupEnv("HRIDAY_SERVICES_API_KEY"); ok {
			c.Services.APIKey = value
		}
	}
	c.Services.BaseURL = strings.TrimRight(strings.TrimSpace(c.Services.BaseURL), "/")
	c.Services.APIKey = strings.TrimSpace(c.Services.APIKey)
	if c.Services.RequestTimeout <= 0 {
		c.Services.RequestTimeout = defaultServicesTimeout
	}
	if c.Services.MaxRetries < 0 {
		c.Services.MaxRetries = defaultServicesRetries
	}
}

func (c *Config) normalizeInference() {
	c.Inference.Mode = strings.ToLower(strings.TrimSpace(c.Inference.Mode))
	if c.Inference.Mode == "" {
		c.Inference.Mode = defaultInferenceMode
	}
	if c.Inference.APIKey == "" {
		if value, ok := os.LookupEnv("HRIDAY_INFERENCE_API_KEY"); ok {
			c.Inference.APIKey = value
		}
	}
	c.Inference.BaseURL = strings.TrimRight(strings.TrimSpace(c.Inference.BaseURL), "/")
	c.Inference.APIKey = strings.TrimSpace(c.Inference.APIKey)
	if c.Inference.TimeoutSeconds <= 0 {
		c.Inference.TimeoutSeconds = defaultInferenceTimeout
	}
	if c.Inference.MaxRetries < 0 {
		c.Inference.MaxRetries = defaultInferenceRetries
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.NavigateDelayMS <= 0 {
		c.Workflow.NavigateDelayMS = defaultNavigateDelayMS
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
