package config

const (
	defaultStagingDir          = "~/.local/share/hriday/staging"
	defaultDataDir             = "~/.local/share/hriday"
	defaultLogDir              = "~/.local/share/hriday/logs"
	defaultAPIBind             = "127.0.0.1:7823"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 60
	defaultVideoDevice         = "/dev/video0"
	defaultAudioDevice         = "default"
	defaultMaxDurationSeconds  = 60
	defaultFrameRate           = 30
	defaultResolution          = "1280x720"
	defaultContainer           = "mp4"
	defaultCaptureTimeout      = 180
	defaultServicesTimeout     = 30
	defaultServicesRetries     = 3
	defaultInferenceMode       = "simulated"
	defaultInferenceTimeout    = 120
	defaultInferenceRetries    = 3
	defaultNotifyTimeout       = 10
	defaultNavigateDelayMS     = 2000
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			DataDir:    defaultDataDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Capture: Capture{
			VideoDevice:        defaultVideoDevice,
			AudioDevice:        defaultAudioDevice,
			MaxDurationSeconds: defaultMaxDurationSeconds,
			FrameRate:          defaultFrameRate,
			Resolution:         defaultResolution,
			Container:          defaultContainer,
			CaptureTimeout:     defaultCaptureTimeout,
			MonitorHotplug:     true,
		},
		Services: Services{
			RequestTimeout: defaultServicesTimeout,
			MaxRetries:     defaultServicesRetries,
		},
		Inference: Inference{
			Mode:           defaultInferenceMode,
			TimeoutSeconds: defaultInferenceTimeout,
			MaxRetries:     defaultInferenceRetries,
		},
		Notifications: Notifications{
			RequestTimeout:  defaultNotifyTimeout,
			SessionComplete: true,
			SessionFailed:   true,
			Errors:          true,
		},
		Workflow: Workflow{
			NavigateDelayMS: defaultNavigateDelayMS,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
