package config

const (
	defaultWorkDir               = "~/.local/share/aftercast/work"
	defaultLogDir                = "~/.local/share/aftercast/logs"
	defaultAPIBind               = "127.0.0.1:7733"
	defaultWebhookBind           = "127.0.0.1:18010"
	defaultSettleSeconds         = 10
	defaultProximityMinutes      = 10
	defaultTitleTemplate         = "{{title}}"
	defaultSweepIntervalSeconds  = 60
	defaultReconcileAttempts     = 5
	defaultReconcileDelaySeconds = 6
	defaultRequestTimeout        = 30
	defaultNtfyRequestTimeout    = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultFFmpegBinary          = "ffmpeg"
	defaultOverlayRendererBinary = "DanmakuFactory"
	defaultPresetID              = "default"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Tools: Tools{
			FFmpeg:          defaultFFmpegBinary,
			OverlayRenderer: defaultOverlayRendererBinary,
		},
		Webhook: Webhook{
			Enabled:          false,
			Bind:             defaultWebhookBind,
			SettleSeconds:    defaultSettleSeconds,
			ProximityMinutes: defaultProximityMinutes,
			OverlayEnabled:   false,
			AutoMergeParts:   false,
			MinSizeMB:        0,
			UploadPreset:     defaultPresetID,
			OverlayPreset:    defaultPresetID,
			TranscodePreset:  defaultPresetID,
			TitleTemplate:    defaultTitleTemplate,
		},
		Platform: Platform{
			RequestTimeout:        defaultRequestTimeout,
			SweepIntervalSeconds:  defaultSweepIntervalSeconds,
			ReconcileAttempts:     defaultReconcileAttempts,
			ReconcileDelaySeconds: defaultReconcileDelaySeconds,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
			Transcode:      []string{"failure"},
			Upload:         []string{"success", "failure"},
			Download:       []string{"failure"},
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Presets: Presets{
			Upload: map[string]UploadPreset{
				defaultPresetID: {Copyright: 2, Category: 21},
			},
			Overlay: map[string]OverlayPreset{
				defaultPresetID: {FontSize: 38, Opacity: 1, ScrollArea: 0.5},
			},
			Transcode: map[string]TranscodePreset{
				defaultPresetID: {VideoCodec: "libx264", CRF: 23, Preset: "fast", AudioCodec: "copy"},
			},
		},
	}
}
