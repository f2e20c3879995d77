package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeWebhook()
	c.normalizePlatform()
	c.normalizeNotifications()
	c.normalizeLogging()
	c.normalizeTools()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.RecorderDir, err = expandPath(c.Paths.RecorderDir); err != nil {
		return fmt.Errorf("paths.recorder_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeWebhook() {
	c.Webhook.Bind = strings.TrimSpace(c.Webhook.Bind)
	if c.Webhook.Bind == "" {
		c.Webhook.Bind = defaultWebhookBind
	}
	if c.Webhook.SettleSeconds < 0 {
		c.Webhook.SettleSeconds = defaultSettleSeconds
	}
	if c.Webhook.ProximityMinutes <= 0 {
		c.Webhook.ProximityMinutes = defaultProximityMinutes
	}
	if strings.TrimSpace(c.Webhook.TitleTemplate) == "" {
		c.Webhook.TitleTemplate = defaultTitleTemplate
	}
	if c.Webhook.UploadPreset == "" {
		c.Webhook.UploadPreset = defaultPresetID
	}
	if c.Webhook.OverlayPreset == "" {
		c.Webhook.OverlayPreset = defaultPresetID
	}
	if c.Webhook.TranscodePreset == "" {
		c.Webhook.TranscodePreset = defaultPresetID
	}

	cleaned := make([]string, 0, len(c.Webhook.Blacklist))
	for _, entry := range c.Webhook.Blacklist {
		entry = strings.TrimSpace(entry)
		if entry != "" {
			cleaned = append(cleaned, entry)
		}
	}
	c.Webhook.Blacklist = cleaned
}

func (c *Config) normalizePlatform() {
	c.Platform.BaseURL = strings.TrimRight(strings.TrimSpace(c.Platform.BaseURL), "/")
	if c.Platform.RequestTimeout <= 0 {
		c.Platform.RequestTimeout = defaultRequestTimeout
	}
	if c.Platform.SweepIntervalSeconds <= 0 {
		c.Platform.SweepIntervalSeconds = defaultSweepIntervalSeconds
	}
	if c.Platform.ReconcileAttempts <= 0 {
		c.Platform.ReconcileAttempts = defaultReconcileAttempts
	}
	if c.Platform.ReconcileDelaySeconds <= 0 {
		c.Platform.ReconcileDelaySeconds = defaultReconcileDelaySeconds
	}
}

func (c *Config) normalizeNotifications() {
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyRequestTimeout
	}
	c.Notifications.Overlay = normalizeOutcomes(c.Notifications.Overlay)
	c.Notifications.Transcode = normalizeOutcomes(c.Notifications.Transcode)
	c.Notifications.Upload = normalizeOutcomes(c.Notifications.Upload)
	c.Notifications.Download = normalizeOutcomes(c.Notifications.Download)
}

func normalizeOutcomes(outcomes []string) []string {
	cleaned := make([]string, 0, len(outcomes))
	for _, outcome := range outcomes {
		outcome = strings.ToLower(strings.TrimSpace(outcome))
		if outcome != "" {
			cleaned = append(cleaned, outcome)
		}
	}
	return cleaned
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeTools() {
	if strings.TrimSpace(c.Tools.FFmpeg) == "" {
		c.Tools.FFmpeg = defaultFFmpegBinary
	}
	if strings.TrimSpace(c.Tools.OverlayRenderer) == "" {
		c.Tools.OverlayRenderer = defaultOverlayRendererBinary
	}
}
