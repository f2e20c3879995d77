package config

import (
	"errors"
	"fmt"
	"strconv"
)

var validOutcomes = map[string]struct{}{
	"success": {},
	"failure": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateWebhook(); err != nil {
		return err
	}
	if err := c.validatePresets(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateWebhook() error {
	if !c.Webhook.Enabled {
		return nil
	}
	if c.Paths.RecorderDir == "" {
		return errors.New("paths.recorder_dir is required when webhook ingestion is enabled")
	}
	if c.Webhook.MinSizeMB < 0 {
		return errors.New("webhook.min_size_mb must not be negative")
	}
	for id := range c.Webhook.Rooms {
		if _, err := strconv.ParseInt(id, 10, 64); err != nil {
			return fmt.Errorf("webhook.rooms: key %q is not a room id", id)
		}
	}
	return nil
}

func (c *Config) validatePresets() error {
	if _, ok := c.UploadPresetByID(c.Webhook.UploadPreset); !ok {
		return fmt.Errorf("webhook.upload_preset: preset %q is not defined", c.Webhook.UploadPreset)
	}
	if _, ok := c.OverlayPresetByID(c.Webhook.OverlayPreset); !ok {
		return fmt.Errorf("webhook.overlay_preset: preset %q is not defined", c.Webhook.OverlayPreset)
	}
	if _, ok := c.TranscodePresetByID(c.Webhook.TranscodePreset); !ok {
		return fmt.Errorf("webhook.transcode_preset: preset %q is not defined", c.Webhook.TranscodePreset)
	}
	for id, room := range c.Webhook.Rooms {
		if room.UploadPreset != "" {
			if _, ok := c.UploadPresetByID(room.UploadPreset); !ok {
				return fmt.Errorf("webhook.rooms.%s: upload preset %q is not defined", id, room.UploadPreset)
			}
		}
		if room.OverlayPreset != "" {
			if _, ok := c.OverlayPresetByID(room.OverlayPreset); !ok {
				return fmt.Errorf("webhook.rooms.%s: overlay preset %q is not defined", id, room.OverlayPreset)
			}
		}
		if room.TranscodePreset != "" {
			if _, ok := c.TranscodePresetByID(room.TranscodePreset); !ok {
				return fmt.Errorf("webhook.rooms.%s: transcode preset %q is not defined", id, room.TranscodePreset)
			}
		}
	}
	return nil
}

func (c *Config) validateNotifications() error {
	matrix := map[string][]string{
		"notifications.overlay":   c.Notifications.Overlay,
		"notifications.transcode": c.Notifications.Transcode,
		"notifications.upload":    c.Notifications.Upload,
		"notifications.download":  c.Notifications.Download,
	}
	for key, outcomes := range matrix {
		for _, outcome := range outcomes {
			if _, ok := validOutcomes[outcome]; !ok {
				return fmt.Errorf("%s: unknown outcome %q (want success or failure)", key, outcome)
			}
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
