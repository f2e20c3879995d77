package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	RecorderDir string `toml:"recorder_dir"`
	WorkDir     string `toml:"work_dir"`
	LogDir      string `toml:"log_dir"`
	APIBind     string `toml:"api_bind"`
}

// Tools contains the external executables aftercast drives.
type Tools struct {
	FFmpeg          string `toml:"ffmpeg"`
	OverlayRenderer string `toml:"overlay_renderer"`
}

// Webhook contains ingestion policy: global defaults plus per-room overrides.
type Webhook struct {
	Enabled          bool   `toml:"enabled"`
	Bind             string `toml:"bind"`
	SettleSeconds    int    `toml:"settle_seconds"`
	ProximityMinutes int    `toml:"proximity_minutes"`

	OverlayEnabled  bool   `toml:"overlay_enabled"`
	AutoMergeParts  bool   `toml:"auto_merge_parts"`
	MinSizeMB       int64  `toml:"min_size_mb"`
	UploadPreset    string `toml:"upload_preset"`
	OverlayPreset   string `toml:"overlay_preset"`
	TranscodePreset string `toml:"transcode_preset"`
	TitleTemplate   string `toml:"title_template"`

	Blacklist []string                `toml:"blacklist"`
	Rooms     map[string]RoomOverride `toml:"rooms"`
}

// RoomOverride carries per-room settings. Pointer fields distinguish
// "unset, inherit the global default" from an explicit false/zero.
type RoomOverride struct {
	Enabled         *bool  `toml:"enabled"`
	OverlayEnabled  *bool  `toml:"overlay_enabled"`
	AutoMergeParts  *bool  `toml:"auto_merge_parts"`
	MinSizeMB       *int64 `toml:"min_size_mb"`
	UploadPreset    string `toml:"upload_preset"`
	OverlayPreset   string `toml:"overlay_preset"`
	TranscodePreset string `toml:"transcode_preset"`
	TitleTemplate   string `toml:"title_template"`
}

// RoomPolicy is the effective webhook policy for one room after override
// resolution.
type RoomPolicy struct {
	Enabled         bool
	OverlayEnabled  bool
	AutoMergeParts  bool
	MinSizeMB       int64
	UploadPreset    string
	OverlayPreset   string
	TranscodePreset string
	TitleTemplate   string
}

// Platform contains remote video-platform client settings and the upload
// sweep cadence.
type Platform struct {
	BaseURL               string `toml:"base_url"`
	Cookie                string `toml:"cookie"`
	RequestTimeout        int    `toml:"request_timeout"`
	SweepIntervalSeconds  int    `toml:"sweep_interval_seconds"`
	ReconcileAttempts     int    `toml:"reconcile_attempts"`
	ReconcileDelaySeconds int    `toml:"reconcile_delay_seconds"`
}

// Notifications contains ntfy settings and the per-task-kind outcome matrix.
// Each list holds the outcomes ("success", "failure") that should notify.
type Notifications struct {
	NtfyTopic      string   `toml:"ntfy_topic"`
	RequestTimeout int      `toml:"request_timeout"`
	Overlay        []string `toml:"overlay"`
	Transcode      []string `toml:"transcode"`
	Upload         []string `toml:"upload"`
	Download       []string `toml:"download"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// UploadPreset describes remote archive submission settings.
type UploadPreset struct {
	Category    int      `toml:"category"`
	Copyright   int      `toml:"copyright"`
	Tags        []string `toml:"tags"`
	Description string   `toml:"description"`
	Source      string   `toml:"source"`
}

// OverlayPreset describes chat-overlay rendering settings.
type OverlayPreset struct {
	FontSize   int      `toml:"font_size"`
	Opacity    float64  `toml:"opacity"`
	ScrollArea float64  `toml:"scroll_area"`
	ExtraArgs  []string `toml:"extra_args"`
}

// TranscodePreset describes media merge/transcode settings.
type TranscodePreset struct {
	VideoCodec string   `toml:"video_codec"`
	CRF        int      `toml:"crf"`
	Preset     string   `toml:"preset"`
	AudioCodec string   `toml:"audio_codec"`
	ExtraArgs  []string `toml:"extra_args"`
}

// Presets groups the named preset tables referenced by webhook policy.
type Presets struct {
	Upload    map[string]UploadPreset    `toml:"upload"`
	Overlay   map[string]OverlayPreset   `toml:"overlay"`
	Transcode map[string]TranscodePreset `toml:"transcode"`
}

// Config encapsulates all configuration values for aftercast.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Tools         Tools         `toml:"tools"`
	Webhook       Webhook       `toml:"webhook"`
	Platform      Platform      `toml:"platform"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
	Presets       Presets       `toml:"presets"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/aftercast/config.toml")
}

// SampleConfig returns the embedded sample configuration document.
func SampleConfig() string {
	return sampleConfig
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. When no file exists at
// the resolved location, defaults are returned and exists is false.
func Load(path string) (cfg *Config, resolvedPath string, exists bool, err error) {
	defaults := Default()
	cfg = &defaults

	resolvedPath, exists, err = resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// RoomPolicy resolves the effective webhook policy for a room, applying
// per-room overrides on top of global defaults.
func (c *Config) RoomPolicy(roomID int64) RoomPolicy {
	policy := RoomPolicy{
		Enabled:         false,
		OverlayEnabled:  c.Webhook.OverlayEnabled,
		AutoMergeParts:  c.Webhook.AutoMergeParts,
		MinSizeMB:       c.Webhook.MinSizeMB,
		UploadPreset:    c.Webhook.UploadPreset,
		OverlayPreset:   c.Webhook.OverlayPreset,
		TranscodePreset: c.Webhook.TranscodePreset,
		TitleTemplate:   c.Webhook.TitleTemplate,
	}

	room, ok := c.Webhook.Rooms[strconv.FormatInt(roomID, 10)]
	if !ok {
		return policy
	}
	if room.Enabled != nil {
		policy.Enabled = *room.Enabled
	}
	if room.OverlayEnabled != nil {
		policy.OverlayEnabled = *room.OverlayEnabled
	}
	if room.AutoMergeParts != nil {
		policy.AutoMergeParts = *room.AutoMergeParts
	}
	if room.MinSizeMB != nil {
		policy.MinSizeMB = *room.MinSizeMB
	}
	if room.UploadPreset != "" {
		policy.UploadPreset = room.UploadPreset
	}
	if room.OverlayPreset != "" {
		policy.OverlayPreset = room.OverlayPreset
	}
	if room.TranscodePreset != "" {
		policy.TranscodePreset = room.TranscodePreset
	}
	if room.TitleTemplate != "" {
		policy.TitleTemplate = room.TitleTemplate
	}
	return policy
}

// RoomBlacklisted reports whether a room is excluded from all processing.
func (c *Config) RoomBlacklisted(roomID int64) bool {
	id := strconv.FormatInt(roomID, 10)
	for _, entry := range c.Webhook.Blacklist {
		if entry == id {
			return true
		}
	}
	return false
}

// UploadPresetByID resolves an upload preset, falling back to "default" when
// id is empty.
func (c *Config) UploadPresetByID(id string) (UploadPreset, bool) {
	if id == "" {
		id = defaultPresetID
	}
	preset, ok := c.Presets.Upload[id]
	return preset, ok
}

// OverlayPresetByID resolves an overlay preset, falling back to "default"
// when id is empty.
func (c *Config) OverlayPresetByID(id string) (OverlayPreset, bool) {
	if id == "" {
		id = defaultPresetID
	}
	preset, ok := c.Presets.Overlay[id]
	return preset, ok
}

// TranscodePresetByID resolves a transcode preset, falling back to "default"
// when id is empty.
func (c *Config) TranscodePresetByID(id string) (TranscodePreset, bool) {
	if id == "" {
		id = defaultPresetID
	}
	preset, ok := c.Presets.Transcode[id]
	return preset, ok
}

func expandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return home, nil
	}
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	return filepath.Clean(path), nil
}
