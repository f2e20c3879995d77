// Package config loads, normalizes, and validates aftercast configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and resolves per-room webhook policy against
// global defaults. The Config type centralizes every knob the daemon and CLI
// need: recorder paths, webhook policy, presets, platform credentials, the
// notification matrix, and logging.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths and clear validation errors.
package config
