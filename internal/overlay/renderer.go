// Package overlay wraps the external chat-overlay renderer that converts a
// recorded chat log (xml) into a rendered subtitle track (ass).
//
// The renderer is a one-shot transform: it has no progress stream and no
// native suspension, so the wrapping task exposes an empty action set.
package overlay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"aftercast/internal/config"
)

var commandContext = exec.CommandContext

// Renderer invokes the overlay renderer binary.
type Renderer struct {
	binary string
}

// Option configures the renderer.
type Option func(*Renderer)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(r *Renderer) {
		if binary != "" {
			r.binary = binary
		}
	}
}

// NewRenderer constructs a Renderer using defaults.
func NewRenderer(opts ...Option) *Renderer {
	renderer := &Renderer{binary: "DanmakuFactory"}
	for _, opt := range opts {
		opt(renderer)
	}
	return renderer
}

// Render converts input (xml chat log) into output (ass subtitle track).
func (r *Renderer) Render(ctx context.Context, input, output string, preset config.OverlayPreset) error {
	if input == "" {
		return errors.New("input path required")
	}
	if output == "" {
		return errors.New("output path required")
	}

	args := []string{"-i", input, "-o", output, "--ignore-warnings"}
	if preset.FontSize > 0 {
		args = append(args, "--fontsize", fmt.Sprint(preset.FontSize))
	}
	if preset.Opacity > 0 {
		args = append(args, "--opacity", fmt.Sprintf("%.0f", preset.Opacity*255))
	}
	if preset.ScrollArea > 0 {
		args = append(args, "--displayarea", fmt.Sprintf("%.2f", preset.ScrollArea))
	}
	args = append(args, preset.ExtraArgs...)

	cmd := commandContext(ctx, r.binary, args...) //nolint:gosec
	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(combined.String())
		if detail != "" {
			return fmt.Errorf("render overlay: %w: %s", err, detail)
		}
		return fmt.Errorf("render overlay: %w", err)
	}
	return nil
}
