// Package deps reports the availability of the external executables
// aftercast drives.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"aftercast/internal/config"
)

// Requirement defines an external binary aftercast relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements lists the binaries the configuration asks aftercast to run.
// The overlay renderer is optional when no overlay presets are configured.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Tools.FFmpeg,
			Description: "Merges recordings with rendered danmaku overlays",
		},
		{
			Name:        "Overlay renderer",
			Command:     cfg.Tools.OverlayRenderer,
			Description: "Converts danmaku XML chat logs into ASS subtitles",
			Optional:    len(cfg.Presets.Overlay) == 0,
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}
