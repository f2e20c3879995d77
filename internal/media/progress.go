package media

import (
	"fmt"
	"strings"
	"time"
)

// Progress captures one ffmpeg progress report.
type Progress struct {
	Percent float64
	OutTime time.Duration
	Bitrate string
	Speed   string
	Done    bool
}

// Annotation renders the human-readable progress message shown alongside the
// percentage.
func (p Progress) Annotation() string {
	parts := make([]string, 0, 2)
	if bitrate := strings.TrimSpace(p.Bitrate); bitrate != "" && bitrate != "N/A" {
		parts = append(parts, fmt.Sprintf("bitrate: %s", bitrate))
	}
	if speed := strings.TrimSpace(p.Speed); speed != "" && speed != "N/A" {
		parts = append(parts, fmt.Sprintf("speed: %s", speed))
	}
	return strings.Join(parts, "   ")
}
