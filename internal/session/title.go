package session

import (
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

const titleMaxRunes = 80

// RenderTitle expands the upload title template. Supported tokens are
// {{title}} for the stream title, {{user}} for the streamer name, and
// {{now}} for the event date formatted YYYY.MM.DD. The result is NFC
// normalized, trimmed, and capped at 80 runes; when it comes out empty the
// base filename without extension is used instead. Rendering the same
// inputs twice yields the same title.
func RenderTitle(template, streamTitle, username string, at time.Time, filePath string) string {
	rendered := strings.ReplaceAll(template, "{{title}}", streamTitle)
	rendered = strings.ReplaceAll(rendered, "{{user}}", username)
	rendered = strings.ReplaceAll(rendered, "{{now}}", at.Format("2006.01.02"))
	rendered = strings.TrimSpace(norm.NFC.String(rendered))
	if runes := []rune(rendered); len(runes) > titleMaxRunes {
		rendered = string(runes[:titleMaxRunes])
	}
	if rendered == "" {
		base := filepath.Base(filePath)
		rendered = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return rendered
}
