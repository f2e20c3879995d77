package media

import (
	"fmt"
	"strings"

	"aftercast/internal/config"
)

// MergeArgs builds the ffmpeg argument list that burns a rendered overlay
// subtitle track into a video according to a transcode preset. The caller
// appends the progress flags via Command.
func MergeArgs(video, overlayFile, output string, preset config.TranscodePreset) []string {
	args := []string{
		"-hide_banner",
		"-y",
		"-i", video,
		"-vf", fmt.Sprintf("subtitles=%s", escapeFilterPath(overlayFile)),
	}
	if preset.VideoCodec != "" {
		args = append(args, "-c:v", preset.VideoCodec)
	}
	if preset.CRF > 0 {
		args = append(args, "-crf", fmt.Sprint(preset.CRF))
	}
	if preset.Preset != "" {
		args = append(args, "-preset", preset.Preset)
	}
	if preset.AudioCodec != "" {
		args = append(args, "-c:a", preset.AudioCodec)
	}
	args = append(args, preset.ExtraArgs...)
	args = append(args, output)
	return args
}

// escapeFilterPath quotes characters that the ffmpeg filter parser treats
// specially inside a subtitles= argument.
func escapeFilterPath(path string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`:`, `\:`,
		`'`, `\'`,
		`[`, `\[`,
		`]`, `\]`,
		`,`, `\,`,
		`;`, `\;`,
	)
	return replacer.Replace(path)
}
