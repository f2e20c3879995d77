// Package media wraps the external ffmpeg process used for overlay merges and
// transcodes.
//
// Command starts ffmpeg with a machine-readable progress stream on stdout,
// keeps stdin open for the graceful "q" quit instruction, and exposes
// OS-level suspend/continue so a running transcode can be paused. Progress
// percentages are computed against a caller-supplied expected duration; when
// the duration is unknown the percent stays at zero and consumers fall back
// to the speed annotation.
package media
