// Package task implements the in-memory queue of controllable asynchronous
// work units: chat-overlay renders, ffmpeg transcodes, and platform
// upload/download transfers.
//
// Every task moves through pending -> running (<-> paused) -> completed or
// error. Completed and error are terminal; control calls after that return
// false without effect. Which control actions a task allows depends on its
// kind: a transcode suspends its external process with OS signals, transfers
// gate their network session, and an overlay render cannot be paused at all.
//
// The queue republishes task lifecycle transitions through a typed Hub so
// independent subscribers (orchestration, notifications, the control API)
// observe starts, progress, completions, and errors without polling.
// Removing a task from the queue does NOT stop its underlying process or
// session; callers must Kill first.
package task
