package task

import (
	"fmt"
	"time"

	"aftercast/internal/platform"
)

// DownloadTask drives one platform download session and annotates progress
// with the observed transfer rate.
type DownloadTask struct {
	base
	session platform.Session
	rate    rateTracker
}

// NewDownloadTask prepares a download task. Output is the local file the
// session writes; the session is attached later via Bind.
func NewDownloadTask(name, output string) *DownloadTask {
	t := &DownloadTask{base: newBase(KindDownload, name, []Action{ActionPause, ActionKill})}
	t.output = output
	return t
}

// Events returns the callbacks the platform session reports through.
func (t *DownloadTask) Events() platform.DownloadEvents {
	return platform.DownloadEvents{
		Progress: func(sample platform.DownloadSample) {
			t.setProgress(sample.Percent, t.rate.annotate(sample))
		},
		Completed: func(output string) {
			t.markCompleted(output)
		},
		Error: func(err error) {
			t.markError(err)
		},
	}
}

// Bind attaches the session the task controls.
func (t *DownloadTask) Bind(session platform.Session) {
	t.session = session
}

// Exec starts the transfer.
func (t *DownloadTask) Exec() {
	if t.session == nil {
		return
	}
	if !t.markStarted() {
		return
	}
	t.session.Start()
}

// Pause blocks the transfer at the next segment boundary.
func (t *DownloadTask) Pause() bool {
	if !t.transition(StatusRunning, StatusPaused) {
		return false
	}
	t.session.Pause()
	return true
}

// Resume unblocks a paused transfer.
func (t *DownloadTask) Resume() bool {
	if !t.transition(StatusPaused, StatusRunning) {
		return false
	}
	t.session.Resume()
	return true
}

// Kill cancels the transfer. The terminal error status arrives through the
// session's error callback.
func (t *DownloadTask) Kill() bool {
	status := t.Status()
	if status != StatusRunning && status != StatusPaused {
		return false
	}
	t.session.Cancel()
	return true
}

// rateTracker turns byte samples into a human-readable transfer rate.
// Samples closer than the minimum interval reuse the previous annotation so
// the rate does not jitter on bursty reads.
type rateTracker struct {
	hasPrev bool
	prev    platform.DownloadSample
	last    string
}

const rateMinInterval = 100 * time.Millisecond

func (r *rateTracker) annotate(sample platform.DownloadSample) string {
	if r.last == "" {
		r.last = "rate: 0.00MB/s"
	}
	if !r.hasPrev {
		r.hasPrev = true
		r.prev = sample
		return r.last
	}
	elapsed := sample.At.Sub(r.prev.At)
	if elapsed < rateMinInterval {
		return r.last
	}
	rate := float64(sample.Loaded-r.prev.Loaded) / elapsed.Seconds() / 1024 / 1024
	r.last = fmt.Sprintf("rate: %.2fMB/s", rate)
	r.prev = sample
	return r.last
}
