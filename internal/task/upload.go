package task

import (
	"aftercast/internal/platform"
)

// UploadTask drives one platform upload session. Construct the task first,
// build the session with the callbacks from Events, then attach it with Bind
// before adding the task to the queue.
type UploadTask struct {
	base
	session platform.Session
}

// NewUploadTask prepares an upload task. Output names the archive target for
// display; the session is attached later via Bind.
func NewUploadTask(name, output string) *UploadTask {
	t := &UploadTask{base: newBase(KindUpload, name, []Action{ActionPause, ActionKill})}
	t.output = output
	return t
}

// Events returns the callbacks the platform session reports through.
func (t *UploadTask) Events() platform.UploadEvents {
	return platform.UploadEvents{
		Progress: func(fraction float64) {
			t.setProgress(fraction*100, "")
		},
		Completed: func() {
			t.markCompleted(t.output)
		},
		Error: func(err error) {
			t.markError(err)
		},
	}
}

// Bind attaches the session the task controls.
func (t *UploadTask) Bind(session platform.Session) {
	t.session = session
}

// Exec starts the transfer.
func (t *UploadTask) Exec() {
	if t.session == nil {
		return
	}
	if !t.markStarted() {
		return
	}
	t.session.Start()
}

// Pause blocks the transfer at the next read boundary.
func (t *UploadTask) Pause() bool {
	if !t.transition(StatusRunning, StatusPaused) {
		return false
	}
	t.session.Pause()
	return true
}

// Resume unblocks a paused transfer.
func (t *UploadTask) Resume() bool {
	if !t.transition(StatusPaused, StatusRunning) {
		return false
	}
	t.session.Resume()
	return true
}

// Kill cancels the transfer. The terminal error status arrives through the
// session's error callback.
func (t *UploadTask) Kill() bool {
	status := t.Status()
	if status != StatusRunning && status != StatusPaused {
		return false
	}
	t.session.Cancel()
	return true
}
