package task

import (
	"errors"
	"sync/atomic"

	"aftercast/internal/media"
)

// Runner is the process handle a transcode task drives. *media.Command
// satisfies it.
type Runner interface {
	Start(progress func(media.Progress)) error
	Wait() error
	Suspend() error
	Resume() error
	Quit() error
}

// TranscodeTask runs one ffmpeg invocation with pause and kill support.
// Pause suspends the process with SIGSTOP; kill asks ffmpeg to quit
// gracefully and records the run as errored even though the process exits
// cleanly after flushing.
type TranscodeTask struct {
	base
	runner      Runner
	rewrite     func(float64) float64
	interrupted atomic.Bool
}

// TranscodeOption customizes task construction.
type TranscodeOption func(*TranscodeTask)

// WithProgressRewrite maps the raw ffmpeg percentage before it is reported.
// A merge that runs as the second half of a render-then-merge pipeline uses
// this to present combined progress instead of restarting from zero.
func WithProgressRewrite(fn func(float64) float64) TranscodeOption {
	return func(t *TranscodeTask) {
		t.rewrite = fn
	}
}

// NewTranscodeTask wraps a prepared runner. Output is the path the run
// produces on success.
func NewTranscodeTask(name string, runner Runner, output string, opts ...TranscodeOption) *TranscodeTask {
	t := &TranscodeTask{
		base:   newBase(KindTranscode, name, []Action{ActionPause, ActionKill}),
		runner: runner,
	}
	t.output = output
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Exec launches the process and watches it to completion.
func (t *TranscodeTask) Exec() {
	if !t.markStarted() {
		return
	}
	if err := t.runner.Start(func(p media.Progress) {
		pct := p.Percent
		if t.rewrite != nil {
			pct = t.rewrite(pct)
		}
		t.setProgress(pct, p.Annotation())
	}); err != nil {
		t.markError(err)
		return
	}
	go func() {
		err := t.runner.Wait()
		if t.interrupted.Load() {
			if err == nil {
				err = errors.New("task: transcode interrupted")
			}
			t.markError(err)
			return
		}
		if err != nil {
			t.markError(err)
			return
		}
		t.markCompleted(t.output)
	}()
}

// Pause suspends a running process.
func (t *TranscodeTask) Pause() bool {
	if !t.transition(StatusRunning, StatusPaused) {
		return false
	}
	if err := t.runner.Suspend(); err != nil {
		t.transition(StatusPaused, StatusRunning)
		return false
	}
	return true
}

// Resume continues a paused process.
func (t *TranscodeTask) Resume() bool {
	if !t.transition(StatusPaused, StatusRunning) {
		return false
	}
	if err := t.runner.Resume(); err != nil {
		t.transition(StatusRunning, StatusPaused)
		return false
	}
	return true
}

// Kill stops the run. A paused process is resumed first so the quit request
// can be honored.
func (t *TranscodeTask) Kill() bool {
	if t.transition(StatusPaused, StatusRunning) {
		_ = t.runner.Resume()
	}
	if t.Status() != StatusRunning {
		return false
	}
	t.interrupted.Store(true)
	if err := t.runner.Quit(); err != nil {
		t.markError(err)
	}
	return true
}
