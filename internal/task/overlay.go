package task

// OverlayTask renders a danmaku overlay subtitle file. The renderer offers no
// pause or cancellation handle, so the task exposes no control actions.
type OverlayTask struct {
	base
	run func() error
}

// NewOverlayTask wraps a render invocation. Output is the subtitle path the
// run produces on success.
func NewOverlayTask(name, output string, run func() error) *OverlayTask {
	t := &OverlayTask{
		base: newBase(KindOverlay, name, nil),
		run:  run,
	}
	t.output = output
	return t
}

// Exec starts the render on its own goroutine.
func (t *OverlayTask) Exec() {
	if !t.markStarted() {
		return
	}
	go func() {
		if err := t.run(); err != nil {
			t.markError(err)
			return
		}
		t.markCompleted(t.output)
	}()
}

func (t *OverlayTask) Pause() bool  { return false }
func (t *OverlayTask) Resume() bool { return false }
func (t *OverlayTask) Kill() bool   { return false }
