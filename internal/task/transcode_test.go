package task

import (
	"errors"
	"testing"
	"time"

	"aftercast/internal/media"
)

func sleepShort() { time.Sleep(2 * time.Millisecond) }

// fakeRunner stands in for an ffmpeg process.
type fakeRunner struct {
	startErr error
	waitErr  error

	exit     chan error
	progress func(media.Progress)

	suspended int
	resumed   int
	quit      int
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{exit: make(chan error, 1)}
}

func (r *fakeRunner) Start(progress func(media.Progress)) error {
	if r.startErr != nil {
		return r.startErr
	}
	r.progress = progress
	return nil
}

func (r *fakeRunner) Wait() error {
	if err, ok := <-r.exit; ok {
		return err
	}
	return r.waitErr
}

func (r *fakeRunner) Suspend() error { r.suspended++; return nil }
func (r *fakeRunner) Resume() error  { r.resumed++; return nil }
func (r *fakeRunner) Quit() error    { r.quit++; r.exit <- nil; return nil }

func TestTranscodeCompletesWithOutput(t *testing.T) {
	runner := newFakeRunner()
	tk := NewTranscodeTask("merge", runner, "/work/out.mp4")
	tk.Exec()

	runner.progress(media.Progress{Percent: 42.5, Bitrate: "2000kbits/s", Speed: "1.5x"})
	snap := tk.Snapshot()
	if snap.Progress != 42.5 {
		t.Fatalf("progress = %v", snap.Progress)
	}
	if snap.Annotation != "bitrate: 2000kbits/s   speed: 1.5x" {
		t.Fatalf("annotation = %q", snap.Annotation)
	}

	runner.exit <- nil
	waitTerminal(t, tk)
	snap = tk.Snapshot()
	if snap.Status != StatusCompleted || snap.Output != "/work/out.mp4" || snap.Progress != 100 {
		t.Fatalf("unexpected final snapshot: %+v", snap)
	}
}

func TestTranscodeProgressRewrite(t *testing.T) {
	runner := newFakeRunner()
	tk := NewTranscodeTask("merge", runner, "/work/out.mp4",
		WithProgressRewrite(func(pct float64) float64 { return 50 + pct/2 }))
	tk.Exec()

	runner.progress(media.Progress{Percent: 40})
	if got := tk.Snapshot().Progress; got != 70 {
		t.Fatalf("progress = %v, want 70", got)
	}

	runner.exit <- nil
	waitTerminal(t, tk)
}

func TestTranscodeStartFailureIsError(t *testing.T) {
	runner := newFakeRunner()
	runner.startErr = errors.New("ffmpeg: executable file not found")
	tk := NewTranscodeTask("merge", runner, "/work/out.mp4")
	tk.Exec()
	if tk.Status() != StatusError {
		t.Fatalf("expected error status, got %s", tk.Status())
	}
}

func TestTranscodePauseAndResume(t *testing.T) {
	runner := newFakeRunner()
	tk := NewTranscodeTask("merge", runner, "/work/out.mp4")
	tk.Exec()

	if !tk.Pause() {
		t.Fatal("pause on a running task must apply")
	}
	if tk.Pause() {
		t.Fatal("pause on a paused task must not apply")
	}
	if runner.suspended != 1 {
		t.Fatalf("suspend called %d times", runner.suspended)
	}

	if !tk.Resume() {
		t.Fatal("resume on a paused task must apply")
	}
	if tk.Resume() {
		t.Fatal("resume on a running task must not apply")
	}
	if runner.resumed != 1 {
		t.Fatalf("resume called %d times", runner.resumed)
	}
}

func TestTranscodeKillRecordsError(t *testing.T) {
	runner := newFakeRunner()
	tk := NewTranscodeTask("merge", runner, "/work/out.mp4")
	tk.Exec()

	if !tk.Kill() {
		t.Fatal("kill on a running task must apply")
	}
	// quit lets ffmpeg flush and exit cleanly; the task still errors
	waitTerminal(t, tk)
	if tk.Status() != StatusError {
		t.Fatalf("expected error after kill, got %s", tk.Status())
	}
	if runner.quit != 1 {
		t.Fatalf("quit called %d times", runner.quit)
	}
}

func TestTranscodeKillResumesBeforeQuit(t *testing.T) {
	runner := newFakeRunner()
	tk := NewTranscodeTask("merge", runner, "/work/out.mp4")
	tk.Exec()
	if !tk.Pause() {
		t.Fatal("pause must apply")
	}
	if !tk.Kill() {
		t.Fatal("kill on a paused task must apply")
	}
	if runner.resumed != 1 || runner.quit != 1 {
		t.Fatalf("expected resume then quit, got resume=%d quit=%d", runner.resumed, runner.quit)
	}
	waitTerminal(t, tk)
	if tk.Status() != StatusError {
		t.Fatalf("expected error after kill, got %s", tk.Status())
	}
}

func TestTranscodeKillBeforeExecDoesNothing(t *testing.T) {
	runner := newFakeRunner()
	tk := NewTranscodeTask("merge", runner, "/work/out.mp4")
	if tk.Kill() {
		t.Fatal("kill on a pending task must not apply")
	}
	if tk.Pause() {
		t.Fatal("pause on a pending task must not apply")
	}
}
