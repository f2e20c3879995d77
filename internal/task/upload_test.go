package task

import (
	"errors"
	"testing"
)

// fakeSession records control calls on a transfer session.
type fakeSession struct {
	started  int
	paused   int
	resumed  int
	canceled int
}

func (s *fakeSession) Start()  { s.started++ }
func (s *fakeSession) Pause()  { s.paused++ }
func (s *fakeSession) Resume() { s.resumed++ }
func (s *fakeSession) Cancel() { s.canceled++ }

func TestUploadProgressScalesFractionToPercent(t *testing.T) {
	tk := NewUploadTask("upload", "stream 2026-01-10")
	events := tk.Events()
	session := &fakeSession{}
	tk.Bind(session)
	tk.Exec()
	if session.started != 1 {
		t.Fatalf("session started %d times", session.started)
	}

	events.Progress(0.25)
	if got := tk.Snapshot().Progress; got != 25 {
		t.Fatalf("progress = %v", got)
	}

	events.Completed()
	snap := tk.Snapshot()
	if snap.Status != StatusCompleted || snap.Output != "stream 2026-01-10" || snap.Progress != 100 {
		t.Fatalf("unexpected final snapshot: %+v", snap)
	}
}

func TestUploadErrorFromSessionIsTerminal(t *testing.T) {
	tk := NewUploadTask("upload", "stream")
	events := tk.Events()
	tk.Bind(&fakeSession{})
	tk.Exec()

	sendErr := errors.New("platform rejected upload")
	events.Error(sendErr)
	if tk.Status() != StatusError {
		t.Fatalf("expected error status, got %s", tk.Status())
	}
	// terminal status sticks even if a late callback arrives
	events.Completed()
	if tk.Status() != StatusError {
		t.Fatalf("completed callback overrode error, got %s", tk.Status())
	}
}

func TestUploadPauseResumeKillDelegate(t *testing.T) {
	tk := NewUploadTask("upload", "stream")
	session := &fakeSession{}
	tk.Bind(session)
	tk.Exec()

	if !tk.Pause() || session.paused != 1 {
		t.Fatal("pause must delegate to the session")
	}
	if !tk.Resume() || session.resumed != 1 {
		t.Fatal("resume must delegate to the session")
	}
	if tk.Resume() {
		t.Fatal("resume on a running task must not apply")
	}
	if !tk.Kill() || session.canceled != 1 {
		t.Fatal("kill must cancel the session")
	}
}

func TestUploadExecWithoutSessionStaysPending(t *testing.T) {
	tk := NewUploadTask("upload", "stream")
	tk.Exec()
	if tk.Status() != StatusPending {
		t.Fatalf("expected pending without a bound session, got %s", tk.Status())
	}
}
