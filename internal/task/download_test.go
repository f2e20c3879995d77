package task

import (
	"testing"
	"time"

	"aftercast/internal/platform"
)

func TestDownloadRateAnnotation(t *testing.T) {
	base := time.Date(2026, time.January, 10, 12, 0, 0, 0, time.UTC)
	var tracker rateTracker

	// first sample has no predecessor to difference against
	got := tracker.annotate(platform.DownloadSample{Loaded: 0, At: base})
	if got != "rate: 0.00MB/s" {
		t.Fatalf("initial annotation = %q", got)
	}

	// 1 MiB over one second
	got = tracker.annotate(platform.DownloadSample{Loaded: 1 << 20, At: base.Add(time.Second)})
	if got != "rate: 1.00MB/s" {
		t.Fatalf("annotation = %q", got)
	}

	// sample inside the minimum interval reuses the previous annotation
	got = tracker.annotate(platform.DownloadSample{Loaded: 10 << 20, At: base.Add(time.Second + 50*time.Millisecond)})
	if got != "rate: 1.00MB/s" {
		t.Fatalf("burst sample must reuse annotation, got %q", got)
	}

	// half a MiB over the next half second, measured from the last kept sample
	got = tracker.annotate(platform.DownloadSample{Loaded: (1 << 20) + (1 << 19), At: base.Add(time.Second + 500*time.Millisecond)})
	if got != "rate: 1.00MB/s" {
		t.Fatalf("annotation = %q", got)
	}
}

func TestDownloadProgressCarriesRate(t *testing.T) {
	tk := NewDownloadTask("download", "/work/replay.ts")
	events := tk.Events()
	session := &fakeSession{}
	tk.Bind(session)
	tk.Exec()

	at := time.Now()
	events.Progress(platform.DownloadSample{Loaded: 0, At: at, Percent: 10})
	events.Progress(platform.DownloadSample{Loaded: 2 << 20, At: at.Add(time.Second), Percent: 20})

	snap := tk.Snapshot()
	if snap.Progress != 20 {
		t.Fatalf("progress = %v", snap.Progress)
	}
	if snap.Annotation != "rate: 2.00MB/s" {
		t.Fatalf("annotation = %q", snap.Annotation)
	}
}

func TestDownloadCompletedRecordsOutput(t *testing.T) {
	tk := NewDownloadTask("download", "/work/replay.ts")
	events := tk.Events()
	tk.Bind(&fakeSession{})
	tk.Exec()

	events.Completed("/work/replay.ts")
	snap := tk.Snapshot()
	if snap.Status != StatusCompleted || snap.Output != "/work/replay.ts" {
		t.Fatalf("unexpected final snapshot: %+v", snap)
	}
}

func TestDownloadActionsAllowPauseAndKill(t *testing.T) {
	tk := NewDownloadTask("download", "/work/replay.ts")
	snap := tk.Snapshot()
	if len(snap.Actions) != 2 || snap.Actions[0] != ActionPause || snap.Actions[1] != ActionKill {
		t.Fatalf("actions = %v", snap.Actions)
	}
}
