package session

import (
	"testing"
	"time"
)

var trackerEpoch = time.Date(2026, time.January, 10, 20, 0, 0, 0, time.UTC)

func openAt(t *testing.T, tr *Tracker, room int64, path string, at time.Time) PartView {
	t.Helper()
	return tr.OpenPart(Observation{
		Platform: "bilibili",
		RoomID:   room,
		FilePath: path,
		Title:    "stream",
		Username: "streamer",
		At:       at,
	})
}

func closeAt(t *testing.T, tr *Tracker, room int64, path string, at time.Time) PartView {
	t.Helper()
	return tr.ClosePart(Observation{
		Platform: "bilibili",
		RoomID:   room,
		FilePath: path,
		At:       at,
	})
}

func TestOpenWithinWindowAppendsToSameSession(t *testing.T) {
	tr := NewTracker(10*time.Minute, nil)

	first := openAt(t, tr, 5, "/rec/a.flv", trackerEpoch)
	closeAt(t, tr, 5, "/rec/a.flv", trackerEpoch.Add(4*time.Minute))

	second := openAt(t, tr, 5, "/rec/b.flv", trackerEpoch.Add(5*time.Minute))
	if second.SessionID != first.SessionID {
		t.Fatal("part within the window must join the existing session")
	}

	closeAt(t, tr, 5, "/rec/b.flv", trackerEpoch.Add(6*time.Minute))
	third := openAt(t, tr, 5, "/rec/c.flv", trackerEpoch.Add(25*time.Minute))
	if third.SessionID == first.SessionID {
		t.Fatal("part past the window must open a new session")
	}

	sessions := tr.Sessions()
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if got := len(sessions[0].Parts); got != 2 {
		t.Fatalf("first session has %d parts", got)
	}
	if sessions[0].Parts[0].FilePath != "/rec/a.flv" || sessions[0].Parts[1].FilePath != "/rec/b.flv" {
		t.Fatal("parts out of arrival order")
	}
}

func TestOpenMatchesOnlySameRoomAndPlatform(t *testing.T) {
	tr := NewTracker(10*time.Minute, nil)
	first := openAt(t, tr, 5, "/rec/a.flv", trackerEpoch)

	other := tr.OpenPart(Observation{
		Platform: "blrec",
		RoomID:   5,
		FilePath: "/rec/other.flv",
		At:       trackerEpoch.Add(time.Minute),
	})
	if other.SessionID == first.SessionID {
		t.Fatal("different platform must not join the session")
	}

	room9 := openAt(t, tr, 9, "/rec/nine.flv", trackerEpoch.Add(time.Minute))
	if room9.SessionID == first.SessionID {
		t.Fatal("different room must not join the session")
	}
}

func TestOpenJoinsSessionWithPartStillRecording(t *testing.T) {
	tr := NewTracker(10*time.Minute, nil)
	first := openAt(t, tr, 5, "/rec/a.flv", trackerEpoch)
	// no close for a.flv; the broadcast is still live
	second := openAt(t, tr, 5, "/rec/b.flv", trackerEpoch.Add(time.Hour))
	if second.SessionID != first.SessionID {
		t.Fatal("open against a still-recording session must join it")
	}
}

func TestCloseMatchesByExactPath(t *testing.T) {
	tr := NewTracker(10*time.Minute, nil)
	openAt(t, tr, 5, "/rec/a.flv", trackerEpoch)
	openAt(t, tr, 5, "/rec/b.flv", trackerEpoch.Add(time.Minute))

	closed := closeAt(t, tr, 5, "/rec/a.flv", trackerEpoch.Add(2*time.Minute))
	if closed.Status != PartRecorded {
		t.Fatalf("closed part status = %s", closed.Status)
	}
	if closed.EndTime == nil || !closed.EndTime.Equal(trackerEpoch.Add(2*time.Minute)) {
		t.Fatal("closed part missing end time")
	}

	view, _ := tr.Session(closed.SessionID)
	if view.Parts[1].Status != PartRecording {
		t.Fatal("sibling part must stay untouched")
	}
	if view.Parts[1].EndTime != nil {
		t.Fatal("sibling part gained an end time")
	}
}

func TestCloseWithoutOpenSynthesizesSession(t *testing.T) {
	tr := NewTracker(10*time.Minute, nil)
	closed := closeAt(t, tr, 5, "/rec/rec_042.flv", trackerEpoch)

	if closed.Status != PartRecorded {
		t.Fatalf("synthesized part status = %s", closed.Status)
	}
	if closed.StartTime != nil {
		t.Fatal("synthesized part must have no start time")
	}
	view, ok := tr.Session(closed.SessionID)
	if !ok || len(view.Parts) != 1 {
		t.Fatal("expected a one-part synthesized session")
	}
	if view.StartTime != nil {
		t.Fatal("synthesized session must have no start time")
	}
}

func TestSetPartStatusEnforcesOrdering(t *testing.T) {
	tr := NewTracker(10*time.Minute, nil)
	p := openAt(t, tr, 5, "/rec/a.flv", trackerEpoch)
	closeAt(t, tr, 5, "/rec/a.flv", trackerEpoch.Add(time.Minute))

	steps := []PartStatus{PartHandled, PartUploading, PartUploaded}
	for _, next := range steps {
		if err := tr.SetPartStatus(p.SessionID, p.ID, next); err != nil {
			t.Fatalf("advance to %s: %v", next, err)
		}
	}
	if err := tr.SetPartStatus(p.SessionID, p.ID, PartHandled); err == nil {
		t.Fatal("regression from uploaded must be rejected")
	}
	if err := tr.SetPartStatus(p.SessionID, p.ID, PartError); err == nil {
		t.Fatal("uploaded is terminal, error must be rejected")
	}
}

func TestSetPartStatusErrorFromNonTerminal(t *testing.T) {
	tr := NewTracker(10*time.Minute, nil)
	p := openAt(t, tr, 5, "/rec/a.flv", trackerEpoch)
	closeAt(t, tr, 5, "/rec/a.flv", trackerEpoch.Add(time.Minute))
	if err := tr.SetPartStatus(p.SessionID, p.ID, PartUploading); err != nil {
		t.Fatalf("advance to uploading: %v", err)
	}
	if err := tr.SetPartStatus(p.SessionID, p.ID, PartError); err != nil {
		t.Fatalf("uploading must downgrade to error: %v", err)
	}
	if err := tr.SetPartStatus(p.SessionID, p.ID, PartUploaded); err == nil {
		t.Fatal("error is terminal")
	}
}

func TestOpenKeepsStreamTitleSeparateFromUploadTitle(t *testing.T) {
	tr := NewTracker(10*time.Minute, nil)
	p := openAt(t, tr, 5, "/rec/a.flv", trackerEpoch)

	view, _ := tr.Session(p.SessionID)
	if view.StreamTitle != "stream" {
		t.Fatalf("stream title = %q", view.StreamTitle)
	}
	if view.Title != "" {
		t.Fatalf("upload title set before rendering: %q", view.Title)
	}

	if err := tr.SetTitle(p.SessionID, "stream 2026.01.10"); err != nil {
		t.Fatal(err)
	}
	view, _ = tr.Session(p.SessionID)
	if view.Title != "stream 2026.01.10" || view.StreamTitle != "stream" {
		t.Fatalf("titles = %q / %q", view.Title, view.StreamTitle)
	}
}

func TestSetPartPathAndArchiveID(t *testing.T) {
	tr := NewTracker(10*time.Minute, nil)
	p := openAt(t, tr, 5, "/rec/a.flv", trackerEpoch)

	if err := tr.SetPartPath(p.SessionID, p.ID, "/rec/a-overlay.mp4"); err != nil {
		t.Fatalf("set part path: %v", err)
	}
	if err := tr.SetArchiveID(p.SessionID, 4200); err != nil {
		t.Fatalf("set archive id: %v", err)
	}
	if err := tr.SetTitle(p.SessionID, "stream 2026.01.10"); err != nil {
		t.Fatalf("set title: %v", err)
	}

	view, _ := tr.Session(p.SessionID)
	if view.Parts[0].FilePath != "/rec/a-overlay.mp4" {
		t.Fatalf("file path = %q", view.Parts[0].FilePath)
	}
	if view.ArchiveID != 4200 || view.Title != "stream 2026.01.10" {
		t.Fatalf("session view = %+v", view)
	}

	if err := tr.SetPartPath("missing", p.ID, "x"); err == nil {
		t.Fatal("unknown session must error")
	}
}

func TestHandledPrefixStopsAtFirstUnhandledPart(t *testing.T) {
	view := SessionView{Parts: []PartView{
		{ID: "1", Status: PartHandled},
		{ID: "2", Status: PartHandled},
		{ID: "3", Status: PartRecorded},
		{ID: "4", Status: PartHandled},
	}}
	prefix := view.HandledPrefix()
	if len(prefix) != 2 || prefix[0].ID != "1" || prefix[1].ID != "2" {
		t.Fatalf("prefix = %+v", prefix)
	}

	view.Parts[0].Status = PartUploading
	if got := view.HandledPrefix(); len(got) != 0 {
		t.Fatalf("prefix with upload in flight = %+v", got)
	}
}

func TestHandledPrefixSkipsAlreadyUploadedParts(t *testing.T) {
	view := SessionView{Parts: []PartView{
		{ID: "1", Status: PartUploaded},
		{ID: "2", Status: PartUploaded},
		{ID: "3", Status: PartHandled},
		{ID: "4", Status: PartHandled},
		{ID: "5", Status: PartRecorded},
		{ID: "6", Status: PartHandled},
	}}
	prefix := view.HandledPrefix()
	if len(prefix) != 2 || prefix[0].ID != "3" || prefix[1].ID != "4" {
		t.Fatalf("prefix = %+v", prefix)
	}

	// a gap between uploaded and handled still blocks everything after it
	view.Parts[2].Status = PartRecorded
	if got := view.HandledPrefix(); len(got) != 0 {
		t.Fatalf("prefix past a gap = %+v", got)
	}

	allDone := SessionView{Parts: []PartView{
		{ID: "1", Status: PartUploaded},
		{ID: "2", Status: PartUploaded},
	}}
	if got := allDone.HandledPrefix(); len(got) != 0 {
		t.Fatalf("fully uploaded session yielded prefix = %+v", got)
	}
}
