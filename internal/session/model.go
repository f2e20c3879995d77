package session

import (
	"time"

	"github.com/google/uuid"
)

// PartStatus is the processing state of one recorded file segment.
type PartStatus string

const (
	PartRecording PartStatus = "recording"
	PartRecorded  PartStatus = "recorded"
	PartHandled   PartStatus = "handled"
	PartUploading PartStatus = "uploading"
	PartUploaded  PartStatus = "uploaded"
	PartError     PartStatus = "error"
)

var partRank = map[PartStatus]int{
	PartRecording: 0,
	PartRecorded:  1,
	PartHandled:   2,
	PartUploading: 3,
	PartUploaded:  4,
}

// IsTerminal reports whether the part can change status again.
func (s PartStatus) IsTerminal() bool {
	return s == PartUploaded || s == PartError
}

// canAdvanceTo enforces the forward-only ordering. Error is reachable from
// any non-terminal status.
func (s PartStatus) canAdvanceTo(next PartStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next == PartError {
		return true
	}
	cur, ok := partRank[s]
	if !ok {
		return false
	}
	target, ok := partRank[next]
	if !ok {
		return false
	}
	return target > cur
}

// part is one recorded file segment. Times are pointers because synthesized
// parts have no observed start and recording parts no end yet.
type part struct {
	id        string
	filePath  string
	startTime *time.Time
	endTime   *time.Time
	status    PartStatus
}

// live is one logical broadcast, possibly spanning several recorded files.
// streamTitle is the title as observed from the recorder; title is the
// rendered upload title and stays empty until the first close renders it.
type live struct {
	id          string
	platform    string
	roomID      int64
	startTime   *time.Time
	streamTitle string
	title       string
	username    string
	archiveID   int64
	parts       []*part
}

func newPartID() string { return uuid.NewString() }

func newLive(platform string, roomID int64, streamTitle, username string, start *time.Time) *live {
	return &live{
		id:          uuid.NewString(),
		platform:    platform,
		roomID:      roomID,
		startTime:   start,
		streamTitle: streamTitle,
		username:    username,
	}
}

func (l *live) lastPart() *part {
	if len(l.parts) == 0 {
		return nil
	}
	return l.parts[len(l.parts)-1]
}

// PartView is a read-only copy of a part handed across the tracker boundary.
type PartView struct {
	ID        string
	SessionID string
	FilePath  string
	StartTime *time.Time
	EndTime   *time.Time
	Status    PartStatus
}

// SessionView is a read-only copy of a session and its parts. StreamTitle is
// what the recorder reported; Title is the rendered upload title, empty until
// set.
type SessionView struct {
	ID          string
	Platform    string
	RoomID      int64
	StartTime   *time.Time
	StreamTitle string
	Title       string
	Username    string
	ArchiveID   int64
	Parts       []PartView
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func (p *part) view(sessionID string) PartView {
	return PartView{
		ID:        p.id,
		SessionID: sessionID,
		FilePath:  p.filePath,
		StartTime: copyTime(p.startTime),
		EndTime:   copyTime(p.endTime),
		Status:    p.status,
	}
}

func (l *live) view() SessionView {
	parts := make([]PartView, 0, len(l.parts))
	for _, p := range l.parts {
		parts = append(parts, p.view(l.id))
	}
	return SessionView{
		ID:          l.id,
		Platform:    l.platform,
		RoomID:      l.roomID,
		StartTime:   copyTime(l.startTime),
		StreamTitle: l.streamTitle,
		Title:       l.title,
		Username:    l.username,
		ArchiveID:   l.archiveID,
		Parts:       parts,
	}
}

// HandledPrefix returns the contiguous run of handled parts due for upload.
// Parts at the front that already made it to the remote archive are skipped
// so later parts can still be appended; past those, the run never reaches
// beyond the first part that is not yet handled.
func (v SessionView) HandledPrefix() []PartView {
	i := 0
	for i < len(v.Parts) && v.Parts[i].Status == PartUploaded {
		i++
	}
	var prefix []PartView
	for ; i < len(v.Parts); i++ {
		if v.Parts[i].Status != PartHandled {
			break
		}
		prefix = append(prefix, v.Parts[i])
	}
	return prefix
}
