package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"aftercast/internal/logging"
)

// DefaultProximityWindow is the maximum gap between a part's end and the
// next part's start for both to belong to the same session.
const DefaultProximityWindow = 10 * time.Minute

// ErrNotFound is returned when a session or part id is unknown.
var ErrNotFound = errors.New("session: not found")

// Observation is one normalized recording-lifecycle event.
type Observation struct {
	Platform string
	RoomID   int64
	FilePath string
	Title    string
	Username string
	At       time.Time
}

// Tracker correlates file-open and file-close observations into sessions
// with ordered parts. It exclusively owns the session collection; callers
// receive copies and mutate through tracker methods.
type Tracker struct {
	mu       sync.Mutex
	window   time.Duration
	sessions []*live
	logger   *slog.Logger
}

// NewTracker constructs a tracker. A non-positive window falls back to the
// default ten minutes.
func NewTracker(window time.Duration, logger *slog.Logger) *Tracker {
	if window <= 0 {
		window = DefaultProximityWindow
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Tracker{
		window: window,
		logger: logging.WithComponent(logger, "tracker"),
	}
}

// OpenPart records a file-opened observation. It appends a recording part to
// the session for the same room and platform whose latest part ended within
// the proximity window, or creates a new session when none qualifies. A
// session with a part still recording also matches: the broadcast is plainly
// not over yet.
func (t *Tracker) OpenPart(obs Observation) PartView {
	t.mu.Lock()
	defer t.mu.Unlock()

	target := t.findProximateLocked(obs)
	if target == nil {
		start := obs.At
		target = newLive(obs.Platform, obs.RoomID, obs.Title, obs.Username, &start)
		t.sessions = append(t.sessions, target)
		t.logger.Info("session opened",
			slog.String("session_id", target.id),
			slog.String("platform", obs.Platform),
			slog.Int64("room_id", obs.RoomID))
	}

	start := obs.At
	p := &part{
		id:        newPartID(),
		filePath:  obs.FilePath,
		startTime: &start,
		status:    PartRecording,
	}
	target.parts = append(target.parts, p)
	t.logger.Info("part opened",
		slog.String("session_id", target.id),
		slog.String("part_id", p.id),
		slog.String("file", obs.FilePath))
	return p.view(target.id)
}

// ClosePart records a file-closed observation. The part is located by exact
// file path; when no open part matches (for example after a restart) a new
// session is synthesized on the spot with a sole recorded part that has no
// start time.
func (t *Tracker) ClosePart(obs Observation) PartView {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, l := range t.sessions {
		for _, p := range l.parts {
			if p.filePath != obs.FilePath {
				continue
			}
			end := obs.At
			p.endTime = &end
			if p.status.canAdvanceTo(PartRecorded) {
				p.status = PartRecorded
			}
			t.logger.Info("part closed",
				slog.String("session_id", l.id),
				slog.String("part_id", p.id),
				slog.String("file", obs.FilePath))
			return p.view(l.id)
		}
	}

	l := newLive(obs.Platform, obs.RoomID, obs.Title, obs.Username, nil)
	end := obs.At
	p := &part{
		id:       newPartID(),
		filePath: obs.FilePath,
		endTime:  &end,
		status:   PartRecorded,
	}
	l.parts = append(l.parts, p)
	t.sessions = append(t.sessions, l)
	t.logger.Warn("close without matching open, session synthesized",
		slog.String("session_id", l.id),
		slog.String("file", obs.FilePath))
	return p.view(l.id)
}

func (t *Tracker) findProximateLocked(obs Observation) *live {
	for i := len(t.sessions) - 1; i >= 0; i-- {
		l := t.sessions[i]
		if l.roomID != obs.RoomID || l.platform != obs.Platform {
			continue
		}
		last := l.lastPart()
		if last == nil {
			continue
		}
		if last.endTime == nil {
			return l
		}
		gap := obs.At.Sub(*last.endTime)
		if gap < 0 {
			gap = -gap
		}
		if gap <= t.window {
			return l
		}
	}
	return nil
}

// Session returns a copy of one session.
func (t *Tracker) Session(id string) (SessionView, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	l := t.sessionLocked(id)
	if l == nil {
		return SessionView{}, false
	}
	return l.view(), true
}

// Sessions returns a copy of every session in creation order.
func (t *Tracker) Sessions() []SessionView {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]SessionView, 0, len(t.sessions))
	for _, l := range t.sessions {
		out = append(out, l.view())
	}
	return out
}

// SetPartStatus advances a part's status. The forward-only ordering is
// enforced; a rejected transition returns an error and leaves the part
// untouched.
func (t *Tracker) SetPartStatus(sessionID, partID string, status PartStatus) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.partLocked(sessionID, partID)
	if p == nil {
		return ErrNotFound
	}
	if !p.status.canAdvanceTo(status) {
		return fmt.Errorf("session: part %s cannot move %s -> %s", partID, p.status, status)
	}
	p.status = status
	return nil
}

// SetPartPath repoints a part at a new file, used after overlay and merge
// replace the original recording.
func (t *Tracker) SetPartPath(sessionID, partID, path string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.partLocked(sessionID, partID)
	if p == nil {
		return ErrNotFound
	}
	p.filePath = path
	return nil
}

// SetTitle records the rendered upload title for the session.
func (t *Tracker) SetTitle(sessionID, title string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	l := t.sessionLocked(sessionID)
	if l == nil {
		return ErrNotFound
	}
	l.title = title
	return nil
}

// SetArchiveID records the remote archive identifier once reconciliation
// succeeds.
func (t *Tracker) SetArchiveID(sessionID string, archiveID int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	l := t.sessionLocked(sessionID)
	if l == nil {
		return ErrNotFound
	}
	l.archiveID = archiveID
	return nil
}

func (t *Tracker) sessionLocked(id string) *live {
	for _, l := range t.sessions {
		if l.id == id {
			return l
		}
	}
	return nil
}

func (t *Tracker) partLocked(sessionID, partID string) *part {
	l := t.sessionLocked(sessionID)
	if l == nil {
		return nil
	}
	for _, p := range l.parts {
		if p.id == partID {
			return p
		}
	}
	return nil
}
