package daemon

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"aftercast/internal/session"
	"aftercast/internal/task"
)

// newAPIRouter builds the local control surface. It is meant for loopback
// use by the CLI and carries no authentication.
func newAPIRouter(d *Daemon) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/api/status", d.handleStatus)
	r.Get("/api/sessions", d.handleSessions)
	r.Get("/api/tasks", d.handleTasks)
	r.Route("/api/tasks/{id}", func(r chi.Router) {
		r.Get("/", d.handleTask)
		r.Delete("/", d.handleTaskRemove)
		r.Post("/start", d.taskAction(func(q *task.Queue, id string) bool { return q.Start(id) }))
		r.Post("/pause", d.taskAction(func(q *task.Queue, id string) bool { return q.Pause(id) }))
		r.Post("/resume", d.taskAction(func(q *task.Queue, id string) bool { return q.Resume(id) }))
		r.Post("/kill", d.taskAction(func(q *task.Queue, id string) bool { return q.Kill(id) }))
	})
	return r
}

type statusResponse struct {
	Running  bool `json:"running"`
	Sessions int  `json:"sessions"`
	Tasks    int  `json:"tasks"`
}

func (d *Daemon) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Running:  d.Running(),
		Sessions: len(d.tracker.Sessions()),
		Tasks:    len(d.queue.List()),
	})
}

type partResponse struct {
	ID        string     `json:"id"`
	FilePath  string     `json:"filePath"`
	Status    string     `json:"status"`
	StartTime *time.Time `json:"startTime,omitempty"`
	EndTime   *time.Time `json:"endTime,omitempty"`
}

type sessionResponse struct {
	ID        string         `json:"id"`
	Platform  string         `json:"platform"`
	RoomID    int64          `json:"roomId"`
	Title     string         `json:"title,omitempty"`
	ArchiveID int64          `json:"archiveId,omitempty"`
	StartTime *time.Time     `json:"startTime,omitempty"`
	Parts     []partResponse `json:"parts"`
}

func (d *Daemon) handleSessions(w http.ResponseWriter, _ *http.Request) {
	views := d.tracker.Sessions()
	out := make([]sessionResponse, 0, len(views))
	for _, view := range views {
		out = append(out, toSessionResponse(view))
	}
	writeJSON(w, http.StatusOK, out)
}

func toSessionResponse(view session.SessionView) sessionResponse {
	parts := make([]partResponse, 0, len(view.Parts))
	for _, part := range view.Parts {
		parts = append(parts, partResponse{
			ID:        part.ID,
			FilePath:  part.FilePath,
			Status:    string(part.Status),
			StartTime: part.StartTime,
			EndTime:   part.EndTime,
		})
	}
	return sessionResponse{
		ID:        view.ID,
		Platform:  view.Platform,
		RoomID:    view.RoomID,
		Title:     view.Title,
		ArchiveID: view.ArchiveID,
		StartTime: view.StartTime,
		Parts:     parts,
	}
}

func (d *Daemon) handleTasks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, d.queue.Snapshots())
}

func (d *Daemon) handleTask(w http.ResponseWriter, r *http.Request) {
	t, ok := d.queue.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, t.Snapshot())
}

func (d *Daemon) handleTaskRemove(w http.ResponseWriter, r *http.Request) {
	if !d.queue.Remove(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": true})
}

func (d *Daemon) taskAction(apply func(q *task.Queue, id string) bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, ok := d.queue.Get(id); !ok {
			writeError(w, http.StatusNotFound, "task not found")
			return
		}
		applied := apply(d.queue, id)
		writeJSON(w, http.StatusOK, map[string]bool{"applied": applied})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
