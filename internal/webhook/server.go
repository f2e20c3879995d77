package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"aftercast/internal/config"
	"aftercast/internal/logging"
	"aftercast/internal/platform"
	"aftercast/internal/session"
)

// Platform tags distinguish which recording agent produced an event.
const (
	PlatformRecorder = "bili-recorder"
	PlatformBlrec    = "blrec"
)

// Handler consumes normalized recording-lifecycle events. HandleClose may
// kick off long-running work but must return promptly; the HTTP response
// does not wait for post-processing.
type Handler interface {
	HandleOpen(ctx context.Context, obs session.Observation)
	HandleClose(ctx context.Context, obs session.Observation)
}

// Server normalizes the two upstream webhook shapes into observations and
// feeds them to the handler. Both endpoints always answer 200 "ok"; the
// recording agents treat anything else as fatal and disable the hook.
type Server struct {
	recorderDir string
	handler     Handler
	client      platform.Client
	logger      *slog.Logger
}

// NewServer wires the ingestion endpoints.
func NewServer(cfg *config.Config, handler Handler, client platform.Client, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Server{
		recorderDir: cfg.Paths.RecorderDir,
		handler:     handler,
		client:      client,
		logger:      logging.WithComponent(logger, "webhook"),
	}
}

// Router builds the HTTP surface.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/", s.handleHealth)
	r.Post("/webhook", s.handleRecorder)
	r.Post("/blrec", s.handleBlrec)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeOK(w)
}

// recorderEvent is the payload shape posted by the recorder agent.
type recorderEvent struct {
	EventType      string `json:"EventType"`
	EventTimestamp string `json:"EventTimestamp"`
	EventData      struct {
		RoomID       int64  `json:"RoomId"`
		RelativePath string `json:"RelativePath"`
		Title        string `json:"Title"`
		Name         string `json:"Name"`
	} `json:"EventData"`
}

func (s *Server) handleRecorder(w http.ResponseWriter, r *http.Request) {
	var event recorderEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		s.logger.Warn("recorder payload rejected", slog.String("error", err.Error()))
		writeOK(w)
		return
	}
	s.logger.Info("recorder event",
		slog.String("event", event.EventType),
		slog.Int64("room_id", event.EventData.RoomID),
		slog.String("path", event.EventData.RelativePath))

	obs := session.Observation{
		Platform: PlatformRecorder,
		RoomID:   event.EventData.RoomID,
		FilePath: filepath.Join(s.recorderDir, event.EventData.RelativePath),
		Title:    event.EventData.Title,
		Username: event.EventData.Name,
		At:       parseEventTime(event.EventTimestamp),
	}
	switch event.EventType {
	case "FileOpening":
		s.handler.HandleOpen(r.Context(), obs)
	case "FileClosed":
		s.handler.HandleClose(r.Context(), obs)
	}
	writeOK(w)
}

// blrecEvent is the payload shape posted by blrec.
type blrecEvent struct {
	Type string `json:"type"`
	Date string `json:"date"`
	Data struct {
		RoomID int64  `json:"room_id"`
		Path   string `json:"path"`
	} `json:"data"`
}

func (s *Server) handleBlrec(w http.ResponseWriter, r *http.Request) {
	var event blrecEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		s.logger.Warn("blrec payload rejected", slog.String("error", err.Error()))
		writeOK(w)
		return
	}
	s.logger.Info("blrec event",
		slog.String("event", event.Type),
		slog.Int64("room_id", event.Data.RoomID),
		slog.String("path", event.Data.Path))

	if event.Type != "VideoFileCreatedEvent" && event.Type != "VideoFileCompletedEvent" {
		writeOK(w)
		return
	}

	// blrec carries no display metadata; look it up from the platform.
	title, username := s.lookupRoom(r.Context(), event.Data.RoomID)
	obs := session.Observation{
		Platform: PlatformBlrec,
		RoomID:   event.Data.RoomID,
		FilePath: event.Data.Path,
		Title:    title,
		Username: username,
		At:       parseEventTime(event.Date),
	}
	if event.Type == "VideoFileCreatedEvent" {
		s.handler.HandleOpen(r.Context(), obs)
	} else {
		s.handler.HandleClose(r.Context(), obs)
	}
	writeOK(w)
}

func (s *Server) lookupRoom(ctx context.Context, roomID int64) (title, username string) {
	if s.client == nil {
		return "", ""
	}
	room, err := s.client.RoomInfo(ctx, roomID)
	if err != nil {
		s.logger.Warn("room lookup failed",
			slog.Int64("room_id", roomID),
			slog.String("error", err.Error()))
		return "", ""
	}
	streamer, err := s.client.StreamerInfo(ctx, room.UID)
	if err != nil {
		s.logger.Warn("streamer lookup failed",
			slog.Int64("uid", room.UID),
			slog.String("error", err.Error()))
		return room.Title, ""
	}
	return room.Title, streamer.Name
}

// parseEventTime accepts the timestamp shapes the two agents emit. An
// unparseable value falls back to the current time rather than dropping the
// event.
func parseEventTime(value string) time.Time {
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		if at, err := time.Parse(layout, value); err == nil {
			return at
		}
	}
	return time.Now()
}

func writeOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
