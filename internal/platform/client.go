package platform

import (
	"context"
	"errors"
	"net/http"
	"time"

	"aftercast/internal/config"
)

// ErrNotFound is returned when the platform has no record for a lookup.
var ErrNotFound = errors.New("platform: not found")

// HTTPDoer describes the HTTP client used by the platform service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RoomInfo describes a live room.
type RoomInfo struct {
	RoomID int64  `json:"room_id"`
	UID    int64  `json:"uid"`
	Title  string `json:"title"`
}

// StreamerInfo describes the user behind a room.
type StreamerInfo struct {
	UID  int64  `json:"uid"`
	Name string `json:"name"`
}

// Archive is one entry of the recent-archive listing.
type Archive struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// UploadOptions carries the submission metadata for a fresh archive upload.
type UploadOptions struct {
	Title  string
	Preset config.UploadPreset
}

// UploadEvents receives upload session notifications. Progress carries the
// fraction of bytes sent (0..1).
type UploadEvents struct {
	Progress  func(fraction float64)
	Completed func()
	Error     func(err error)
}

// DownloadSample is one point of the download byte stream. Percent is the
// coarse completion estimate derived from segment position.
type DownloadSample struct {
	Loaded  int64
	At      time.Time
	Percent float64
}

// DownloadEvents receives download session notifications.
type DownloadEvents struct {
	Progress  func(sample DownloadSample)
	Completed func(output string)
	Error     func(err error)
}

// Session controls one asynchronous transfer.
type Session interface {
	Start()
	Pause()
	Resume()
	Cancel()
}

// Client defines the platform operations the pipeline consumes.
type Client interface {
	RoomInfo(ctx context.Context, roomID int64) (RoomInfo, error)
	StreamerInfo(ctx context.Context, uid int64) (StreamerInfo, error)
	RecentArchives(ctx context.Context) ([]Archive, error)
	NewUpload(ctx context.Context, files []string, opts UploadOptions, events UploadEvents) (Session, error)
	NewAppend(ctx context.Context, archiveID int64, files []string, events UploadEvents) (Session, error)
	NewDownload(ctx context.Context, playlistURL, output string, events DownloadEvents) (Session, error)
}
