package webhook_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aftercast/internal/config"
	"aftercast/internal/platform"
	"aftercast/internal/session"
	"aftercast/internal/webhook"
)

type recordedCall struct {
	kind string
	obs  session.Observation
}

type fakeHandler struct {
	calls []recordedCall
}

func (h *fakeHandler) HandleOpen(_ context.Context, obs session.Observation) {
	h.calls = append(h.calls, recordedCall{kind: "open", obs: obs})
}

func (h *fakeHandler) HandleClose(_ context.Context, obs session.Observation) {
	h.calls = append(h.calls, recordedCall{kind: "close", obs: obs})
}

type fakeClient struct {
	platform.Client
	room     platform.RoomInfo
	streamer platform.StreamerInfo
	roomErr  error
}

func (c *fakeClient) RoomInfo(context.Context, int64) (platform.RoomInfo, error) {
	return c.room, c.roomErr
}

func (c *fakeClient) StreamerInfo(context.Context, int64) (platform.StreamerInfo, error) {
	return c.streamer, nil
}

func newTestServer(t *testing.T, handler webhook.Handler, client platform.Client) *httptest.Server {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.RecorderDir = "/rec"
	srv := webhook.NewServer(&cfg, handler, client, nil)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t, &fakeHandler{}, nil)
	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestRecorderFileOpening(t *testing.T) {
	handler := &fakeHandler{}
	ts := newTestServer(t, handler, nil)

	resp := postJSON(t, ts.URL+"/webhook", `{
		"EventType": "FileOpening",
		"EventTimestamp": "2026-01-10T20:00:00+08:00",
		"EventData": {
			"RoomId": 5,
			"RelativePath": "5/rec_001.flv",
			"Title": "Late Night Coding",
			"Name": "streamer"
		}
	}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, handler.calls, 1)
	call := handler.calls[0]
	assert.Equal(t, "open", call.kind)
	assert.Equal(t, webhook.PlatformRecorder, call.obs.Platform)
	assert.Equal(t, int64(5), call.obs.RoomID)
	assert.Equal(t, filepath.Join("/rec", "5/rec_001.flv"), call.obs.FilePath)
	assert.Equal(t, "Late Night Coding", call.obs.Title)
	assert.Equal(t, "streamer", call.obs.Username)
	want, _ := time.Parse(time.RFC3339, "2026-01-10T20:00:00+08:00")
	assert.True(t, call.obs.At.Equal(want))
}

func TestRecorderFileClosed(t *testing.T) {
	handler := &fakeHandler{}
	ts := newTestServer(t, handler, nil)

	resp := postJSON(t, ts.URL+"/webhook", `{
		"EventType": "FileClosed",
		"EventTimestamp": "2026-01-10T21:00:00+08:00",
		"EventData": {"RoomId": 5, "RelativePath": "5/rec_001.flv"}
	}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, handler.calls, 1)
	assert.Equal(t, "close", handler.calls[0].kind)
}

func TestRecorderIgnoresOtherEvents(t *testing.T) {
	handler := &fakeHandler{}
	ts := newTestServer(t, handler, nil)

	resp := postJSON(t, ts.URL+"/webhook", `{"EventType": "StreamStarted", "EventData": {"RoomId": 5}}`)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
	assert.Empty(t, handler.calls)
}

func TestRecorderMalformedBodyStillOK(t *testing.T) {
	handler := &fakeHandler{}
	ts := newTestServer(t, handler, nil)

	resp := postJSON(t, ts.URL+"/webhook", `{not json`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, handler.calls)
}

func TestBlrecLooksUpRoomMetadata(t *testing.T) {
	handler := &fakeHandler{}
	client := &fakeClient{
		room:     platform.RoomInfo{RoomID: 5, UID: 77, Title: "Late Night Coding"},
		streamer: platform.StreamerInfo{UID: 77, Name: "streamer"},
	}
	ts := newTestServer(t, handler, client)

	resp := postJSON(t, ts.URL+"/blrec", `{
		"type": "VideoFileCompletedEvent",
		"date": "2026-01-10T20:00:00+08:00",
		"data": {"room_id": 5, "path": "/blrec/rec_001.flv"}
	}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, handler.calls, 1)
	call := handler.calls[0]
	assert.Equal(t, "close", call.kind)
	assert.Equal(t, webhook.PlatformBlrec, call.obs.Platform)
	assert.Equal(t, "/blrec/rec_001.flv", call.obs.FilePath)
	assert.Equal(t, "Late Night Coding", call.obs.Title)
	assert.Equal(t, "streamer", call.obs.Username)
}

func TestBlrecLookupFailureStillDispatches(t *testing.T) {
	handler := &fakeHandler{}
	client := &fakeClient{roomErr: platform.ErrNotFound}
	ts := newTestServer(t, handler, client)

	resp := postJSON(t, ts.URL+"/blrec", `{
		"type": "VideoFileCreatedEvent",
		"date": "2026-01-10T20:00:00+08:00",
		"data": {"room_id": 5, "path": "/blrec/rec_001.flv"}
	}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, handler.calls, 1)
	assert.Equal(t, "open", handler.calls[0].kind)
	assert.Empty(t, handler.calls[0].obs.Title)
}
