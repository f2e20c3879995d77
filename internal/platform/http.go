package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"aftercast/internal/config"
)

type httpClient struct {
	baseURL string
	cookie  string
	client  HTTPDoer
}

// NewHTTPClient constructs a platform client against baseURL. A nil doer
// falls back to a timeout-bounded default client.
func NewHTTPClient(baseURL, cookie string, doer HTTPDoer) Client {
	if doer == nil {
		doer = &http.Client{Timeout: 30 * time.Second}
	}
	return &httpClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		cookie:  strings.TrimSpace(cookie),
		client:  doer,
	}
}

// NewConfiguredClient builds a client from application config.
func NewConfiguredClient(cfg *config.Config) Client {
	timeout := time.Duration(cfg.Platform.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return NewHTTPClient(cfg.Platform.BaseURL, cfg.Platform.Cookie, &http.Client{Timeout: timeout})
}

func (c *httpClient) RoomInfo(ctx context.Context, roomID int64) (RoomInfo, error) {
	var payload struct {
		Data RoomInfo `json:"data"`
	}
	query := url.Values{"room_id": {fmt.Sprint(roomID)}}
	if err := c.getJSON(ctx, "/room/info", query, &payload); err != nil {
		return RoomInfo{}, fmt.Errorf("room info: %w", err)
	}
	return payload.Data, nil
}

func (c *httpClient) StreamerInfo(ctx context.Context, uid int64) (StreamerInfo, error) {
	var payload struct {
		Data StreamerInfo `json:"data"`
	}
	query := url.Values{"uid": {fmt.Sprint(uid)}}
	if err := c.getJSON(ctx, "/user/info", query, &payload); err != nil {
		return StreamerInfo{}, fmt.Errorf("streamer info: %w", err)
	}
	return payload.Data, nil
}

func (c *httpClient) RecentArchives(ctx context.Context) ([]Archive, error) {
	var payload struct {
		Data struct {
			Archives []Archive `json:"archives"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, "/archives/recent", nil, &payload); err != nil {
		return nil, fmt.Errorf("recent archives: %w", err)
	}
	return payload.Data.Archives, nil
}

func (c *httpClient) NewUpload(ctx context.Context, files []string, opts UploadOptions, events UploadEvents) (Session, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("upload: no files")
	}
	form := url.Values{
		"title":     {opts.Title},
		"category":  {fmt.Sprint(opts.Preset.Category)},
		"copyright": {fmt.Sprint(opts.Preset.Copyright)},
		"tags":      {strings.Join(opts.Preset.Tags, ",")},
	}
	if opts.Preset.Description != "" {
		form.Set("description", opts.Preset.Description)
	}
	if opts.Preset.Source != "" {
		form.Set("source", opts.Preset.Source)
	}
	endpoint := c.baseURL + "/archive/upload?" + form.Encode()
	return newUploadSession(ctx, c, endpoint, files, events), nil
}

func (c *httpClient) NewAppend(ctx context.Context, archiveID int64, files []string, events UploadEvents) (Session, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("append: no files")
	}
	endpoint := fmt.Sprintf("%s/archive/%d/append", c.baseURL, archiveID)
	return newUploadSession(ctx, c, endpoint, files, events), nil
}

func (c *httpClient) NewDownload(ctx context.Context, playlistURL, output string, events DownloadEvents) (Session, error) {
	if playlistURL == "" {
		return nil, fmt.Errorf("download: playlist url required")
	}
	if output == "" {
		return nil, fmt.Errorf("download: output path required")
	}
	return newDownloadSession(ctx, c, playlistURL, output, events), nil
}

func (c *httpClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.decorate(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("platform returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *httpClient) decorate(req *http.Request) {
	req.Header.Set("User-Agent", "aftercast/0.1")
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}
}
