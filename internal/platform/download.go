package platform

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/grafov/m3u8"
)

type downloadSession struct {
	client      *httpClient
	playlistURL string
	output      string
	events      DownloadEvents

	gate   *gate
	ctx    context.Context
	cancel context.CancelFunc

	startOnce    sync.Once
	terminalOnce sync.Once
}

func newDownloadSession(ctx context.Context, client *httpClient, playlistURL, output string, events DownloadEvents) *downloadSession {
	ctx, cancel := context.WithCancel(ctx)
	return &downloadSession{
		client:      client,
		playlistURL: playlistURL,
		output:      output,
		events:      events,
		gate:        newGate(),
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (s *downloadSession) Start() {
	s.startOnce.Do(func() {
		go s.run()
	})
}

func (s *downloadSession) Pause() { s.gate.pause() }

func (s *downloadSession) Resume() { s.gate.resume() }

func (s *downloadSession) Cancel() {
	s.cancel()
	s.gate.resume()
}

func (s *downloadSession) run() {
	segments, err := s.fetchSegmentURLs()
	if err != nil {
		s.fail(err)
		return
	}

	out, err := os.Create(s.output)
	if err != nil {
		s.fail(fmt.Errorf("create %s: %w", s.output, err))
		return
	}
	defer out.Close()

	var loaded int64
	for i, segment := range segments {
		percent := float64(i) / float64(len(segments)) * 100
		if err := s.fetchSegment(segment, out, &loaded, percent); err != nil {
			s.fail(err)
			return
		}
	}
	if err := out.Close(); err != nil {
		s.fail(fmt.Errorf("close %s: %w", s.output, err))
		return
	}
	s.terminalOnce.Do(func() {
		if s.events.Completed != nil {
			s.events.Completed(s.output)
		}
	})
}

func (s *downloadSession) fetchSegmentURLs() ([]string, error) {
	req, err := http.NewRequestWithContext(s.ctx, http.MethodGet, s.playlistURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build playlist request: %w", err)
	}
	s.client.decorate(req)

	resp, err := s.client.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch playlist: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("playlist returned %d", resp.StatusCode)
	}

	playlist, listType, err := m3u8.DecodeFrom(resp.Body, true)
	if err != nil {
		return nil, fmt.Errorf("decode playlist: %w", err)
	}
	if listType != m3u8.MEDIA {
		return nil, fmt.Errorf("playlist %s is not a media playlist", s.playlistURL)
	}
	media := playlist.(*m3u8.MediaPlaylist)

	base, err := url.Parse(s.playlistURL)
	if err != nil {
		return nil, fmt.Errorf("parse playlist url: %w", err)
	}

	var segments []string
	for _, segment := range media.Segments {
		if segment == nil || segment.URI == "" {
			continue
		}
		ref, err := url.Parse(segment.URI)
		if err != nil {
			return nil, fmt.Errorf("parse segment uri %q: %w", segment.URI, err)
		}
		segments = append(segments, base.ResolveReference(ref).String())
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("playlist %s has no segments", s.playlistURL)
	}
	return segments, nil
}

func (s *downloadSession) fetchSegment(segmentURL string, out io.Writer, loaded *int64, percent float64) error {
	req, err := http.NewRequestWithContext(s.ctx, http.MethodGet, segmentURL, nil)
	if err != nil {
		return fmt.Errorf("build segment request: %w", err)
	}
	s.client.decorate(req)

	resp, err := s.client.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch segment: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("segment %s returned %d: %s", segmentURL, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	buf := make([]byte, 64*1024)
	for {
		if err := s.gate.wait(s.ctx); err != nil {
			return err
		}
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := out.Write(buf[:n]); werr != nil {
				return fmt.Errorf("write %s: %w", s.output, werr)
			}
			*loaded += int64(n)
			if s.events.Progress != nil {
				s.events.Progress(DownloadSample{Loaded: *loaded, At: time.Now(), Percent: percent})
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read segment: %w", err)
		}
	}
}

func (s *downloadSession) fail(err error) {
	s.terminalOnce.Do(func() {
		if s.events.Error != nil {
			s.events.Error(err)
		}
	})
}
