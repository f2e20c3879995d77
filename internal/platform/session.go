package platform

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
)

// gate blocks transfer reads while a session is paused. Cancellation
// releases any waiter so the transfer can observe its context.
type gate struct {
	mu     sync.Mutex
	cond   *sync.Cond
	paused bool
}

func newGate() *gate {
	g := &gate{}
	g.cond = sync.NewCond(&g.mu)
	return g
}

func (g *gate) pause() {
	g.mu.Lock()
	g.paused = true
	g.mu.Unlock()
}

func (g *gate) resume() {
	g.mu.Lock()
	g.paused = false
	g.mu.Unlock()
	g.cond.Broadcast()
}

func (g *gate) wait(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for g.paused {
		if err := ctx.Err(); err != nil {
			return err
		}
		g.cond.Wait()
	}
	return ctx.Err()
}

type uploadSession struct {
	client   *httpClient
	endpoint string
	files    []string
	events   UploadEvents

	gate   *gate
	ctx    context.Context
	cancel context.CancelFunc

	startOnce    sync.Once
	terminalOnce sync.Once
}

func newUploadSession(ctx context.Context, client *httpClient, endpoint string, files []string, events UploadEvents) *uploadSession {
	ctx, cancel := context.WithCancel(ctx)
	return &uploadSession{
		client:   client,
		endpoint: endpoint,
		files:    append([]string{}, files...),
		events:   events,
		gate:     newGate(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (s *uploadSession) Start() {
	s.startOnce.Do(func() {
		go s.run()
	})
}

func (s *uploadSession) Pause() { s.gate.pause() }

func (s *uploadSession) Resume() { s.gate.resume() }

func (s *uploadSession) Cancel() {
	s.cancel()
	// Release a paused transfer so it can observe cancellation.
	s.gate.resume()
}

func (s *uploadSession) run() {
	var total int64
	for _, file := range s.files {
		info, err := os.Stat(file)
		if err != nil {
			s.fail(fmt.Errorf("stat %s: %w", file, err))
			return
		}
		total += info.Size()
	}

	var sent int64
	for _, file := range s.files {
		if err := s.sendFile(file, total, &sent); err != nil {
			s.fail(err)
			return
		}
	}
	s.terminalOnce.Do(func() {
		if s.events.Completed != nil {
			s.events.Completed()
		}
	})
}

func (s *uploadSession) sendFile(file string, total int64, sent *int64) error {
	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("open %s: %w", file, err)
	}
	defer f.Close()

	body := &pacedReader{
		inner: f,
		gate:  s.gate,
		ctx:   s.ctx,
		onRead: func(n int) {
			*sent += int64(n)
			if s.events.Progress != nil && total > 0 {
				s.events.Progress(float64(*sent) / float64(total))
			}
		},
	}

	req, err := http.NewRequestWithContext(s.ctx, http.MethodPost, s.endpoint, body)
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("X-Upload-Filename", file)
	s.client.decorate(req)

	resp, err := s.client.client.Do(req)
	if err != nil {
		return fmt.Errorf("upload %s: %w", file, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("upload %s: platform returned %d: %s", file, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (s *uploadSession) fail(err error) {
	s.terminalOnce.Do(func() {
		if s.events.Error != nil {
			s.events.Error(err)
		}
	})
}

// pacedReader feeds request bodies while honoring the pause gate and
// reporting byte counts.
type pacedReader struct {
	inner  io.Reader
	gate   *gate
	ctx    context.Context
	onRead func(n int)
}

func (r *pacedReader) Read(p []byte) (int, error) {
	if err := r.gate.wait(r.ctx); err != nil {
		return 0, err
	}
	n, err := r.inner.Read(p)
	if n > 0 && r.onRead != nil {
		r.onRead(n)
	}
	return n, err
}
