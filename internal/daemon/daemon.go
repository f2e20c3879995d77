package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"aftercast/internal/config"
	"aftercast/internal/deps"
	"aftercast/internal/logging"
	"aftercast/internal/notifications"
	"aftercast/internal/platform"
	"aftercast/internal/processor"
	"aftercast/internal/session"
	"aftercast/internal/task"
	"aftercast/internal/webhook"
)

// Daemon wires the ingestion, processing, and control surfaces together and
// enforces single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	tracker *session.Tracker
	queue   *task.Queue
	proc    *processor.Processor

	lockPath string
	lock     *flock.Flock

	webhookSrv *httpServer
	apiSrv     *httpServer

	running atomic.Bool
	cancel  context.CancelFunc
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	client := platform.NewConfiguredClient(cfg)
	tracker := session.NewTracker(time.Duration(cfg.Webhook.ProximityMinutes)*time.Minute, logger)
	queue := task.NewQueue(logger)
	proc := processor.New(cfg, tracker, queue, client, logger)
	subscribeNotifier(queue, notifications.NewService(cfg), logger)

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "daemon"),
		tracker:  tracker,
		queue:    queue,
		proc:     proc,
		lockPath: filepath.Join(cfg.Paths.LogDir, "aftercastd.lock"),
	}
	d.lock = flock.New(d.lockPath)

	if cfg.Webhook.Enabled {
		hooks := webhook.NewServer(cfg, proc, client, logger)
		d.webhookSrv = newHTTPServer(cfg.Webhook.Bind, hooks.Router(), logging.WithComponent(logger, "webhook-http"))
	}
	d.apiSrv = newHTTPServer(cfg.Paths.APIBind, newAPIRouter(d), logging.WithComponent(logger, "api-http"))
	return d, nil
}

// Start acquires the instance lock and launches the servers and the upload
// sweep.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another aftercast daemon instance is already running")
	}

	for _, st := range deps.CheckBinaries(deps.Requirements(d.cfg)) {
		if st.Available || st.Optional {
			continue
		}
		d.logger.Warn("required tool unavailable",
			"tool", st.Name,
			"command", st.Command,
			"detail", st.Detail)
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if d.webhookSrv != nil {
		if err := d.webhookSrv.start(); err != nil {
			d.releaseLock()
			cancel()
			return err
		}
	}
	if d.apiSrv != nil {
		if err := d.apiSrv.start(); err != nil {
			if d.webhookSrv != nil {
				d.webhookSrv.stop()
			}
			d.releaseLock()
			cancel()
			return err
		}
	}

	go d.proc.RunSweep(runCtx)

	d.running.Store(true)
	d.logger.Info("aftercast daemon started", slog.String("lock", d.lockPath))
	return nil
}

// Stop shuts the servers down and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.webhookSrv != nil {
		d.webhookSrv.stop()
	}
	if d.apiSrv != nil {
		d.apiSrv.stop()
	}
	d.releaseLock()
	d.running.Store(false)
	d.logger.Info("aftercast daemon stopped")
}

func (d *Daemon) releaseLock() {
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", slog.String("error", err.Error()))
	}
}

// Running reports whether Start has completed without a matching Stop.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// WebhookAddr returns the bound webhook listener address, empty when the
// webhook surface is disabled or not started.
func (d *Daemon) WebhookAddr() string {
	if d.webhookSrv == nil {
		return ""
	}
	return d.webhookSrv.addr()
}

// APIAddr returns the bound control API address.
func (d *Daemon) APIAddr() string {
	if d.apiSrv == nil {
		return ""
	}
	return d.apiSrv.addr()
}

// subscribeNotifier bridges queue transitions to the notification matrix.
func subscribeNotifier(queue *task.Queue, svc notifications.Service, logger *slog.Logger) {
	log := logging.WithComponent(logger, "notifier")
	queue.Subscribe(task.TransitionEnd, func(ev task.Event) {
		go func() {
			if err := svc.NotifyTaskCompleted(context.Background(), ev.Kind, ev.Name, ev.Output); err != nil {
				log.Warn("notify failed", slog.String("error", err.Error()))
			}
		}()
	})
	queue.Subscribe(task.TransitionError, func(ev task.Event) {
		go func() {
			if err := svc.NotifyTaskFailed(context.Background(), ev.Kind, ev.Name, ev.Err); err != nil {
				log.Warn("notify failed", slog.String("error", err.Error()))
			}
		}()
	})
}

// httpServer is a small lifecycle wrapper shared by the webhook and API
// listeners.
type httpServer struct {
	bind     string
	logger   *slog.Logger
	server   *http.Server
	listener net.Listener
}

func newHTTPServer(bind string, handler http.Handler, logger *slog.Logger) *httpServer {
	return &httpServer{
		bind:   bind,
		logger: logger,
		server: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

func (s *httpServer) start() error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.bind, err)
	}
	s.listener = listener
	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", slog.String("error", err.Error()))
		}
	}()
	s.logger.Info("listening", slog.String("addr", listener.Addr().String()))
	return nil
}

func (s *httpServer) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Warn("shutdown", slog.String("error", err.Error()))
	}
	s.listener = nil
}

func (s *httpServer) addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
