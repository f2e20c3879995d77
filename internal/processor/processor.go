package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"aftercast/internal/config"
	"aftercast/internal/fileutil"
	"aftercast/internal/logging"
	"aftercast/internal/media"
	"aftercast/internal/overlay"
	"aftercast/internal/platform"
	"aftercast/internal/session"
	"aftercast/internal/task"
)

// Processor turns closed recording parts into handled, upload-ready files.
// It owns the overlay and merge sequencing and the upload sweep.
type Processor struct {
	cfg     *config.Config
	tracker *session.Tracker
	queue   *task.Queue
	client  platform.Client
	logger  *slog.Logger

	settle time.Duration

	renderOverlay  func(ctx context.Context, input, output string, preset config.OverlayPreset) error
	newMergeRunner func(video, overlayFile, output string, preset config.TranscodePreset, duration time.Duration) task.Runner

	mu      sync.Mutex
	waiters map[string]chan error
}

// New wires the orchestrator and registers its completion listeners on the
// queue.
func New(cfg *config.Config, tracker *session.Tracker, queue *task.Queue, client platform.Client, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = logging.NewNop()
	}
	renderer := overlay.NewRenderer(overlay.WithBinary(cfg.Tools.OverlayRenderer))
	p := &Processor{
		cfg:     cfg,
		tracker: tracker,
		queue:   queue,
		client:  client,
		logger:  logging.WithComponent(logger, "processor"),
		settle:  time.Duration(cfg.Webhook.SettleSeconds) * time.Second,
		renderOverlay: func(ctx context.Context, input, output string, preset config.OverlayPreset) error {
			return renderer.Render(ctx, input, output, preset)
		},
		newMergeRunner: func(video, overlayFile, output string, preset config.TranscodePreset, duration time.Duration) task.Runner {
			return media.NewCommand(cfg.Tools.FFmpeg, media.MergeArgs(video, overlayFile, output, preset), duration)
		},
		waiters: make(map[string]chan error),
	}
	queue.Subscribe(task.TransitionEnd, p.onTaskEnd)
	queue.Subscribe(task.TransitionError, p.onTaskError)
	return p
}

// HandleOpen records the start of a new recording part.
func (p *Processor) HandleOpen(_ context.Context, obs session.Observation) {
	p.tracker.OpenPart(obs)
}

// HandleClose updates the tracker and, when the room's policy allows,
// launches post-processing. The tracker update is unconditional; the policy
// gates only suppress downstream action.
func (p *Processor) HandleClose(ctx context.Context, obs session.Observation) {
	part := p.tracker.ClosePart(obs)

	if p.cfg.RoomBlacklisted(obs.RoomID) {
		p.logger.Info("room blacklisted, part left recorded", slog.Int64("room_id", obs.RoomID))
		return
	}
	policy := p.cfg.RoomPolicy(obs.RoomID)
	if !policy.Enabled {
		p.logger.Info("room disabled, part left recorded", slog.Int64("room_id", obs.RoomID))
		return
	}
	if policy.MinSizeMB > 0 {
		size, err := fileutil.SizeMB(part.FilePath)
		if err == nil && size < float64(policy.MinSizeMB) {
			p.logger.Info("part below size threshold",
				slog.String("file", part.FilePath),
				slog.Float64("size_mb", size),
				slog.Int64("min_mb", policy.MinSizeMB))
			return
		}
	}

	if view, ok := p.tracker.Session(part.SessionID); ok && view.Title == "" {
		streamTitle := obs.Title
		if streamTitle == "" {
			streamTitle = view.StreamTitle
		}
		username := obs.Username
		if username == "" {
			username = view.Username
		}
		title := session.RenderTitle(policy.TitleTemplate, streamTitle, username, obs.At, part.FilePath)
		if err := p.tracker.SetTitle(part.SessionID, title); err != nil {
			p.logger.Warn("set title failed", slog.String("error", err.Error()))
		}
	}

	go p.process(context.WithoutCancel(ctx), part, policy)
}

// process runs overlay and merge for one closed part, then marks it handled.
func (p *Processor) process(ctx context.Context, part session.PartView, policy config.RoomPolicy) {
	if !policy.OverlayEnabled {
		p.finishPart(ctx, part, policy)
		return
	}

	// give the recorder time to finish writing the chat log
	time.Sleep(p.settle)

	chatLog := fileutil.CompanionPath(part.FilePath, ".xml")
	if !fileutil.Exists(chatLog) {
		p.logger.Info("no chat log, skipping overlay", slog.String("file", chatLog))
		p.finishPart(ctx, part, policy)
		return
	}

	overlayFile, err := p.runOverlay(ctx, part, chatLog, policy)
	if err != nil {
		p.failPart(part, "overlay", err)
		return
	}

	output, err := p.runMerge(part, overlayFile, policy)
	if err != nil {
		p.failPart(part, "merge", err)
		return
	}
	if err := os.Remove(overlayFile); err != nil {
		p.logger.Warn("overlay cleanup failed", slog.String("error", err.Error()))
	}

	if err := p.tracker.SetPartPath(part.SessionID, part.ID, output); err != nil {
		p.logger.Warn("set part path failed", slog.String("error", err.Error()))
	}
	part.FilePath = output
	p.finishPart(ctx, part, policy)
}

func (p *Processor) runOverlay(ctx context.Context, part session.PartView, chatLog string, policy config.RoomPolicy) (string, error) {
	preset, ok := p.cfg.OverlayPresetByID(policy.OverlayPreset)
	if !ok {
		return "", fmt.Errorf("overlay preset %q not found", policy.OverlayPreset)
	}
	overlayFile := filepath.Join(p.cfg.Paths.WorkDir, uuid.NewString()+".ass")

	t := task.NewOverlayTask(overlayTaskName(part.FilePath), overlayFile, func() error {
		return p.renderOverlay(ctx, chatLog, overlayFile, preset)
	})
	wait := p.await(t.ID())
	p.queue.Add(t, true)
	if err := <-wait; err != nil {
		return "", err
	}
	return overlayFile, nil
}

func (p *Processor) runMerge(part session.PartView, overlayFile string, policy config.RoomPolicy) (string, error) {
	preset, ok := p.cfg.TranscodePresetByID(policy.TranscodePreset)
	if !ok {
		return "", fmt.Errorf("transcode preset %q not found", policy.TranscodePreset)
	}
	output := fileutil.UniquePath(mergeOutputPath(part.FilePath))

	var duration time.Duration
	if part.StartTime != nil && part.EndTime != nil {
		duration = part.EndTime.Sub(*part.StartTime)
	}

	runner := p.newMergeRunner(part.FilePath, overlayFile, output, preset, duration)
	// The render already happened, so the merge reports the second half of
	// the combined render-then-merge progress.
	t := task.NewTranscodeTask(mergeTaskName(part.FilePath), runner, output,
		task.WithProgressRewrite(func(pct float64) float64 { return 50 + pct/2 }))
	wait := p.await(t.ID())
	p.queue.Add(t, true)
	if err := <-wait; err != nil {
		return "", err
	}
	return output, nil
}

// finishPart marks the part handled and, for a single-part session with
// auto-merge enabled, uploads right away. Multi-part sessions wait for the
// sweep so earlier parts are never overtaken.
func (p *Processor) finishPart(ctx context.Context, part session.PartView, policy config.RoomPolicy) {
	if err := p.tracker.SetPartStatus(part.SessionID, part.ID, session.PartHandled); err != nil {
		p.logger.Warn("mark handled failed", slog.String("error", err.Error()))
		return
	}
	if !policy.AutoMergeParts {
		return
	}
	view, ok := p.tracker.Session(part.SessionID)
	if !ok {
		return
	}
	if len(view.Parts) == 1 {
		p.uploadSession(ctx, view, policy)
	}
}

func (p *Processor) failPart(part session.PartView, stage string, err error) {
	p.logger.Error(stage+" failed",
		slog.String("file", part.FilePath),
		slog.String("error", err.Error()))
	if serr := p.tracker.SetPartStatus(part.SessionID, part.ID, session.PartError); serr != nil {
		p.logger.Warn("mark error failed", slog.String("error", serr.Error()))
	}
}

// await registers interest in a task's terminal transition. Register before
// the task is added so an immediate failure cannot slip past.
func (p *Processor) await(taskID string) <-chan error {
	ch := make(chan error, 1)
	p.mu.Lock()
	p.waiters[taskID] = ch
	p.mu.Unlock()
	return ch
}

func (p *Processor) onTaskEnd(ev task.Event) {
	p.resolve(ev.TaskID, nil)
}

func (p *Processor) onTaskError(ev task.Event) {
	err := ev.Err
	if err == nil {
		err = errors.New("task failed")
	}
	p.resolve(ev.TaskID, err)
}

func (p *Processor) resolve(taskID string, err error) {
	p.mu.Lock()
	ch, ok := p.waiters[taskID]
	if ok {
		delete(p.waiters, taskID)
	}
	p.mu.Unlock()
	if ok {
		ch <- err
	}
}

// mergeOutputPath derives the merged filename from the original recording.
func mergeOutputPath(video string) string {
	ext := filepath.Ext(video)
	return strings.TrimSuffix(video, ext) + "-overlay.mp4"
}

func overlayTaskName(video string) string {
	return "overlay " + filepath.Base(video)
}

func mergeTaskName(video string) string {
	return "merge " + filepath.Base(video)
}
