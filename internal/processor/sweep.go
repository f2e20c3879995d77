package processor

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"aftercast/internal/config"
	"aftercast/internal/platform"
	"aftercast/internal/retry"
	"aftercast/internal/session"
	"aftercast/internal/task"
)

// RunSweep periodically uploads handled parts until the context is
// canceled. Sessions without auto-merge rely on the immediate single-part
// upload path instead.
func (p *Processor) RunSweep(ctx context.Context) {
	interval := time.Duration(p.cfg.Platform.SweepIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Sweep(ctx)
		}
	}
}

// Sweep runs one upload pass over every session.
func (p *Processor) Sweep(ctx context.Context) {
	for _, view := range p.tracker.Sessions() {
		policy := p.cfg.RoomPolicy(view.RoomID)
		if !policy.AutoMergeParts {
			continue
		}
		p.uploadSession(ctx, view, policy)
	}
}

// uploadSession uploads the contiguous handled prefix of a session. Known
// archives get an append; otherwise a fresh upload followed by archive-id
// reconciliation against the recent listing.
func (p *Processor) uploadSession(ctx context.Context, view session.SessionView, policy config.RoomPolicy) {
	prefix := view.HandledPrefix()
	if len(prefix) == 0 {
		return
	}

	files := make([]string, 0, len(prefix))
	partIDs := make([]string, 0, len(prefix))
	for _, part := range prefix {
		files = append(files, part.FilePath)
		partIDs = append(partIDs, part.ID)
	}
	for _, id := range partIDs {
		if err := p.tracker.SetPartStatus(view.ID, id, session.PartUploading); err != nil {
			p.logger.Warn("mark uploading failed", slog.String("error", err.Error()))
		}
	}

	title := view.Title
	if title == "" {
		base := filepath.Base(files[0])
		title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	if view.ArchiveID != 0 {
		p.appendUpload(ctx, view, title, files, partIDs)
		return
	}
	p.freshUpload(ctx, view, policy, title, files, partIDs)
}

func (p *Processor) appendUpload(ctx context.Context, view session.SessionView, title string, files, partIDs []string) {
	t := task.NewUploadTask("append "+title, title)
	events := p.watchUpload(t.Events(), view.ID, partIDs, nil)
	sess, err := p.client.NewAppend(ctx, view.ArchiveID, files, events)
	if err != nil {
		p.failUpload(view.ID, partIDs, err)
		return
	}
	t.Bind(sess)
	p.logger.Info("appending to archive",
		slog.String("session_id", view.ID),
		slog.Int64("archive_id", view.ArchiveID),
		slog.Int("parts", len(files)))
	p.queue.Add(t, true)
}

func (p *Processor) freshUpload(ctx context.Context, view session.SessionView, policy config.RoomPolicy, title string, files, partIDs []string) {
	preset, ok := p.cfg.UploadPresetByID(policy.UploadPreset)
	if !ok {
		p.failUpload(view.ID, partIDs, errors.New("upload preset not found: "+policy.UploadPreset))
		return
	}

	t := task.NewUploadTask("upload "+title, title)
	events := p.watchUpload(t.Events(), view.ID, partIDs, func() {
		p.reconcileArchiveID(ctx, view.ID, title)
	})
	sess, err := p.client.NewUpload(ctx, files, platform.UploadOptions{Title: title, Preset: preset}, events)
	if err != nil {
		p.failUpload(view.ID, partIDs, err)
		return
	}
	t.Bind(sess)
	p.logger.Info("uploading session",
		slog.String("session_id", view.ID),
		slog.String("title", title),
		slog.Int("parts", len(files)))
	p.queue.Add(t, true)
}

// watchUpload layers part bookkeeping over the task's own event callbacks.
// Statuses are assigned, not merely compared, so a finished upload is
// visible to the next sweep.
func (p *Processor) watchUpload(inner platform.UploadEvents, sessionID string, partIDs []string, onSuccess func()) platform.UploadEvents {
	return platform.UploadEvents{
		Progress: inner.Progress,
		Completed: func() {
			inner.Completed()
			for _, id := range partIDs {
				if err := p.tracker.SetPartStatus(sessionID, id, session.PartUploaded); err != nil {
					p.logger.Warn("mark uploaded failed", slog.String("error", err.Error()))
				}
			}
			if onSuccess != nil {
				onSuccess()
			}
		},
		Error: func(err error) {
			inner.Error(err)
			p.failUpload(sessionID, partIDs, err)
		},
	}
}

func (p *Processor) failUpload(sessionID string, partIDs []string, cause error) {
	p.logger.Error("upload failed",
		slog.String("session_id", sessionID),
		slog.String("error", cause.Error()))
	for _, id := range partIDs {
		if err := p.tracker.SetPartStatus(sessionID, id, session.PartError); err != nil {
			p.logger.Warn("mark error failed", slog.String("error", err.Error()))
		}
	}
}

// reconcileArchiveID polls the recent-archive listing for an exact title
// match. The platform does not hand back the new identifier synchronously,
// so a bounded retry bridges the publishing delay. Exhaustion is non-fatal;
// the identifier stays unset until a later upload retries reconciliation.
func (p *Processor) reconcileArchiveID(ctx context.Context, sessionID, title string) {
	attempts := p.cfg.Platform.ReconcileAttempts
	delay := time.Duration(p.cfg.Platform.ReconcileDelaySeconds) * time.Second

	err := retry.Until(ctx, attempts, delay, func(ctx context.Context) (bool, error) {
		archives, err := p.client.RecentArchives(ctx)
		if err != nil {
			p.logger.Warn("recent archives lookup failed", slog.String("error", err.Error()))
			return false, nil
		}
		for _, archive := range archives {
			if archive.Title == title {
				if err := p.tracker.SetArchiveID(sessionID, archive.ID); err != nil {
					return false, err
				}
				p.logger.Info("archive reconciled",
					slog.String("session_id", sessionID),
					slog.Int64("archive_id", archive.ID))
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		p.logger.Warn("archive reconciliation gave up",
			slog.String("session_id", sessionID),
			slog.String("title", title),
			slog.String("error", err.Error()))
	}
}
