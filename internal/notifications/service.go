package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"aftercast/internal/config"
	"aftercast/internal/task"
)

const userAgent = "aftercast/0.1"

// Outcome labels a finished task for the notification matrix.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Service defines the notification surface exposed to the pipeline. The
// per-kind outcome matrix from configuration decides which calls actually
// send; suppressed calls return nil.
type Service interface {
	NotifyTaskCompleted(ctx context.Context, kind task.Kind, name, output string) error
	NotifyTaskFailed(ctx context.Context, kind task.Kind, name string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		matrix:   cfg.Notifications,
		client:   &http.Client{Timeout: timeout},
	}
}

// ShouldNotify reports whether the matrix enables notification for the given
// task kind and outcome. Unknown kinds never notify.
func ShouldNotify(matrix config.Notifications, kind task.Kind, outcome Outcome) bool {
	var outcomes []string
	switch kind {
	case task.KindOverlay:
		outcomes = matrix.Overlay
	case task.KindTranscode:
		outcomes = matrix.Transcode
	case task.KindUpload:
		outcomes = matrix.Upload
	case task.KindDownload:
		outcomes = matrix.Download
	default:
		return false
	}
	for _, entry := range outcomes {
		if Outcome(strings.TrimSpace(entry)) == outcome {
			return true
		}
	}
	return false
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	matrix   config.Notifications
	client   *http.Client
}

func (n *ntfyService) NotifyTaskCompleted(ctx context.Context, kind task.Kind, name, output string) error {
	if !ShouldNotify(n.matrix, kind, OutcomeSuccess) {
		return nil
	}
	name = strings.TrimSpace(name)
	message := fmt.Sprintf("%s finished: %s", kindLabel(kind), name)
	if output = strings.TrimSpace(output); output != "" {
		message = fmt.Sprintf("%s\nOutput: %s", message, output)
	}
	data := payload{
		title:   fmt.Sprintf("Aftercast - %s Complete", kindLabel(kind)),
		message: message,
		tags:    []string{"aftercast", string(kind), "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyTaskFailed(ctx context.Context, kind task.Kind, name string, err error) error {
	if !ShouldNotify(n.matrix, kind, OutcomeFailure) {
		return nil
	}
	var builder strings.Builder
	builder.WriteString(kindLabel(kind))
	builder.WriteString(" failed: ")
	builder.WriteString(strings.TrimSpace(name))
	if err != nil {
		builder.WriteString("\n")
		builder.WriteString(strings.TrimSpace(err.Error()))
	}
	data := payload{
		title:    fmt.Sprintf("Aftercast - %s Failed", kindLabel(kind)),
		message:  builder.String(),
		tags:     []string{"aftercast", string(kind), "error"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Aftercast - Test",
		message:  "Notification system test",
		tags:     []string{"aftercast", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func kindLabel(kind task.Kind) string {
	switch kind {
	case task.KindOverlay:
		return "Overlay Render"
	case task.KindTranscode:
		return "Merge"
	case task.KindUpload:
		return "Upload"
	case task.KindDownload:
		return "Download"
	default:
		return string(kind)
	}
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyTaskCompleted(context.Context, task.Kind, string, string) error { return nil }
func (noopService) NotifyTaskFailed(context.Context, task.Kind, string, error) error     { return nil }
func (noopService) TestNotification(context.Context) error                               { return nil }
