package overlay

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"testing"

	"aftercast/internal/config"
)

func TestNewRendererWithBinary(t *testing.T) {
	renderer := NewRenderer(WithBinary("/opt/danmaku"))
	if renderer.binary != "/opt/danmaku" {
		t.Fatalf("expected binary override to be applied, got %q", renderer.binary)
	}
}

func TestRenderRequiresInput(t *testing.T) {
	renderer := NewRenderer()
	if err := renderer.Render(context.Background(), "", "/tmp/out.ass", config.OverlayPreset{}); err == nil {
		t.Fatal("expected error when input path is empty")
	}
}

func TestRenderRequiresOutput(t *testing.T) {
	renderer := NewRenderer()
	if err := renderer.Render(context.Background(), "/rec/a.xml", "", config.OverlayPreset{}); err == nil {
		t.Fatal("expected error when output path is empty")
	}
}

func TestRenderBuildsPresetArgs(t *testing.T) {
	var capturedArgs []string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		capturedArgs = append([]string(nil), args...)
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_TEST_HELPER_PROCESS=1")
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})

	preset := config.OverlayPreset{FontSize: 40, Opacity: 0.8, ScrollArea: 0.5, ExtraArgs: []string{"--density", "100"}}
	err := NewRenderer().Render(context.Background(), "/rec/a.xml", "/tmp/a.ass", preset)
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	joined := strings.Join(capturedArgs, " ")
	for _, want := range []string{"-i /rec/a.xml", "-o /tmp/a.ass", "--fontsize 40", "--opacity 204", "--displayarea 0.50", "--density 100"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args missing %q: %v", want, capturedArgs)
		}
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_TEST_HELPER_PROCESS") != "" {
		os.Exit(0)
	}
}
