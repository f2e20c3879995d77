package media

import (
	"strings"
	"testing"
	"time"

	"aftercast/internal/config"
)

func TestScanProgressEmitsPerBlock(t *testing.T) {
	stream := strings.Join([]string{
		"bitrate=2510.3kbits/s",
		"out_time_us=30000000",
		"speed=1.98x",
		"progress=continue",
		"bitrate=2421.0kbits/s",
		"out_time_us=60000000",
		"speed=2.01x",
		"progress=end",
	}, "\n")

	var updates []Progress
	scanProgress(strings.NewReader(stream), time.Minute, func(p Progress) {
		updates = append(updates, p)
	})

	if len(updates) != 2 {
		t.Fatalf("updates = %d, want 2", len(updates))
	}
	if got := updates[0].Percent; got != 50 {
		t.Fatalf("first percent = %v, want 50", got)
	}
	if updates[0].Done {
		t.Fatal("first update should not be done")
	}
	if !updates[1].Done || updates[1].Percent != 100 {
		t.Fatalf("final update = %+v, want done at 100", updates[1])
	}
	if updates[1].Speed != "2.01x" {
		t.Fatalf("speed = %q", updates[1].Speed)
	}
}

func TestScanProgressWithoutDurationStaysAtZero(t *testing.T) {
	stream := "out_time_us=30000000\nprogress=continue\n"
	var updates []Progress
	scanProgress(strings.NewReader(stream), 0, func(p Progress) {
		updates = append(updates, p)
	})
	if len(updates) != 1 {
		t.Fatalf("updates = %d, want 1", len(updates))
	}
	if updates[0].Percent != 0 {
		t.Fatalf("percent = %v, want 0 when duration unknown", updates[0].Percent)
	}
}

func TestProgressAnnotation(t *testing.T) {
	p := Progress{Bitrate: "2510.3kbits/s", Speed: "1.98x"}
	got := p.Annotation()
	if !strings.Contains(got, "bitrate: 2510.3kbits/s") || !strings.Contains(got, "speed: 1.98x") {
		t.Fatalf("annotation = %q", got)
	}
	if (Progress{Bitrate: "N/A"}).Annotation() != "" {
		t.Fatal("N/A fields should be omitted")
	}
}

func TestMergeArgs(t *testing.T) {
	preset := config.TranscodePreset{VideoCodec: "libx264", CRF: 23, Preset: "fast", AudioCodec: "copy"}
	args := MergeArgs("/rec/a.flv", "/tmp/a.ass", "/rec/a-overlay.mp4", preset)

	joined := strings.Join(args, " ")
	for _, want := range []string{"-i /rec/a.flv", "-c:v libx264", "-crf 23", "-preset fast", "-c:a copy"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args missing %q: %v", want, args)
		}
	}
	if args[len(args)-1] != "/rec/a-overlay.mp4" {
		t.Fatalf("output should be the final argument, got %q", args[len(args)-1])
	}
	if !strings.Contains(joined, `subtitles=/tmp/a.ass`) {
		t.Fatalf("subtitles filter missing: %v", args)
	}
}

func TestEscapeFilterPath(t *testing.T) {
	got := escapeFilterPath(`C:\rec\a'b.ass`)
	if got != `C\:\\rec\\a\'b.ass` {
		t.Fatalf("escaped = %q", got)
	}
}
