package media

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

var startCommand = func(cmd *exec.Cmd) error { return cmd.Start() }

// Command controls one ffmpeg invocation.
type Command struct {
	binary   string
	args     []string
	duration time.Duration

	mu    sync.Mutex
	cmd   *exec.Cmd
	stdin io.WriteCloser

	stderrTail bytes.Buffer
	scanDone   chan struct{}
}

// NewCommand prepares an ffmpeg run. Duration is the expected output length
// used to derive percentages; zero disables percent computation.
func NewCommand(binary string, args []string, duration time.Duration) *Command {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Command{binary: binary, args: args, duration: duration, scanDone: make(chan struct{})}
}

// Start launches the process and begins streaming progress updates. It does
// not wait for completion; pair with Wait.
func (c *Command) Start(progress func(Progress)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cmd != nil {
		return errors.New("media: command already started")
	}

	args := append([]string{}, c.args...)
	args = append(args, "-progress", "pipe:1", "-nostats")
	cmd := exec.Command(c.binary, args...) //nolint:gosec

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	cmd.Stderr = &tailWriter{buf: &c.stderrTail}

	if err := startCommand(cmd); err != nil {
		return fmt.Errorf("start %s: %w", c.binary, err)
	}
	c.cmd = cmd
	c.stdin = stdin

	go func() {
		defer close(c.scanDone)
		scanProgress(stdout, c.duration, progress)
	}()
	return nil
}

// Wait blocks until the process exits and the progress stream drains.
func (c *Command) Wait() error {
	c.mu.Lock()
	cmd := c.cmd
	c.mu.Unlock()
	if cmd == nil {
		return errors.New("media: command not started")
	}

	<-c.scanDone
	if err := cmd.Wait(); err != nil {
		tail := strings.TrimSpace(c.stderrTail.String())
		if tail != "" {
			return fmt.Errorf("%s: %w: %s", c.binary, err, lastLine(tail))
		}
		return fmt.Errorf("%s: %w", c.binary, err)
	}
	return nil
}

// Suspend stops the process with SIGSTOP.
func (c *Command) Suspend() error {
	return c.signal(unix.SIGSTOP)
}

// Resume continues a suspended process with SIGCONT.
func (c *Command) Resume() error {
	return c.signal(unix.SIGCONT)
}

// Quit asks ffmpeg to finish gracefully by writing "q" to its stdin. The
// process still emits a normal exit afterwards; callers that quit mid-run
// must reinterpret that exit themselves.
func (c *Command) Quit() error {
	c.mu.Lock()
	stdin := c.stdin
	c.mu.Unlock()
	if stdin == nil {
		return errors.New("media: command not started")
	}
	if _, err := io.WriteString(stdin, "q"); err != nil {
		return fmt.Errorf("write quit: %w", err)
	}
	return nil
}

func (c *Command) signal(sig unix.Signal) error {
	c.mu.Lock()
	cmd := c.cmd
	c.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return errors.New("media: command not started")
	}
	if err := unix.Kill(cmd.Process.Pid, sig); err != nil {
		return fmt.Errorf("signal %s: %w", sig, err)
	}
	return nil
}

func lastLine(text string) string {
	lines := strings.Split(text, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return text
}

// tailWriter keeps the last few KiB of stderr for error reporting.
type tailWriter struct {
	mu  sync.Mutex
	buf *bytes.Buffer
}

const tailLimit = 4096

func (w *tailWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf.Write(p)
	if w.buf.Len() > tailLimit {
		trimmed := w.buf.Bytes()[w.buf.Len()-tailLimit:]
		rest := append([]byte{}, trimmed...)
		w.buf.Reset()
		w.buf.Write(rest)
	}
	return len(p), nil
}

func scanProgress(r io.Reader, duration time.Duration, progress func(Progress)) {
	scanner := bufio.NewScanner(r)
	var current Progress
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch key {
		case "out_time_us", "out_time_ms":
			// ffmpeg reports both keys with microsecond values.
			if us, err := parseInt(value); err == nil {
				current.OutTime = time.Duration(us) * time.Microsecond
			}
		case "bitrate":
			current.Bitrate = value
		case "speed":
			current.Speed = value
		case "progress":
			current.Percent = percentOf(current.OutTime, duration)
			current.Done = value == "end"
			if current.Done {
				current.Percent = 100
			}
			if progress != nil {
				progress(current)
			}
		}
	}
}

func percentOf(out, total time.Duration) float64 {
	if total <= 0 || out <= 0 {
		return 0
	}
	percent := float64(out) / float64(total) * 100
	if percent > 100 {
		percent = 100
	}
	return percent
}

func parseInt(value string) (int64, error) {
	var n int64
	_, err := fmt.Sscanf(strings.TrimSpace(value), "%d", &n)
	return n, err
}
