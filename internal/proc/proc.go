// Package proc runs an external command to completion or cancellation,
// draining stdout and stderr concurrently so a chatty child never blocks on a
// full pipe.
package proc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrCancelled is returned when the context ended before the child
	// exited. The child has been killed and reaped; there is no result.
	ErrCancelled = errors.New("process cancelled")
	// ErrInvalidOutput is returned when captured output is not UTF-8 text.
	ErrInvalidOutput = errors.New("process output is not valid UTF-8")
)

// Stream identifies one of the child's output streams.
type Stream int

const (
	Stdout Stream = iota
	Stderr
)

func (s Stream) String() string {
	if s == Stderr {
		return "stderr"
	}
	return "stdout"
}

// LineFunc receives every line as it is read, without the trailing newline.
// It is called from the reader goroutines and must not block for long.
type LineFunc func(stream Stream, line string)

type options struct {
	lineFunc LineFunc
}

// Option configures Run.
type Option func(*options)

// WithLineFunc streams output lines to fn while the child runs.
func WithLineFunc(fn LineFunc) Option {
	return func(o *options) { o.lineFunc = fn }
}

// Output is everything a finished child wrote, verbatim.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Started  time.Time
	Stopped  time.Time
}

// SpawnError reports that the child could not be started.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string { return fmt.Sprintf("spawn %s: %v", e.Path, e.Err) }
func (e *SpawnError) Unwrap() error { return e.Err }

// ExitError reports a child that exited with a non-zero status.
type ExitError struct {
	Args   []string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("exit status %d", e.Code)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + lastLine(s)
	}
	return msg
}

// drainDelay is how long both pipes may stay silent after the child exited
// before they are closed. Descendants that inherited the pipes can keep them
// open indefinitely.
const drainDelay = 250 * time.Millisecond

// activity records when a reader last received output.
type activity struct {
	last atomic.Int64
}

func (a *activity) touch() { a.last.Store(time.Now().UnixNano()) }

func (a *activity) idle() time.Duration {
	return time.Since(time.Unix(0, a.last.Load()))
}

// Run starts cmd and blocks until it exits or ctx is done, whichever comes
// first. cmd must not have Stdout or Stderr set.
//
// On cancellation the child's process group is killed, both readers are
// joined, the child is reaped, and ErrCancelled is returned. Background
// processes the child left running are not waited for; their output after
// drainDelay is dropped.
func Run(ctx context.Context, cmd *exec.Cmd, opts ...Option) (Output, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if ctx.Err() != nil {
		return Output{}, ErrCancelled
	}

	outR, outW, err := os.Pipe()
	if err != nil {
		return Output{}, &SpawnError{Path: cmd.Path, Err: err}
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		closeAll(outR, outW)
		return Output{}, &SpawnError{Path: cmd.Path, Err: err}
	}
	defer closeAll(outR, errR)

	cmd.Stdout = outW
	cmd.Stderr = errW
	setProcessGroup(cmd)

	out := Output{Started: time.Now().UTC()}
	err = cmd.Start()
	// The child holds its own copies of the write ends.
	closeAll(outW, errW)
	if err != nil {
		out.Stopped = time.Now().UTC()
		return out, &SpawnError{Path: cmd.Path, Err: err}
	}
	slog.DebugContext(ctx, "process started", "args", cmd.Args, "pid", cmd.Process.Pid)

	var outBuf, errBuf strings.Builder
	var (
		g   errgroup.Group
		act activity
	)
	g.Go(func() error { return drain(outR, &outBuf, Stdout, o.lineFunc, &act) })
	g.Go(func() error { return drain(errR, &errBuf, Stderr, o.lineFunc, &act) })

	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	var waitErr error
	cancelled := false
	select {
	case waitErr = <-exited:
	case <-ctx.Done():
		cancelled = true
		if err := kill(cmd); err != nil {
			slog.WarnContext(ctx, "kill process", "pid", cmd.Process.Pid, "error", err)
		}
		waitErr = <-exited
	}

	readErr := finishReads(ctx, &g, &act, cmd, outR, errR)

	out.Stopped = time.Now().UTC()
	out.Stdout = outBuf.String()
	out.Stderr = errBuf.String()
	if ps := cmd.ProcessState; ps != nil {
		out.ExitCode = ps.ExitCode()
	}

	if cancelled {
		slog.DebugContext(ctx, "process killed", "args", cmd.Args, "pid", cmd.Process.Pid)
		return out, ErrCancelled
	}
	slog.DebugContext(ctx, "process exited",
		"args", cmd.Args,
		"code", out.ExitCode,
		"duration", out.Stopped.Sub(out.Started),
	)

	if waitErr == nil {
		waitErr = readErr
	}
	if waitErr != nil {
		var ee *exec.ExitError
		if errors.As(waitErr, &ee) {
			return out, &ExitError{Args: cmd.Args, Code: ee.ExitCode(), Stderr: out.Stderr}
		}
		return out, fmt.Errorf("wait %s: %w", cmd.Path, waitErr)
	}
	if !utf8.ValidString(out.Stdout) || !utf8.ValidString(out.Stderr) {
		return out, ErrInvalidOutput
	}
	return out, nil
}

// finishReads joins the readers once the child has been reaped. When no
// output arrived for drainDelay and the pipes are still open, the read ends
// are closed, which unblocks the readers.
func finishReads(ctx context.Context, g *errgroup.Group, act *activity, cmd *exec.Cmd, pipes ...*os.File) error {
	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	act.touch()
	ticker := time.NewTicker(drainDelay / 5)
	defer ticker.Stop()
	for {
		select {
		case err := <-done:
			return err
		case <-ticker.C:
		}
		if act.idle() >= drainDelay {
			break
		}
	}

	slog.DebugContext(ctx, "output held open by descendants", "pid", cmd.Process.Pid)
	closeAll(pipes...)
	return <-done
}

func closeAll(files ...*os.File) {
	for _, f := range files {
		_ = f.Close()
	}
}

func drain(r io.Reader, buf *strings.Builder, stream Stream, fn LineFunc, act *activity) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			act.touch()
			buf.WriteString(line)
			if fn != nil {
				fn(stream, strings.TrimRight(line, "\r\n"))
				act.touch()
			}
		}
		if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", stream, err)
		}
	}
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
