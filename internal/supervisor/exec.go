package supervisor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// killGrace is how long a runner may take to exit after SIGTERM before its
// process group is killed. It also bounds how long output pipes may stay
// open once the runner itself has exited.
const killGrace = 2 * time.Second

// LineFunc receives each output line as it is produced.
type LineFunc func(runner, stream, line string)

// ExecSupervisor runs processes with os/exec. Each runner leads its own
// process group so a timeout also reaches the browser it started.
type ExecSupervisor struct {
	logger *slog.Logger
	onLine LineFunc
}

// NewExecSupervisor creates a supervisor. onLine may be nil.
func NewExecSupervisor(logger *slog.Logger, onLine LineFunc) *ExecSupervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecSupervisor{logger: logger, onLine: onLine}
}

// Spawn starts spec. Cancelling ctx terminates the runner's process group.
func (s *ExecSupervisor) Spawn(ctx context.Context, spec Spec) (Process, error) {
	if spec.Path == "" {
		return nil, fmt.Errorf("runner %q: executable path is required", spec.Name)
	}

	p := &execProcess{
		name:   spec.Name,
		logger: s.logger,
		done:   make(chan struct{}),
	}
	p.stdout = &lineWriter{p: p, stream: "stdout", onLine: s.onLine}
	p.stderr = &lineWriter{p: p, stream: "stderr", onLine: s.onLine}

	cmd := exec.CommandContext(ctx, spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = append(os.Environ(), spec.Env...)
	cmd.Stdout = p.stdout
	cmd.Stderr = p.stderr
	cmd.WaitDelay = killGrace
	setProcessGroup(cmd)
	cmd.Cancel = func() error {
		s.logger.Warn("runner cancelled, terminating", "runner", spec.Name)
		err := signalGroup(cmd.Process, false)
		time.AfterFunc(killGrace, p.kill)
		return err
	}
	p.cmd = cmd

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("runner %q: start: %w", spec.Name, err)
	}
	s.logger.Debug("runner started", "runner", spec.Name, "pid", cmd.Process.Pid)

	go func() {
		// WaitDelay closes the pipes if a descendant outside the group
		// still holds them after the runner exits.
		err := cmd.Wait()
		p.stdout.flush()
		p.stderr.flush()
		p.mu.Lock()
		p.exit = exitFrom(cmd, err)
		p.mu.Unlock()
		close(p.done)
	}()

	return p, nil
}

type execProcess struct {
	name   string
	cmd    *exec.Cmd
	logger *slog.Logger

	mu     sync.Mutex
	stdout *lineWriter
	stderr *lineWriter

	done     chan struct{}
	exit     Exit
	timedOut bool
}

// kill sends SIGKILL to the process group unless the runner already exited.
func (p *execProcess) kill() {
	select {
	case <-p.done:
		return
	default:
	}
	if err := signalGroup(p.cmd.Process, true); err != nil && !errors.Is(err, os.ErrProcessDone) {
		p.logger.Warn("kill failed", "runner", p.name, "error", err)
	}
}

func (p *execProcess) AwaitExit(timeout time.Duration) Exit {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-p.done:
	case <-timer.C:
		p.logger.Warn("runner timed out, terminating", "runner", p.name, "timeout", timeout)
		p.mu.Lock()
		p.timedOut = true
		p.mu.Unlock()
		if err := signalGroup(p.cmd.Process, false); err != nil && !errors.Is(err, os.ErrProcessDone) {
			p.logger.Warn("terminate failed", "runner", p.name, "error", err)
		}

		grace := time.NewTimer(killGrace)
		defer grace.Stop()
		select {
		case <-p.done:
		case <-grace.C:
			p.logger.Warn("runner ignored SIGTERM, killing", "runner", p.name)
			p.kill()
			<-p.done
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timedOut {
		return Exit{Code: -1, TimedOut: true}
	}
	return p.exit
}

func (p *execProcess) Output() Captured {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Captured{Stdout: p.stdout.buf.String(), Stderr: p.stderr.buf.String()}
}

// lineWriter collects one output stream and reports it line by line.
// os/exec copies each stream from a single goroutine.
type lineWriter struct {
	p       *execProcess
	stream  string
	onLine  LineFunc
	buf     strings.Builder
	partial []byte
}

func (w *lineWriter) Write(b []byte) (int, error) {
	w.partial = append(w.partial, b...)
	for {
		i := bytes.IndexByte(w.partial, '\n')
		if i < 0 {
			break
		}
		w.emit(string(w.partial[:i]))
		w.partial = w.partial[i+1:]
	}
	return len(b), nil
}

// flush emits a trailing line that had no newline.
func (w *lineWriter) flush() {
	if len(w.partial) == 0 {
		return
	}
	w.emit(string(w.partial))
	w.partial = nil
}

func (w *lineWriter) emit(line string) {
	line = strings.TrimSuffix(line, "\r")
	w.p.mu.Lock()
	w.buf.WriteString(line)
	w.buf.WriteByte('\n')
	w.p.mu.Unlock()
	if w.onLine != nil {
		w.onLine(w.p.name, w.stream, line)
	}
}

func exitFrom(cmd *exec.Cmd, err error) Exit {
	if err == nil {
		return Exit{Code: 0}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return Exit{Code: exitErr.ExitCode()}
	}
	// The runner exited but something it left behind held the pipes.
	if errors.Is(err, exec.ErrWaitDelay) && cmd.ProcessState != nil {
		return Exit{Code: cmd.ProcessState.ExitCode()}
	}
	return Exit{Code: -1, Err: err}
}
