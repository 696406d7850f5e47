package supervisor

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"agentcore/agenterr"
	"agentcore/internal/ndjson"
	"agentcore/internal/procattr"
	"agentcore/parse"
	"agentcore/stream"
)

// State is a session's liveness state.
type State string

const (
	StateStarting State = "starting"
	StateRunning  State = "running"
	// StateExited means the process terminated on its own without a
	// detectable failure.
	StateExited State = "exited"
	// StateKilled means the caller cancelled the session.
	StateKilled State = "killed"
	// StateFailed means termination produced an agent error.
	StateFailed State = "failed"
)

const (
	// killGrace is how long Kill waits after SIGTERM before escalating.
	killGrace = 500 * time.Millisecond
	// killReap bounds the wait for the process to be reaped after SIGKILL.
	killReap = 2 * time.Second

	// stderrCap and stdoutCap bound the output retained for exit-time
	// inspection. Retention keeps the head of the stream: launch failures
	// complain early, and pattern tables match against what is kept.
	stderrCap = 256 * 1024
	stdoutCap = 64 * 1024
)

// Session is one running agent process plus its event stream. The supervisor
// is the sole owner; callers consume Events and Errors and may Kill.
type Session struct {
	// ID is the supervisor-assigned session identifier, distinct from any
	// identifier the agent reports in-stream.
	ID      string
	AgentID string

	parser parse.OutputParser
	cmd    *exec.Cmd
	logger *slog.Logger

	events chan stream.Event
	errs   chan *agenterr.AgentError
	// quit is closed by Kill. Channel sends select against it so reader
	// goroutines never block on a consumer that went away; undelivered
	// partial events are dropped, per the cancellation contract.
	quit     chan struct{}
	quitOnce sync.Once
	// done is closed once the process has been reaped and both channels
	// closed.
	done chan struct{}

	mu           sync.Mutex
	state        State
	killed       bool
	usage        stream.Usage
	agentSession string
	exitCode     int
	stderr       strings.Builder
	stdout       strings.Builder
}

// Events returns the session's event stream. The channel is closed after the
// process terminates. Events for one session arrive in the order the process
// produced them.
func (s *Session) Events() <-chan stream.Event { return s.events }

// Errors returns the session's error stream, separate from Events. Structured
// in-stream errors and the exit-derived error, if any, are delivered here.
// Closed together with Events.
func (s *Session) Errors() <-chan *agenterr.AgentError { return s.errs }

// Done is closed once the session reaches a terminal state.
func (s *Session) Done() <-chan struct{} { return s.done }

// State returns the session's current liveness state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Usage returns the session's accumulated usage, folded from result events.
func (s *Session) Usage() stream.Usage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usage
}

// AgentSessionID returns the identifier the agent reported in-stream, or ""
// if none has been seen yet.
func (s *Session) AgentSessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agentSession
}

// ExitCode returns the process exit code. Meaningful only after Done.
func (s *Session) ExitCode() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitCode
}

// Wait blocks until the session terminates or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Kill cancels the session: SIGTERM to the process group, a short grace
// period, then SIGKILL. In-flight partial events are not drained.
func (s *Session) Kill() error {
	s.mu.Lock()
	if s.state != StateStarting && s.state != StateRunning {
		s.mu.Unlock()
		return ErrNotRunning
	}
	s.killed = true
	s.mu.Unlock()

	s.quitOnce.Do(func() { close(s.quit) })

	s.logger.Info("killing session", "session", s.ID, "agent", s.AgentID)
	_ = procattr.SignalGroup(s.cmd.Process, syscall.SIGTERM)

	select {
	case <-s.done:
		return nil
	case <-time.After(killGrace):
	}

	_ = procattr.KillGroup(s.cmd.Process)

	select {
	case <-s.done:
	case <-time.After(killReap):
		s.logger.Warn("session not reaped after SIGKILL", "session", s.ID)
	}
	return nil
}

// readStdout is the session's single stdout reader: one goroutine, strict
// FIFO. Each line is checked for a structured error first, then normalized;
// an error-flagged result line produces both an entry on the error channel
// and its result event, in that order.
func (s *Session) readStdout(r io.Reader) {
	reader := ndjson.NewReader(r)
	for {
		line, err := reader.ReadLine()
		if err != nil {
			if err != io.EOF {
				s.logger.Warn("stdout read failed", "session", s.ID, "err", err)
			}
			return
		}
		s.retainStdout(line)

		if agentErr, ok := s.parser.DetectErrorFromLine(line); ok {
			s.logger.Warn("agent error detected",
				"session", s.ID, "category", agentErr.Category, "recoverable", agentErr.Recoverable)
			if !s.deliverError(agentErr) {
				return
			}
		}

		ev, ok := s.parser.ParseLine(line)
		if !ok {
			continue
		}
		if id := s.parser.ExtractSessionID(ev); id != "" {
			s.setAgentSession(id)
		}
		if s.parser.IsFinalResult(ev) {
			if u, ok := s.parser.ExtractUsage(ev); ok {
				s.foldUsage(u)
			}
		}
		if !s.deliver(ev) {
			return
		}
	}
}

// readStderr accumulates stderr for exit-time inspection and echoes it to the
// log at debug level.
func (s *Session) readStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), ndjson.MaxLineSize)
	for scanner.Scan() {
		line := scanner.Text()
		s.mu.Lock()
		if s.stderr.Len() < stderrCap {
			s.stderr.WriteString(line)
			s.stderr.WriteByte('\n')
		}
		s.mu.Unlock()
		s.logger.Debug("agent stderr", "session", s.ID, "line", line)
	}
}

func (s *Session) deliver(ev stream.Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.quit:
		return false
	}
}

func (s *Session) deliverError(err *agenterr.AgentError) bool {
	select {
	case s.errs <- err:
		return true
	case <-s.quit:
		return false
	}
}

func (s *Session) retainStdout(line []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stdout.Len() < stdoutCap {
		s.stdout.Write(line)
		s.stdout.WriteByte('\n')
	}
}

func (s *Session) setAgentSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agentSession = id
}

func (s *Session) foldUsage(u stream.Usage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage = s.usage.Add(u)
}

// finish reaps the process and settles the session's terminal state. Runs in
// its own goroutine per session; readers must have returned already.
func (s *Session) finish(remove func(id string)) {
	waitErr := s.cmd.Wait()
	exitCode := exitCodeFrom(waitErr)

	s.mu.Lock()
	s.exitCode = exitCode
	killed := s.killed
	stderr := s.stderr.String()
	stdout := s.stdout.String()
	s.mu.Unlock()

	switch {
	case killed:
		s.setState(StateKilled)
		s.logger.Info("session killed", "session", s.ID, "exit_code", exitCode)
	default:
		if agentErr, ok := s.parser.DetectErrorFromExit(exitCode, stderr, stdout); ok {
			s.logger.Warn("session failed",
				"session", s.ID, "exit_code", exitCode, "category", agentErr.Category)
			// Deliver without blocking forever: the consumer may be gone.
			select {
			case s.errs <- agentErr:
			case <-s.quit:
			case <-time.After(killReap):
			}
			s.setState(StateFailed)
		} else {
			s.setState(StateExited)
			s.logger.Info("session exited", "session", s.ID, "exit_code", exitCode)
		}
	}

	close(s.events)
	close(s.errs)
	close(s.done)
	remove(s.ID)
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
}

// exitCodeFrom maps a Wait error to the conventional exit code, including the
// 128+signal convention for signal-terminated processes.
func exitCodeFrom(err error) int {
	if err == nil {
		return 0
	}
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return -1
	}
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return exitErr.ExitCode()
}
