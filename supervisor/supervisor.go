// Package supervisor owns the spawned agent process for each session, feeds
// its output through the agent's parser, and emits canonical events and
// errors to per-session subscribers.
//
// Sessions are independent units of concurrency: one process, one stdout
// reader goroutine, one event stream each, with no shared mutable state
// between sessions. Within a session, lines are parsed and delivered strictly
// in the order the process produced them.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"github.com/google/uuid"

	"agentcore/agenterr"
	"agentcore/config"
	"agentcore/internal/procattr"
	"agentcore/parse"
	"agentcore/stream"
)

// Options configures a Supervisor. Zero-value fields take defaults: the
// built-in config, the process-wide parser registry, and slog.Default.
type Options struct {
	Config  *config.Config
	Parsers *parse.Registry
	Logger  *slog.Logger
}

// Supervisor manages any number of concurrent agent sessions.
type Supervisor struct {
	cfg     *config.Config
	parsers *parse.Registry
	logger  *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// New returns a Supervisor ready to start sessions.
func New(opts Options) *Supervisor {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Parsers == nil {
		opts.Parsers = parse.Defaults
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Supervisor{
		cfg:      opts.Config,
		parsers:  opts.Parsers,
		logger:   opts.Logger,
		sessions: make(map[string]*Session),
	}
}

// StartOptions are per-session launch parameters layered over the agent's
// configured command.
type StartOptions struct {
	// Prompt, when non-empty, is appended as the final CLI argument.
	Prompt string
	// ExtraArgs are appended before the prompt.
	ExtraArgs []string
	// Env entries are added to the configured environment.
	Env map[string]string
	// WorkDir overrides the configured working directory.
	WorkDir string
}

// Start spawns agentID's process and begins streaming its output. Spawn is
// one of the two operations allowed to fail loudly; every later problem
// arrives on the session's error channel instead.
func (s *Supervisor) Start(ctx context.Context, agentID string, opts StartOptions) (*Session, error) {
	parser, ok := s.parsers.Get(agentID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAgent, agentID)
	}

	args, err := s.cfg.CommandArgs(agentID)
	if err != nil {
		return nil, &SpawnError{AgentID: agentID, Message: "resolve command", Cause: err}
	}
	args = append(args, opts.ExtraArgs...)
	if opts.Prompt != "" {
		args = append(args, opts.Prompt)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Env = os.Environ()
	agentCfg := s.cfg.Agents[agentID]
	for k, v := range agentCfg.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	for k, v := range opts.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	cmd.Dir = agentCfg.WorkDir
	if opts.WorkDir != "" {
		cmd.Dir = opts.WorkDir
	}
	procattr.Apply(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &SpawnError{AgentID: agentID, Message: "stdout pipe", Cause: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &SpawnError{AgentID: agentID, Message: "stderr pipe", Cause: err}
	}

	buffer := s.cfg.EventBuffer
	if buffer < 1 {
		buffer = 1
	}
	sess := &Session{
		ID:      uuid.NewString(),
		AgentID: agentID,
		parser:  parser,
		cmd:     cmd,
		logger:  s.logger,
		events:  make(chan stream.Event, buffer),
		errs:    make(chan *agenterr.AgentError, buffer),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
		state:   StateStarting,
	}

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, &CLINotFoundError{Path: args[0], Cause: err}
		}
		return nil, &SpawnError{AgentID: agentID, Message: "start process", Cause: err}
	}
	sess.setState(StateRunning)

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	s.logger.Info("session started",
		"session", sess.ID, "agent", agentID, "pid", cmd.Process.Pid)

	go func() {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			sess.readStdout(stdout)
		}()
		go func() {
			defer wg.Done()
			sess.readStderr(stderr)
		}()
		wg.Wait()
		sess.finish(s.remove)
	}()

	return sess, nil
}

// Get returns the active session with the given supervisor-assigned ID.
// Terminated sessions are no longer listed.
func (s *Supervisor) Get(sessionID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	return sess, ok
}

// Sessions returns all active sessions.
func (s *Supervisor) Sessions() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

// Kill cancels the session with the given ID.
func (s *Supervisor) Kill(sessionID string) error {
	sess, ok := s.Get(sessionID)
	if !ok {
		return fmt.Errorf("%w: %q", ErrSessionNotFound, sessionID)
	}
	return sess.Kill()
}

// KillAll cancels every active session and waits for each to reach a
// terminal state.
func (s *Supervisor) KillAll() {
	for _, sess := range s.Sessions() {
		if err := sess.Kill(); err != nil && !errors.Is(err, ErrNotRunning) {
			s.logger.Warn("kill failed", "session", sess.ID, "err", err)
		}
		<-sess.Done()
	}
}

func (s *Supervisor) remove(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}
