package supervisor

import (
	"errors"
	"fmt"
)

// Sentinel errors for supervisor lifecycle conditions.
var (
	ErrUnknownAgent    = errors.New("no parser registered for agent")
	ErrSessionNotFound = errors.New("session not found")
	ErrNotRunning      = errors.New("session is not running")
)

// SpawnError reports a failed process launch.
type SpawnError struct {
	Cause   error
	AgentID string
	Message string
}

func (e *SpawnError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("spawn %s: %s: %v", e.AgentID, e.Message, e.Cause)
	}
	return fmt.Sprintf("spawn %s: %s", e.AgentID, e.Message)
}

func (e *SpawnError) Unwrap() error {
	return e.Cause
}

// CLINotFoundError indicates the agent CLI binary was not found on PATH.
type CLINotFoundError struct {
	Cause error
	Path  string
}

func (e *CLINotFoundError) Error() string {
	return fmt.Sprintf("CLI binary not found at %q: %v", e.Path, e.Cause)
}

func (e *CLINotFoundError) Unwrap() error {
	return e.Cause
}
