package parse

import (
	"fmt"
	"regexp"
	"strings"

	"agentcore/agenterr"
)

// stderrExcerptLimit bounds how much accumulated stderr is kept as raw
// context on a synthesized crash error.
const stderrExcerptLimit = 2000

// ErrorFromExit implements the shared exit-termination contract.
//
// Exit code 0 is success, with one exception: stderr is non-empty while
// stdout is empty. At least one supported agent family exits 0 on fatal
// misconfiguration and only complains on stderr, so that shape is treated as
// a failure — stderr is pattern-matched, and when nothing matches, an
// agent_crashed error is synthesized from the first stderr line that reads
// like prose rather than dumped source context.
//
// Non-zero exit always yields an error: a pattern match when one exists,
// otherwise an agent_crashed error naming the exit code with a truncated
// stderr excerpt preserved as raw context. Exit failures are never reported
// as absent.
func ErrorFromExit(agentID string, exitCode int, stderr, stdout string) (*agenterr.AgentError, bool) {
	table := agenterr.Defaults.Get(agentID)

	if exitCode == 0 {
		if strings.TrimSpace(stderr) == "" || strings.TrimSpace(stdout) != "" {
			return nil, false
		}
		if cls, ok := table.Match(stderr); ok {
			return agenterr.New(agentID, cls.Category, cls.Message, cls.Recoverable, excerpt(stderr)), true
		}
		msg := firstMeaningfulLine(stderr)
		if msg == "" {
			msg = fmt.Sprintf("The %s agent exited silently after writing to stderr.", agentID)
		}
		return agenterr.New(agentID, agenterr.CategoryAgentCrashed, msg, false, excerpt(stderr)), true
	}

	if cls, ok := table.Match(stderr); ok {
		return agenterr.New(agentID, cls.Category, cls.Message, cls.Recoverable, excerpt(stderr)), true
	}
	if cls, ok := table.Match(stdout); ok {
		return agenterr.New(agentID, cls.Category, cls.Message, cls.Recoverable, excerpt(stdout)), true
	}

	msg := fmt.Sprintf("The %s agent process exited with code %d.", agentID, exitCode)
	if line := firstMeaningfulLine(stderr); line != "" {
		msg = fmt.Sprintf("%s %s", msg, truncate(line, 200))
	}
	return agenterr.New(agentID, agenterr.CategoryAgentCrashed, msg, false, excerpt(stderr)), true
}

var (
	// Numbered source-context lines, e.g. "  42 | const x = 1" or "42: foo".
	sourceContextLine = regexp.MustCompile(`^\s*\d+\s*[|:]`)
	// Bare assignment statements dumped from config or env, e.g. "FOO=bar".
	assignmentLine = regexp.MustCompile(`^\s*[A-Za-z_][\w.]*\s*=\s*\S+$`)
	hasLetter      = regexp.MustCompile(`[A-Za-z]`)
	failureWords   = regexp.MustCompile(`(?i)\b(error|failed|failure|fatal|cannot|can't|unable|denied|invalid|missing|not found|exception|refused)\b`)
)

// firstMeaningfulLine picks the stderr line most likely to be a human-readable
// failure message. Best-effort heuristic: lines that are empty, letter-free,
// numbered source context, or bare assignments are skipped; among the rest, a
// line containing a failure-indicating word is preferred over the first one.
func firstMeaningfulLine(s string) string {
	var first string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !hasLetter.MatchString(line) {
			continue
		}
		if sourceContextLine.MatchString(line) || assignmentLine.MatchString(line) {
			continue
		}
		if failureWords.MatchString(line) {
			return line
		}
		if first == "" {
			first = line
		}
	}
	return first
}

func excerpt(s string) string {
	return truncate(strings.TrimSpace(s), stderrExcerptLimit)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
