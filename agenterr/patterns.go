package agenterr

import (
	"fmt"
	"regexp"
)

// Pattern maps raw text onto a category entry. The regexp is always compiled
// case-insensitively. UserMessage is what the UI shows; Recoverable is a
// property of the pattern itself ("rate limit" is always worth retrying,
// "credit balance too low" never is), not computed at match time.
type Pattern struct {
	re          *regexp.Regexp
	UserMessage string
	Recoverable bool
}

// NewPattern compiles expr case-insensitively. Panics on a bad expression;
// built-in tables are compiled at init and config-supplied tables go through
// CompilePattern instead.
func NewPattern(expr, userMessage string, recoverable bool) Pattern {
	return Pattern{
		re:          regexp.MustCompile(`(?i)` + expr),
		UserMessage: userMessage,
		Recoverable: recoverable,
	}
}

// CompilePattern is the error-returning variant of NewPattern for patterns
// loaded from configuration.
func CompilePattern(expr, userMessage string, recoverable bool) (Pattern, error) {
	re, err := regexp.Compile(`(?i)` + expr)
	if err != nil {
		return Pattern{}, fmt.Errorf("pattern %q: %w", expr, err)
	}
	return Pattern{re: re, UserMessage: userMessage, Recoverable: recoverable}, nil
}

// Matches reports whether the pattern matches anywhere in line.
func (p Pattern) Matches(line string) bool {
	if p.re == nil {
		return false
	}
	return p.re.MatchString(line)
}

// Expr returns the source expression without the case-folding prefix.
func (p Pattern) Expr() string {
	if p.re == nil {
		return ""
	}
	return p.re.String()
}

// Table holds a per-agent set of patterns grouped by category. Evaluation
// order across categories is fixed by categoryOrder; within a category the
// declaration order of the slice is the evaluation order.
type Table map[Category][]Pattern

// Classification is the outcome of a successful table match.
type Classification struct {
	Category    Category
	Message     string
	Recoverable bool
}

// Match evaluates the table against line. Categories are tried in the fixed
// taxonomy order and the first matching pattern wins. Returns false for an
// empty table, an empty line, or when nothing matches — a miss is "no error
// detected", never a Go error.
func (t Table) Match(line string) (Classification, bool) {
	if len(t) == 0 || line == "" {
		return Classification{}, false
	}
	for _, cat := range categoryOrder {
		for _, p := range t[cat] {
			if p.Matches(line) {
				return Classification{
					Category:    cat,
					Message:     p.UserMessage,
					Recoverable: p.Recoverable,
				}, true
			}
		}
	}
	return Classification{}, false
}
