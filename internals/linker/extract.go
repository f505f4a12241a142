package linker

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrNoLinkedIssue    = errors.New("no linked issue found")
	ErrInvalidReference = errors.New("invalid issue reference")
)

// DefaultPattern matches "#123" style references. Leading zeros and "#0" are
// not references.
var DefaultPattern = regexp.MustCompile(`#[1-9]\d*`)

// ExtractIssueNumber returns the first issue number referenced in message
// using DefaultPattern.
func ExtractIssueNumber(message string) (int, error) {
	return extractIssueNumber(DefaultPattern, message)
}

func extractIssueNumber(re *regexp.Regexp, message string) (int, error) {
	m := re.FindStringSubmatch(message)
	if m == nil {
		return 0, ErrNoLinkedIssue
	}

	// A capture group, when the pattern has one, holds the number.
	ref := m[0]
	if len(m) > 1 && m[1] != "" {
		ref = m[1]
	}
	ref = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(ref), "#"))

	n, err := strconv.Atoi(ref)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidReference, m[0])
	}
	return n, nil
}
