package git

import (
	"context"
	"errors"
	"slices"
)

// ErrNotFound is returned when the tracker has no issue with the requested number.
var ErrNotFound = errors.New("issue not found")

type Tracker interface {
	GetIssue(ctx context.Context, number int) (Issue, error)
	// ChangedFiles lists the paths touched between two commits. A zero base
	// SHA means the head commit starts a new branch.
	ChangedFiles(ctx context.Context, base, head string) ([]string, error)
	CreateComment(ctx context.Context, number int, body string) (string, error)
	RepoURL() string
}

type Issue struct {
	Number int
	Title  string
	URL    string
	State  string // raw tracker state, e.g. "open", "opened", "closed"
	Open   bool
	Labels []string
}

func (i Issue) HasLabel(name string) bool {
	return slices.Contains(i.Labels, name)
}

type Platform int

const (
	PlatformGitHub Platform = iota
	PlatformGitLab
)

func (p Platform) String() string {
	switch p {
	case PlatformGitHub:
		return "github"
	case PlatformGitLab:
		return "gitlab"
	default:
		return "unknown"
	}
}

// IsZeroSHA reports whether sha is the all-zero object id sent for branch
// creation and deletion.
func IsZeroSHA(sha string) bool {
	if sha == "" {
		return true
	}
	for _, c := range sha {
		if c != '0' {
			return false
		}
	}
	return true
}
