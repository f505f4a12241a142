// Package event normalises GitHub and GitLab push payloads into the single
// shape the linker consumes.
package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/go-github/v60/github"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

// ErrNoHeadCommit is returned for pushes that carry no head commit, such as
// branch deletions.
var ErrNoHeadCommit = errors.New("push has no head commit")

type Push struct {
	Before     string
	After      string
	RepoURL    string
	HeadCommit Commit
}

type Commit struct {
	SHA       string
	Message   string
	Author    string
	Timestamp time.Time
}

func FromGitHub(ev *github.PushEvent) (Push, error) {
	head := ev.GetHeadCommit()
	if head == nil {
		return Push{}, ErrNoHeadCommit
	}

	var ts time.Time
	if head.Timestamp != nil {
		ts = head.Timestamp.Time
	}

	return Push{
		Before:  ev.GetBefore(),
		After:   ev.GetAfter(),
		RepoURL: ev.GetRepo().GetHTMLURL(),
		HeadCommit: Commit{
			SHA:       head.GetID(),
			Message:   head.GetMessage(),
			Author:    head.GetAuthor().GetName(),
			Timestamp: ts,
		},
	}, nil
}

func FromGitLab(ev *gitlab.PushEvent) (Push, error) {
	if len(ev.Commits) == 0 {
		return Push{}, ErrNoHeadCommit
	}

	headSHA := ev.CheckoutSHA
	if headSHA == "" {
		headSHA = ev.After
	}

	// GitLab lists commits oldest first; the checkout SHA names the head.
	head := ev.Commits[len(ev.Commits)-1]
	for _, c := range ev.Commits {
		if c.ID == headSHA {
			head = c
			break
		}
	}

	var ts time.Time
	if head.Timestamp != nil {
		ts = *head.Timestamp
	}

	return Push{
		Before:  ev.Before,
		After:   ev.After,
		RepoURL: ev.Project.WebURL,
		HeadCommit: Commit{
			SHA:       head.ID,
			Message:   head.Message,
			Author:    head.Author.Name,
			Timestamp: ts,
		},
	}, nil
}

// LoadGitHubFile reads the event payload GitHub Actions writes to
// GITHUB_EVENT_PATH.
func LoadGitHubFile(path string) (Push, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Push{}, fmt.Errorf("read event file: %w", err)
	}
	var ev github.PushEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		return Push{}, fmt.Errorf("decode push event: %w", err)
	}
	return FromGitHub(&ev)
}
