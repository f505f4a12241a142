package git

import (
	"context"
	"fmt"
	"net/http"

	gitlab "gitlab.com/gitlab-org/api/client-go"
)

type GitLabTracker struct {
	gl   *gitlab.Client
	info RepoInfo
}

func NewGitLabTracker(token, baseURL string, info RepoInfo) (*GitLabTracker, error) {
	gl, err := gitlab.NewClient(token, gitlab.WithBaseURL(baseURL+"/api/v4"))
	if err != nil {
		return nil, fmt.Errorf("gitlab client: %w", err)
	}
	return &GitLabTracker{gl: gl, info: info}, nil
}

func (t *GitLabTracker) RepoURL() string { return t.info.RawURL }

func (t *GitLabTracker) pid() string {
	return t.info.Owner + "/" + t.info.Repo
}

func (t *GitLabTracker) GetIssue(ctx context.Context, number int) (Issue, error) {
	issue, resp, err := t.gl.Issues.GetIssue(t.pid(), int64(number), gitlab.WithContext(ctx))
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return Issue{}, fmt.Errorf("gitlab get issue #%d: %w", number, ErrNotFound)
		}
		return Issue{}, fmt.Errorf("gitlab get issue: %w", err)
	}
	return Issue{
		Number: int(issue.IID), // IID is the project-scoped issue number
		Title:  issue.Title,
		URL:    issue.WebURL,
		State:  issue.State,
		Open:   issue.State == "opened",
		Labels: []string(issue.Labels),
	}, nil
}

func (t *GitLabTracker) ChangedFiles(ctx context.Context, base, head string) ([]string, error) {
	var diffs []*gitlab.Diff
	if IsZeroSHA(base) {
		d, _, err := t.gl.Commits.GetCommitDiff(t.pid(), head, &gitlab.GetCommitDiffOptions{}, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("gitlab commit diff: %w", err)
		}
		diffs = d
	} else {
		cmp, _, err := t.gl.Repositories.Compare(t.pid(), &gitlab.CompareOptions{
			From: gitlab.Ptr(base),
			To:   gitlab.Ptr(head),
		}, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("gitlab compare: %w", err)
		}
		diffs = cmp.Diffs
	}

	names := make([]string, 0, len(diffs))
	for _, d := range diffs {
		names = append(names, d.NewPath)
	}
	return names, nil
}

func (t *GitLabTracker) CreateComment(ctx context.Context, number int, body string) (string, error) {
	note, _, err := t.gl.Notes.CreateIssueNote(t.pid(), int64(number), &gitlab.CreateIssueNoteOptions{
		Body: gitlab.Ptr(body),
	}, gitlab.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("gitlab create note: %w", err)
	}
	// Notes carry no web URL; link to the anchor on the issue page.
	return fmt.Sprintf("%s/-/issues/%d#note_%d", t.info.WebURL(), number, note.ID), nil
}
