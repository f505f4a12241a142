package git

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v60/github"
	"golang.org/x/oauth2"
)

type GitHubTracker struct {
	gh   *github.Client
	info RepoInfo
}

type GitHubOption func(*githubOptions)

type githubOptions struct {
	apiURL string
}

// WithGitHubAPIURL points the client at a GitHub Enterprise API root such as
// https://ghe.example.com/api/v3. The public API URL is ignored.
func WithGitHubAPIURL(apiURL string) GitHubOption {
	return func(o *githubOptions) { o.apiURL = apiURL }
}

func NewGitHubTracker(ctx context.Context, token string, info RepoInfo, opts ...GitHubOption) (*GitHubTracker, error) {
	var o githubOptions
	for _, opt := range opts {
		opt(&o)
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	gh := github.NewClient(oauth2.NewClient(ctx, ts))
	if apiURL := strings.TrimRight(o.apiURL, "/"); apiURL != "" && apiURL != "https://api.github.com" {
		var err error
		gh, err = gh.WithEnterpriseURLs(apiURL, apiURL)
		if err != nil {
			return nil, fmt.Errorf("github enterprise url: %w", err)
		}
	}

	return &GitHubTracker{gh: gh, info: info}, nil
}

func (t *GitHubTracker) RepoURL() string { return t.info.RawURL }

func (t *GitHubTracker) GetIssue(ctx context.Context, number int) (Issue, error) {
	issue, resp, err := t.gh.Issues.Get(ctx, t.info.Owner, t.info.Repo, number)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return Issue{}, fmt.Errorf("github get issue #%d: %w", number, ErrNotFound)
		}
		return Issue{}, fmt.Errorf("github get issue: %w", err)
	}

	labels := make([]string, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		labels = append(labels, l.GetName())
	}

	return Issue{
		Number: issue.GetNumber(),
		Title:  issue.GetTitle(),
		URL:    issue.GetHTMLURL(),
		State:  issue.GetState(),
		Open:   issue.GetState() == "open",
		Labels: labels,
	}, nil
}

func (t *GitHubTracker) ChangedFiles(ctx context.Context, base, head string) ([]string, error) {
	if IsZeroSHA(base) {
		commit, _, err := t.gh.Repositories.GetCommit(ctx, t.info.Owner, t.info.Repo, head, nil)
		if err != nil {
			return nil, fmt.Errorf("github get commit: %w", err)
		}
		return commitFileNames(commit.Files), nil
	}

	cmp, _, err := t.gh.Repositories.CompareCommits(ctx, t.info.Owner, t.info.Repo, base, head, nil)
	if err != nil {
		return nil, fmt.Errorf("github compare commits: %w", err)
	}
	return commitFileNames(cmp.Files), nil
}

func (t *GitHubTracker) CreateComment(ctx context.Context, number int, body string) (string, error) {
	comment, _, err := t.gh.Issues.CreateComment(ctx, t.info.Owner, t.info.Repo, number, &github.IssueComment{
		Body: github.String(body),
	})
	if err != nil {
		return "", fmt.Errorf("github create comment: %w", err)
	}
	return comment.GetHTMLURL(), nil
}

func commitFileNames(files []*github.CommitFile) []string {
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.GetFilename())
	}
	return names
}
