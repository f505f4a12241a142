package git

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

type RepoInfo struct {
	Platform Platform
	Scheme   string
	Host     string // e.g. "github.com" or "gitlab.mycompany.com:8443", port kept
	Owner    string // GitLab owners may contain nested groups: "group/sub"
	Repo     string
	RawURL   string
}

// WebURL is the browsable project URL without a .git suffix.
func (r RepoInfo) WebURL() string {
	scheme := r.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, r.Host, r.Owner, r.Repo)
}

// ParseRepoURL splits a repository URL into its parts. githubHosts names
// extra hostnames, such as a GitHub Enterprise Server, that serve GitHub.
func ParseRepoURL(rawURL string, githubHosts ...string) (RepoInfo, error) {
	rawURL = strings.TrimSpace(rawURL)

	if strings.HasPrefix(rawURL, "git@") {
		rawURL = normaliseSSH(rawURL)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return RepoInfo{}, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}

	host := strings.ToLower(u.Host)
	platform, err := detectPlatform(strings.ToLower(u.Hostname()), githubHosts)
	if err != nil {
		return RepoInfo{}, err
	}

	path := strings.Trim(u.Path, "/")
	path = strings.TrimSuffix(path, ".git")

	parts := strings.Split(path, "/")

	switch platform {
	case PlatformGitHub:
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return RepoInfo{}, fmt.Errorf("github URL must have owner and repo: %q", rawURL)
		}
		return RepoInfo{
			Platform: PlatformGitHub,
			Scheme:   u.Scheme,
			Host:     host,
			Owner:    parts[0],
			Repo:     parts[1],
			RawURL:   rawURL,
		}, nil

	case PlatformGitLab:
		if len(parts) < 2 || parts[0] == "" || parts[len(parts)-1] == "" {
			return RepoInfo{}, fmt.Errorf("gitlab URL must have at least namespace and repo: %q", rawURL)
		}
		return RepoInfo{
			Platform: PlatformGitLab,
			Scheme:   u.Scheme,
			Host:     host,
			Owner:    strings.Join(parts[:len(parts)-1], "/"),
			Repo:     parts[len(parts)-1],
			RawURL:   rawURL,
		}, nil
	}

	return RepoInfo{}, fmt.Errorf("unsupported platform for host %q", host)
}

func detectPlatform(host string, githubHosts []string) (Platform, error) {
	for _, h := range githubHosts {
		if strings.EqualFold(h, host) {
			return PlatformGitHub, nil
		}
	}

	switch {
	case host == "github.com" || strings.HasSuffix(host, ".github.com") || strings.HasPrefix(host, "github."):
		return PlatformGitHub, nil
	case host == "gitlab.com" || strings.Contains(host, "gitlab"):
		return PlatformGitLab, nil
	default:
		return 0, fmt.Errorf("cannot determine platform from host %q, expected a github or gitlab domain", host)
	}
}

func normaliseSSH(s string) string {
	s = strings.TrimPrefix(s, "git@")
	s = strings.Replace(s, ":", "/", 1)
	return "https://" + s
}

type Factory struct {
	githubToken   string
	githubAPIURL  string
	githubHosts   []string
	gitlabToken   string
	gitlabBaseURL string
}

type FactoryOption func(*Factory)

func WithGitLabBaseURL(baseURL string) FactoryOption {
	return func(f *Factory) {
		if baseURL != "" {
			f.gitlabBaseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithEnterpriseAPIURL is used for GitHub Enterprise hosts.
func WithEnterpriseAPIURL(apiURL string) FactoryOption {
	return func(f *Factory) { f.githubAPIURL = apiURL }
}

// WithGitHubHost treats host as a GitHub server even when its name does not
// say so. Empty hosts are ignored.
func WithGitHubHost(host string) FactoryOption {
	return func(f *Factory) {
		if host != "" {
			f.githubHosts = append(f.githubHosts, host)
		}
	}
}

func NewFactory(githubToken, gitlabToken string, opts ...FactoryOption) *Factory {
	f := &Factory{
		githubToken:   githubToken,
		gitlabToken:   gitlabToken,
		gitlabBaseURL: "https://gitlab.com",
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

func (f *Factory) TrackerFor(ctx context.Context, repoURL string) (Tracker, RepoInfo, error) {
	info, err := ParseRepoURL(repoURL, f.githubHosts...)
	if err != nil {
		return nil, RepoInfo{}, err
	}

	switch info.Platform {
	case PlatformGitHub:
		if f.githubToken == "" {
			return nil, info, fmt.Errorf("no GitHub token configured")
		}
		t, err := NewGitHubTracker(ctx, f.githubToken, info, WithGitHubAPIURL(f.githubAPIURL))
		return t, info, err

	case PlatformGitLab:
		if f.gitlabToken == "" {
			return nil, info, fmt.Errorf("no GitLab token configured")
		}
		t, err := NewGitLabTracker(f.gitlabToken, f.gitlabBaseURLFor(info), info)
		return t, info, err
	}

	return nil, info, fmt.Errorf("unsupported platform: %s", info.Platform)
}

// gitlabBaseURLFor uses the configured base URL for gitlab.com and the
// repository's own scheme, host and port for self-hosted instances.
func (f *Factory) gitlabBaseURLFor(info RepoInfo) string {
	if info.Host == "gitlab.com" {
		return f.gitlabBaseURL
	}
	return info.Scheme + "://" + info.Host
}
