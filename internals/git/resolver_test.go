package git

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRepoURL(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		platform Platform
		host     string
		owner    string
		repo     string
		wantErr  bool
	}{
		{name: "github https", raw: "https://github.com/acme/widgets", platform: PlatformGitHub, host: "github.com", owner: "acme", repo: "widgets"},
		{name: "github ssh", raw: "git@github.com:acme/widgets.git", platform: PlatformGitHub, host: "github.com", owner: "acme", repo: "widgets"},
		{name: "github trailing slash", raw: "https://github.com/acme/widgets/", platform: PlatformGitHub, host: "github.com", owner: "acme", repo: "widgets"},
		{name: "gitlab nested groups", raw: "https://gitlab.com/acme/platform/widgets.git", platform: PlatformGitLab, host: "gitlab.com", owner: "acme/platform", repo: "widgets"},
		{name: "self-hosted gitlab", raw: "https://gitlab.corp.example/team/svc", platform: PlatformGitLab, host: "gitlab.corp.example", owner: "team", repo: "svc"},
		{name: "github missing repo", raw: "https://github.com/acme", wantErr: true},
		{name: "unknown host", raw: "https://bitbucket.org/acme/widgets", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := ParseRepoURL(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.platform, info.Platform)
			assert.Equal(t, tt.host, info.Host)
			assert.Equal(t, tt.owner, info.Owner)
			assert.Equal(t, tt.repo, info.Repo)
		})
	}
}

func TestRepoInfoWebURL(t *testing.T) {
	info, err := ParseRepoURL("git@gitlab.com:acme/platform/widgets.git")
	require.NoError(t, err)
	assert.Equal(t, "https://gitlab.com/acme/platform/widgets", info.WebURL())
}

func TestFactoryTrackerFor(t *testing.T) {
	ctx := context.Background()

	f := NewFactory("gh-token", "")
	tr, info, err := f.TrackerFor(ctx, "https://github.com/acme/widgets")
	require.NoError(t, err)
	assert.IsType(t, &GitHubTracker{}, tr)
	assert.Equal(t, PlatformGitHub, info.Platform)

	_, _, err = f.TrackerFor(ctx, "https://gitlab.com/acme/widgets")
	assert.ErrorContains(t, err, "no GitLab token")

	f = NewFactory("", "gl-token", WithGitLabBaseURL("https://gitlab.com/"))
	tr, _, err = f.TrackerFor(ctx, "https://gitlab.com/acme/widgets")
	require.NoError(t, err)
	assert.IsType(t, &GitLabTracker{}, tr)
}

func TestIsZeroSHA(t *testing.T) {
	assert.True(t, IsZeroSHA("0000000000000000000000000000000000000000"))
	assert.True(t, IsZeroSHA(""))
	assert.False(t, IsZeroSHA("0000000a"))
}

func TestParseRepoURL_KeepsPort(t *testing.T) {
	info, err := ParseRepoURL("https://gitlab.example.com:8443/grp/proj")
	require.NoError(t, err)
	assert.Equal(t, PlatformGitLab, info.Platform)
	assert.Equal(t, "gitlab.example.com:8443", info.Host)
	assert.Equal(t, "https://gitlab.example.com:8443/grp/proj", info.WebURL())

	f := NewFactory("", "gl-token")
	assert.Equal(t, "https://gitlab.example.com:8443", f.gitlabBaseURLFor(info))

	info, err = ParseRepoURL("https://gitlab.com/grp/proj")
	require.NoError(t, err)
	assert.Equal(t, "https://gitlab.com", f.gitlabBaseURLFor(info))
}

func TestFactoryTrackerFor_EnterpriseHost(t *testing.T) {
	ctx := context.Background()

	_, _, err := NewFactory("tok", "").TrackerFor(ctx, "https://git.acme.corp/acme/widgets")
	assert.ErrorContains(t, err, "cannot determine platform")

	f := NewFactory("tok", "",
		WithEnterpriseAPIURL("https://git.acme.corp/api/v3"),
		WithGitHubHost("git.acme.corp"),
	)
	tr, info, err := f.TrackerFor(ctx, "https://git.acme.corp/acme/widgets")
	require.NoError(t, err)
	assert.IsType(t, &GitHubTracker{}, tr)
	assert.Equal(t, PlatformGitHub, info.Platform)
	assert.Equal(t, "acme", info.Owner)
	assert.Equal(t, "widgets", info.Repo)
}
