package cli

import (
	"log/slog"
	"net/url"

	"github.com/jadenj13/issuelink/internals/config"
	"github.com/jadenj13/issuelink/internals/git"
	"github.com/jadenj13/issuelink/internals/linker"
	"github.com/jadenj13/issuelink/internals/llm"
	"github.com/jadenj13/issuelink/internals/notify"
)

// newFactory builds the tracker factory. githubServerURL, when set, is the
// web root of the GitHub server the run belongs to, so Enterprise hosts with
// arbitrary names resolve to the GitHub backend.
func newFactory(cfg *config.Config, githubToken, githubAPIURL, githubServerURL string) *git.Factory {
	return git.NewFactory(githubToken, cfg.GitLab.Token,
		git.WithEnterpriseAPIURL(githubAPIURL),
		git.WithGitHubHost(hostname(githubServerURL)),
		git.WithGitLabBaseURL(cfg.GitLab.BaseURL),
	)
}

func hostname(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// sideEffects returns the optional summary and notification hooks enabled by cfg.
func sideEffects(cfg *config.Config, log *slog.Logger) []linker.Option {
	var opts []linker.Option
	if cfg.Anthropic.APIKey != "" {
		log.Debug("commit summaries enabled", "model", firstNonEmpty(cfg.Anthropic.Model, string(llm.DefaultModel)))
		opts = append(opts, linker.WithSummarizer(llm.NewClient(cfg.Anthropic.APIKey, llm.WithModel(cfg.Anthropic.Model))))
	}
	if cfg.Slack.Token != "" {
		log.Debug("slack notifications enabled", "channel", cfg.Slack.Channel)
		opts = append(opts, linker.WithNotifier(notify.NewSlackNotifier(cfg.Slack.Token, cfg.Slack.Channel)))
	}
	return opts
}
