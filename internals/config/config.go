package config

import (
	"fmt"
	"regexp"

	"github.com/spf13/viper"
)

// Config represents the full issuelink configuration
type Config struct {
	Label     string          `mapstructure:"label"`
	Pattern   string          `mapstructure:"pattern"`
	Verbose   bool            `mapstructure:"verbose"`
	GitHub    GitHubConfig    `mapstructure:"github"`
	GitLab    GitLabConfig    `mapstructure:"gitlab"`
	Webhook   WebhookConfig   `mapstructure:"webhook"`
	Slack     SlackConfig     `mapstructure:"slack"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
}

type GitHubConfig struct {
	Token  string `mapstructure:"token"`
	APIURL string `mapstructure:"api_url"`
}

type GitLabConfig struct {
	Token   string `mapstructure:"token"`
	BaseURL string `mapstructure:"base_url"`
}

// WebhookConfig contains settings for the serve command
type WebhookConfig struct {
	Addr         string `mapstructure:"addr"`
	GitHubSecret string `mapstructure:"github_secret"`
	GitLabSecret string `mapstructure:"gitlab_secret"`
}

type SlackConfig struct {
	Token   string `mapstructure:"token"`
	Channel string `mapstructure:"channel"` // channel ID, e.g. "C01234ABCDE"
}

type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// envBindings maps config keys to the environment variables CI systems and
// operators already set.
var envBindings = map[string][]string{
	"label":                 {"ISSUELINK_LABEL"},
	"pattern":               {"ISSUELINK_PATTERN"},
	"verbose":               {"ISSUELINK_VERBOSE"},
	"github.token":          {"ISSUELINK_GITHUB_TOKEN", "GITHUB_TOKEN"},
	"github.api_url":        {"ISSUELINK_GITHUB_API_URL", "GITHUB_API_URL"},
	"gitlab.token":          {"ISSUELINK_GITLAB_TOKEN", "GITLAB_TOKEN"},
	"gitlab.base_url":       {"ISSUELINK_GITLAB_BASE_URL", "GITLAB_BASE_URL"},
	"webhook.addr":          {"ISSUELINK_ADDR"},
	"webhook.github_secret": {"GITHUB_WEBHOOK_SECRET"},
	"webhook.gitlab_secret": {"GITLAB_WEBHOOK_SECRET"},
	"slack.token":           {"SLACK_BOT_TOKEN"},
	"slack.channel":         {"SLACK_NOTIFY_CHANNEL"},
	"anthropic.api_key":     {"ANTHROPIC_API_KEY"},
	"anthropic.model":       {"ISSUELINK_ANTHROPIC_MODEL"},
}

// Bind registers defaults and environment bindings on v.
func Bind(v *viper.Viper) error {
	v.SetDefault("label", "developing")
	v.SetDefault("pattern", `#[1-9]\d*`)
	v.SetDefault("gitlab.base_url", "https://gitlab.com")
	v.SetDefault("webhook.addr", ":8080")

	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}

// Load loads configuration from v, which must already have flags, file and
// environment bound.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late in a run.
func (c *Config) Validate() error {
	if c.Label == "" {
		return fmt.Errorf("label must not be empty")
	}
	if _, err := c.CompiledPattern(); err != nil {
		return err
	}
	if (c.Slack.Token == "") != (c.Slack.Channel == "") {
		return fmt.Errorf("slack.token and slack.channel must be set together")
	}
	return nil
}

func (c *Config) CompiledPattern() (*regexp.Regexp, error) {
	re, err := regexp.Compile(c.Pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", c.Pattern, err)
	}
	return re, nil
}
