package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/jadenj13/issuelink/internals/linker"
)

const (
	DefaultModel     = anthropic.ModelClaude4Sonnet20250514
	DefaultMaxTokens = 256

	// Changed-file lists beyond this are cut from the prompt.
	maxPromptFiles = 100
)

const summarySystemPrompt = `You summarise git commits for an issue tracker.
Reply with a single plain sentence describing what the commit changes.
Do not use markdown, do not quote the commit message, do not mention issue numbers.`

type Client struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	baseURL   string
}

type Option func(*Client)

func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = anthropic.Model(model)
		}
	}
}

func WithMaxTokens(n int64) Option {
	return func(c *Client) { c.maxTokens = n }
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		model:     DefaultModel,
		maxTokens: DefaultMaxTokens,
	}
	for _, o := range opts {
		o(c)
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if c.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(c.baseURL))
	}
	c.client = anthropic.NewClient(reqOpts...)
	return c
}

func (c *Client) Summarize(ctx context.Context, in linker.SummaryInput) (string, error) {
	text, err := c.complete(ctx, summarySystemPrompt, summaryPrompt(in))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func (c *Client) complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic api: %w", err)
	}

	if len(resp.Content) == 0 {
		return "", fmt.Errorf("anthropic returned empty content")
	}

	switch block := resp.Content[0]; block.Type {
	case "text":
		return block.Text, nil
	default:
		return "", fmt.Errorf("unexpected content block type: %s", block.Type)
	}
}

func summaryPrompt(in linker.SummaryInput) string {
	var sb strings.Builder
	sb.WriteString("Commit message:\n")
	sb.WriteString(in.Message)
	sb.WriteString("\n\nChanged files:\n")

	files := in.ChangedFiles
	if len(files) > maxPromptFiles {
		files = files[:maxPromptFiles]
	}
	for _, f := range files {
		sb.WriteString("- " + f + "\n")
	}
	if extra := len(in.ChangedFiles) - len(files); extra > 0 {
		fmt.Fprintf(&sb, "... (%d more files)\n", extra)
	}
	return sb.String()
}
