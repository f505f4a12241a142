package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"

	"github.com/jadenj13/issuelink/internals/linker"
)

type SlackNotifier struct {
	client    *slack.Client
	channelID string // channel to post link notifications to
}

func NewSlackNotifier(botToken, channelID string, opts ...slack.Option) *SlackNotifier {
	return &SlackNotifier{
		client:    slack.New(botToken, opts...),
		channelID: channelID,
	}
}

func (n *SlackNotifier) NotifyLinked(ctx context.Context, res linker.Result) error {
	_, _, err := n.client.PostMessageContext(ctx, n.channelID,
		slack.MsgOptionText(linkedText(res), false),
	)
	if err != nil {
		return fmt.Errorf("slack notify: %w", err)
	}
	return nil
}

func linkedText(res linker.Result) string {
	sha := res.CommitSHA
	if len(sha) > 7 {
		sha = sha[:7]
	}
	return fmt.Sprintf(
		":link: Commit `%s` linked to *<%s|#%d %s>*\n"+
			"Comment: %s\n"+
			"Repo: %s",
		sha,
		res.IssueURL, res.IssueNumber, res.IssueTitle,
		res.CommentURL,
		res.RepoURL,
	)
}
