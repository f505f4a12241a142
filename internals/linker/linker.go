// Package linker checks that a pushed commit references an open, labelled
// issue and records the commit on that issue.
package linker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/jadenj13/issuelink/internals/event"
	"github.com/jadenj13/issuelink/internals/git"
)

const DefaultLabel = "developing"

var (
	ErrIssueNotFound = errors.New("linked issue not found")
	ErrIssueClosed   = errors.New("linked issue is closed")
	ErrMissingLabel  = errors.New("linked issue is missing the required label")
)

type Summarizer interface {
	Summarize(ctx context.Context, in SummaryInput) (string, error)
}

type SummaryInput struct {
	Message      string
	ChangedFiles []string
}

type Notifier interface {
	NotifyLinked(ctx context.Context, res Result) error
}

type Result struct {
	IssueNumber int
	IssueTitle  string
	IssueURL    string
	CommentURL  string
	Comment     string
	RepoURL     string
	CommitSHA   string
}

type Linker struct {
	tracker    git.Tracker
	label      string
	pattern    *regexp.Regexp
	summarizer Summarizer
	notifier   Notifier
	now        func() time.Time
	log        *slog.Logger
}

type Option func(*Linker)

func WithLabel(label string) Option {
	return func(l *Linker) {
		if label != "" {
			l.label = label
		}
	}
}

func WithPattern(re *regexp.Regexp) Option {
	return func(l *Linker) {
		if re != nil {
			l.pattern = re
		}
	}
}

func WithSummarizer(s Summarizer) Option {
	return func(l *Linker) { l.summarizer = s }
}

func WithNotifier(n Notifier) Option {
	return func(l *Linker) { l.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(l *Linker) { l.now = now }
}

func New(tracker git.Tracker, log *slog.Logger, opts ...Option) *Linker {
	l := &Linker{
		tracker: tracker,
		label:   DefaultLabel,
		pattern: DefaultPattern,
		now:     time.Now,
		log:     log,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Run validates the issue referenced by the head commit of push and comments
// on it. The first failed check is returned and nothing is posted.
func (l *Linker) Run(ctx context.Context, push event.Push) (Result, error) {
	msg := push.HeadCommit.Message
	l.log.Debug("checking commit message", "sha", push.HeadCommit.SHA, "message", msg)

	number, err := extractIssueNumber(l.pattern, msg)
	if err != nil {
		return Result{}, err
	}
	l.log.Debug("issue reference found", "issue", number)

	issue, err := l.tracker.GetIssue(ctx, number)
	if err != nil {
		if errors.Is(err, git.ErrNotFound) {
			return Result{}, fmt.Errorf("%w: #%d", ErrIssueNotFound, number)
		}
		return Result{}, fmt.Errorf("fetch issue: %w", err)
	}
	l.log.Debug("issue fetched", "issue", issue.Number, "state", issue.State, "labels", issue.Labels)

	if !issue.Open {
		return Result{}, fmt.Errorf("%w: #%d", ErrIssueClosed, number)
	}
	if !issue.HasLabel(l.label) {
		return Result{}, fmt.Errorf("%w %q: #%d", ErrMissingLabel, l.label, number)
	}

	files, err := l.tracker.ChangedFiles(ctx, push.Before, push.After)
	if err != nil {
		return Result{}, fmt.Errorf("changed files: %w", err)
	}

	var summary string
	if l.summarizer != nil {
		summary, err = l.summarizer.Summarize(ctx, SummaryInput{Message: msg, ChangedFiles: files})
		if err != nil {
			l.log.Warn("commit summary failed", "err", err)
			// Non-fatal: post the comment without a summary.
			summary = ""
		}
	}

	body := FormatComment(CommentInput{
		Date:         l.now(),
		Author:       push.HeadCommit.Author,
		ChangedFiles: files,
		Message:      msg,
		Summary:      summary,
	})

	commentURL, err := l.tracker.CreateComment(ctx, number, body)
	if err != nil {
		return Result{}, fmt.Errorf("post comment: %w", err)
	}

	res := Result{
		IssueNumber: number,
		IssueTitle:  issue.Title,
		IssueURL:    issue.URL,
		CommentURL:  commentURL,
		Comment:     body,
		RepoURL:     l.tracker.RepoURL(),
		CommitSHA:   push.HeadCommit.SHA,
	}
	l.log.Info("linked issue verified", "issue", number, "comment", commentURL)

	if l.notifier != nil {
		if err := l.notifier.NotifyLinked(ctx, res); err != nil {
			l.log.Warn("failed to send notification", "err", err)
		}
	}

	return res, nil
}
