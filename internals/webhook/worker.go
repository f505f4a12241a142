package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jadenj13/issuelink/internals/event"
	"github.com/jadenj13/issuelink/internals/git"
	"github.com/jadenj13/issuelink/internals/linker"
)

type TrackerFactory interface {
	TrackerFor(ctx context.Context, repoURL string) (git.Tracker, git.RepoInfo, error)
}

type Worker struct {
	factory TrackerFactory
	opts    []linker.Option
	log     *slog.Logger
}

func NewWorker(factory TrackerFactory, log *slog.Logger, opts ...linker.Option) *Worker {
	return &Worker{factory: factory, opts: opts, log: log}
}

// HandlePush runs the linker for one push against the repository it came from.
func (w *Worker) HandlePush(ctx context.Context, push event.Push) (linker.Result, error) {
	w.log.Info("handling push", "repo", push.RepoURL, "sha", push.HeadCommit.SHA)

	tracker, _, err := w.factory.TrackerFor(ctx, push.RepoURL)
	if err != nil {
		return linker.Result{}, fmt.Errorf("build tracker: %w", err)
	}

	res, err := linker.New(tracker, w.log, w.opts...).Run(ctx, push)
	if err != nil {
		return linker.Result{}, err
	}
	return res, nil
}

// rejected reports whether err is a failed link check rather than an
// infrastructure failure.
func rejected(err error) bool {
	return errors.Is(err, linker.ErrNoLinkedIssue) ||
		errors.Is(err, linker.ErrInvalidReference) ||
		errors.Is(err, linker.ErrIssueNotFound) ||
		errors.Is(err, linker.ErrIssueClosed) ||
		errors.Is(err, linker.ErrMissingLabel)
}
