package linker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jadenj13/issuelink/internals/event"
	"github.com/jadenj13/issuelink/internals/git"
)

type fakeTracker struct {
	issues   map[int]git.Issue
	getErr   error
	files    []string
	filesErr error
	postErr  error

	comparedBase, comparedHead string
	posted                     map[int]string
}

func (f *fakeTracker) GetIssue(_ context.Context, n int) (git.Issue, error) {
	if f.getErr != nil {
		return git.Issue{}, f.getErr
	}
	issue, ok := f.issues[n]
	if !ok {
		return git.Issue{}, fmt.Errorf("fake get issue #%d: %w", n, git.ErrNotFound)
	}
	return issue, nil
}

func (f *fakeTracker) ChangedFiles(_ context.Context, base, head string) ([]string, error) {
	f.comparedBase, f.comparedHead = base, head
	return f.files, f.filesErr
}

func (f *fakeTracker) CreateComment(_ context.Context, n int, body string) (string, error) {
	if f.postErr != nil {
		return "", f.postErr
	}
	if f.posted == nil {
		f.posted = map[int]string{}
	}
	f.posted[n] = body
	return fmt.Sprintf("https://github.com/acme/widgets/issues/%d#issuecomment-1", n), nil
}

func (f *fakeTracker) RepoURL() string { return "https://github.com/acme/widgets" }

type fakeSummarizer struct {
	summary string
	err     error
	got     SummaryInput
}

func (f *fakeSummarizer) Summarize(_ context.Context, in SummaryInput) (string, error) {
	f.got = in
	return f.summary, f.err
}

type fakeNotifier struct {
	results []Result
	err     error
}

func (f *fakeNotifier) NotifyLinked(_ context.Context, res Result) error {
	f.results = append(f.results, res)
	return f.err
}

var fixedNow = time.Date(2026, 10, 19, 14, 5, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openIssue(n int, labels ...string) git.Issue {
	return git.Issue{Number: n, Title: "Sprockets", URL: fmt.Sprintf("https://github.com/acme/widgets/issues/%d", n), State: "open", Open: true, Labels: labels}
}

func testPush(msg string) event.Push {
	return event.Push{
		Before: "aaa",
		After:  "bbb",
		HeadCommit: event.Commit{
			SHA:     "bbb",
			Message: msg,
			Author:  "Jordan Lee",
		},
	}
}

func TestRun_Success(t *testing.T) {
	tr := &fakeTracker{
		issues: map[int]git.Issue{12: openIssue(12, "backend", "developing")},
		files:  []string{"cache.go", "cache_test.go"},
	}
	notifier := &fakeNotifier{}
	l := New(tr, discardLogger(), WithClock(func() time.Time { return fixedNow }), WithNotifier(notifier))

	res, err := l.Run(context.Background(), testPush("Wire sprocket cache, refs #12"))
	require.NoError(t, err)

	assert.Equal(t, 12, res.IssueNumber)
	assert.Equal(t, "https://github.com/acme/widgets/issues/12#issuecomment-1", res.CommentURL)
	assert.Equal(t, "aaa", tr.comparedBase)
	assert.Equal(t, "bbb", tr.comparedHead)

	want := "**Date:** Mon, 19 Oct 2026 14:05:00 UTC\n" +
		"**Author:** Jordan Lee\n" +
		"**Changed Files:**\n" +
		"> cache.go\n" +
		"> cache_test.go\n" +
		"\n**Commit Message:** Wire sprocket cache, refs #12"
	assert.Equal(t, want, tr.posted[12])
	assert.Equal(t, want, res.Comment)

	require.Len(t, notifier.results, 1)
	assert.Equal(t, "bbb", notifier.results[0].CommitSHA)
}

func TestRun_FirstReferenceWins(t *testing.T) {
	tr := &fakeTracker{issues: map[int]git.Issue{
		3: openIssue(3, "developing"),
		4: openIssue(4, "developing"),
	}}
	l := New(tr, discardLogger())

	res, err := l.Run(context.Background(), testPush("Fix #3 and #4"))
	require.NoError(t, err)
	assert.Equal(t, 3, res.IssueNumber)
	assert.NotContains(t, tr.posted, 4)
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name    string
		tracker *fakeTracker
		message string
		wantErr error
	}{
		{
			name:    "no reference",
			tracker: &fakeTracker{},
			message: "Refactor without ticket",
			wantErr: ErrNoLinkedIssue,
		},
		{
			name:    "zero is not a reference",
			tracker: &fakeTracker{},
			message: "Bump #0",
			wantErr: ErrNoLinkedIssue,
		},
		{
			name:    "issue not found",
			tracker: &fakeTracker{issues: map[int]git.Issue{}},
			message: "Fix #99",
			wantErr: ErrIssueNotFound,
		},
		{
			name:    "issue closed",
			tracker: &fakeTracker{issues: map[int]git.Issue{5: {Number: 5, State: "closed", Labels: []string{"developing"}}}},
			message: "Fix #5",
			wantErr: ErrIssueClosed,
		},
		{
			name:    "label missing",
			tracker: &fakeTracker{issues: map[int]git.Issue{5: openIssue(5, "Developing")}},
			message: "Fix #5",
			wantErr: ErrMissingLabel,
		},
		{
			name:    "reference overflows",
			tracker: &fakeTracker{},
			message: "Fix #99999999999999999999999",
			wantErr: ErrInvalidReference,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.tracker, discardLogger())
			_, err := l.Run(context.Background(), testPush(tt.message))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.Empty(t, tt.tracker.posted)
		})
	}
}

func TestRun_TrackerErrorsSurface(t *testing.T) {
	boom := errors.New("boom")

	tr := &fakeTracker{getErr: boom}
	_, err := New(tr, discardLogger()).Run(context.Background(), testPush("#1"))
	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, ErrIssueNotFound))

	tr = &fakeTracker{issues: map[int]git.Issue{1: openIssue(1, "developing")}, filesErr: boom}
	_, err = New(tr, discardLogger()).Run(context.Background(), testPush("#1"))
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, tr.posted)

	tr = &fakeTracker{issues: map[int]git.Issue{1: openIssue(1, "developing")}, postErr: boom}
	_, err = New(tr, discardLogger()).Run(context.Background(), testPush("#1"))
	assert.ErrorIs(t, err, boom)
}

func TestRun_CustomLabelAndPattern(t *testing.T) {
	tr := &fakeTracker{issues: map[int]git.Issue{42: openIssue(42, "in-progress")}}
	l := New(tr, discardLogger(),
		WithLabel("in-progress"),
		WithPattern(regexp.MustCompile(`GH-([1-9]\d*)`)),
	)

	res, err := l.Run(context.Background(), testPush("GH-42: tidy up #7"))
	require.NoError(t, err)
	assert.Equal(t, 42, res.IssueNumber)
}

func TestRun_Summary(t *testing.T) {
	tr := &fakeTracker{
		issues: map[int]git.Issue{1: openIssue(1, "developing")},
		files:  []string{"a.go"},
	}
	s := &fakeSummarizer{summary: "Adds a."}
	_, err := New(tr, discardLogger(), WithSummarizer(s)).Run(context.Background(), testPush("Add a (#1)"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a.go"}, s.got.ChangedFiles)
	assert.Contains(t, tr.posted[1], "\n\n**Summary:** Adds a.")
}

func TestRun_SideEffectFailuresAreNonFatal(t *testing.T) {
	tr := &fakeTracker{issues: map[int]git.Issue{1: openIssue(1, "developing")}}
	s := &fakeSummarizer{err: errors.New("rate limited")}
	n := &fakeNotifier{err: errors.New("slack down")}

	res, err := New(tr, discardLogger(), WithSummarizer(s), WithNotifier(n)).Run(context.Background(), testPush("#1"))
	require.NoError(t, err)
	assert.NotContains(t, res.Comment, "**Summary:**")
	assert.Len(t, n.results, 1)
}
