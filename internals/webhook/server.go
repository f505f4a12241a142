package webhook

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/go-github/v60/github"
	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/jadenj13/issuelink/internals/event"
	"github.com/jadenj13/issuelink/internals/git"
	"github.com/jadenj13/issuelink/internals/linker"
)

// DefaultPushTimeout bounds the work done for a single accepted push.
const DefaultPushTimeout = 2 * time.Minute

type PushHandler interface {
	HandlePush(ctx context.Context, push event.Push) (linker.Result, error)
}

type Server struct {
	handler      PushHandler
	githubSecret string
	gitlabSecret string
	log          *slog.Logger
	pushTimeout  time.Duration

	inflight sync.WaitGroup
	// run executes accepted pushes; tests replace it to run synchronously.
	run func(func())
}

func NewServer(handler PushHandler, githubSecret, gitlabSecret string, log *slog.Logger) *Server {
	return &Server{
		handler:      handler,
		githubSecret: githubSecret,
		gitlabSecret: gitlabSecret,
		log:          log,
		pushTimeout:  DefaultPushTimeout,
		run:          func(f func()) { go f() },
	}
}

// Drain waits for accepted pushes to finish, or for ctx to end.
func (s *Server) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook/github", s.handleGitHub)
	mux.HandleFunc("/webhook/gitlab", s.handleGitLab)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func (s *Server) handleGitHub(w http.ResponseWriter, r *http.Request) {
	// An empty secret disables signature verification.
	body, err := github.ValidatePayload(r, []byte(s.githubSecret))
	if err != nil {
		s.log.Warn("github webhook verify failed", "err", err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if github.WebHookType(r) != "push" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	payload, err := github.ParseWebHook("push", body)
	if err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	push, err := event.FromGitHub(payload.(*github.PushEvent))
	if err != nil {
		// Branch deletions carry no head commit.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.dispatch(push)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleGitLab(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("x-gitlab-token") != s.gitlabSecret {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read error", http.StatusBadRequest)
		return
	}

	eventType := gitlab.HookEventType(r)
	if eventType != gitlab.EventTypePush {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	payload, err := gitlab.ParseWebhook(eventType, body)
	if err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	pe, ok := payload.(*gitlab.PushEvent)
	if !ok {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	push, err := event.FromGitLab(pe)
	if err != nil || git.IsZeroSHA(push.After) {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.dispatch(push)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) dispatch(push event.Push) {
	s.inflight.Add(1)
	s.run(func() {
		defer s.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.pushTimeout)
		defer cancel()

		res, err := s.handler.HandlePush(ctx, push)
		switch {
		case err == nil:
			s.log.Info("push linked", "repo", push.RepoURL, "issue", res.IssueNumber)
		case rejected(err):
			s.log.Warn("push rejected", "repo", push.RepoURL, "sha", push.HeadCommit.SHA, "reason", err)
		default:
			s.log.Error("handle push failed", "repo", push.RepoURL, "sha", push.HeadCommit.SHA, "err", err)
		}
	})
}
