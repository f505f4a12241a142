package cli

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/sethvargo/go-githubactions"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jadenj13/issuelink/internals/config"
	"github.com/jadenj13/issuelink/internals/event"
	"github.com/jadenj13/issuelink/internals/linker"
	"github.com/jadenj13/issuelink/internals/logging"
)

// Action inputs and outputs; action.yml declares the same names.
const (
	inputToken   = "token"
	inputLabel   = "label"
	inputPattern = "pattern"

	outputIssueNumber = "issue-number"
	outputCommentURL  = "comment-url"
)

type checkFlags struct {
	event   string
	repo    string
	label   string
	pattern string
}

func newCheckCmd(v *viper.Viper) *cobra.Command {
	var f checkFlags

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check the head commit of a push event and comment on its issue",
		Long: `Check runs once per push. Inside GitHub Actions the event file, repository and
inputs (token, label, pattern) come from the runner environment; the flags
below override them when running locally.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, v, f)
		},
	}

	cmd.Flags().StringVar(&f.event, "event", "", "path to a GitHub push event payload (default $GITHUB_EVENT_PATH)")
	cmd.Flags().StringVar(&f.repo, "repo", "", "repository URL (default from the event payload)")
	cmd.Flags().StringVar(&f.label, "label", "", "label the linked issue must carry (default \"developing\")")
	cmd.Flags().StringVar(&f.pattern, "pattern", "", "regular expression matching issue references")
	return cmd
}

func runCheck(cmd *cobra.Command, v *viper.Viper, f checkFlags) error {
	ctx := cmd.Context()

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	log := logging.New(cmd.ErrOrStderr(), cfg.Verbose)
	action := githubactions.New(githubactions.WithWriter(cmd.OutOrStdout()))

	ghctx, err := action.Context()
	if err != nil {
		return fmt.Errorf("read actions context: %w", err)
	}

	eventPath := firstNonEmpty(f.event, ghctx.EventPath)
	if eventPath == "" {
		return fmt.Errorf("no push event: pass --event or run inside GitHub Actions")
	}

	push, err := event.LoadGitHubFile(eventPath)
	if errors.Is(err, event.ErrNoHeadCommit) {
		log.Info("push has no head commit, nothing to check")
		return nil
	}
	if err != nil {
		return err
	}

	var actionRepo string
	if ghctx.Repository != "" {
		actionRepo = ghctx.ServerURL + "/" + ghctx.Repository
	}
	repoURL := firstNonEmpty(f.repo, push.RepoURL, actionRepo)

	opts := sideEffects(cfg, log)
	opts = append(opts, linker.WithLabel(firstNonEmpty(f.label, action.GetInput(inputLabel), cfg.Label)))
	if p := firstNonEmpty(f.pattern, action.GetInput(inputPattern)); p != "" {
		re, err := regexp.Compile(p)
		if err != nil {
			return fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		opts = append(opts, linker.WithPattern(re))
	} else {
		re, err := cfg.CompiledPattern()
		if err != nil {
			return err
		}
		opts = append(opts, linker.WithPattern(re))
	}

	token := firstNonEmpty(action.GetInput(inputToken), cfg.GitHub.Token)
	factory := newFactory(cfg, token, firstNonEmpty(cfg.GitHub.APIURL, ghctx.APIURL), ghctx.ServerURL)
	tracker, info, err := factory.TrackerFor(ctx, repoURL)
	if err != nil {
		return fmt.Errorf("build tracker: %w", err)
	}
	log.Debug("tracker ready", "platform", info.Platform, "owner", info.Owner, "repo", info.Repo)

	res, err := linker.New(tracker, log, opts...).Run(ctx, push)
	if err != nil {
		log.Error("error verifying linked issue", "err", err)
		action.Errorf("%v", err)
		return err
	}

	action.SetOutput(outputIssueNumber, strconv.Itoa(res.IssueNumber))
	action.SetOutput(outputCommentURL, res.CommentURL)
	action.AddStepSummary(res.Comment)
	return nil
}
