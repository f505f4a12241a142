package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jadenj13/issuelink/internals/config"
	"github.com/jadenj13/issuelink/internals/linker"
	"github.com/jadenj13/issuelink/internals/logging"
	"github.com/jadenj13/issuelink/internals/webhook"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the check for every push delivered by GitHub or GitLab webhooks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, v)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default \":8080\")")
	_ = v.BindPFlag("webhook.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

func runServe(cmd *cobra.Command, v *viper.Viper) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	log := logging.New(cmd.ErrOrStderr(), cfg.Verbose)

	re, err := cfg.CompiledPattern()
	if err != nil {
		return err
	}
	opts := append(sideEffects(cfg, log), linker.WithLabel(cfg.Label), linker.WithPattern(re))

	factory := newFactory(cfg, cfg.GitHub.Token, cfg.GitHub.APIURL, "")
	worker := webhook.NewWorker(factory, log, opts...)
	hooks := webhook.NewServer(worker, cfg.Webhook.GitHubSecret, cfg.Webhook.GitLabSecret, log)

	srv := &http.Server{
		Addr:         cfg.Webhook.Addr,
		Handler:      hooks.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("webhook listening", "addr", cfg.Webhook.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")

	shutCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		return err
	}
	if err := hooks.Drain(shutCtx); err != nil {
		log.Warn("pushes still in flight at shutdown", "err", err)
	}
	return nil
}
