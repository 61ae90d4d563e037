package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/accountdesk/internal/server"
	"github.com/mesh-intelligence/accountdesk/internal/sqlite"
	"github.com/mesh-intelligence/accountdesk/internal/watch"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve accounts over HTTP",
		Long: `Serve exposes the configured backend as the accountdesk HTTP API:

  GET   /health
  GET   /metrics
  GET   /api/accounts
  GET   /api/accounts/{id}
  PATCH /api/accounts/{id}

With the sqlite backend, edits made to accounts.jsonl outside the server
are picked up automatically.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.runServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	return cmd
}

func (a *app) runServe(ctx context.Context, addr string) error {
	backend, err := a.openBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	if local, ok := backend.(*sqlite.Backend); ok {
		a.watchSource(ctx, local, nil)
	}

	if err := server.New(backend, a.logger).ListenAndServe(ctx, addr); err != nil {
		return sysError(err)
	}
	return nil
}

// watchSource reloads the local backend when accounts.jsonl changes, then
// calls after (if set). Watch failures are logged and otherwise ignored.
func (a *app) watchSource(ctx context.Context, local *sqlite.Backend, after func()) {
	w, err := watch.New(local.SourcePath(), 0, a.logger)
	if err != nil {
		a.logger.Warn("not watching accounts file", zap.Error(err))
		return
	}
	go func() {
		defer w.Close()
		w.Run(ctx, func() {
			if err := local.Reload(ctx); err != nil {
				a.logger.Warn("reload accounts file", zap.Error(err))
				return
			}
			if after != nil {
				after()
			}
		})
	}()
}
