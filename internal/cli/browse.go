package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/accountdesk/internal/listing"
	"github.com/mesh-intelligence/accountdesk/internal/logging"
	"github.com/mesh-intelligence/accountdesk/internal/navigate"
	"github.com/mesh-intelligence/accountdesk/internal/sqlite"
	"github.com/mesh-intelligence/accountdesk/internal/tui"
)

func newBrowseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse and edit accounts in an interactive grid",
		Long: `Browse opens the account grid in the terminal.

  /        search account names
  h l      move between columns
  s        sort by the selected column (again to reverse)
  e        edit the selected cell
  ctrl+s   save staged edits
  u        discard staged edits
  o enter  open the account's detail view
  r        reload
  q        quit

Logs go to accountdesk.log in the data directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.runBrowse(ctx)
		},
	}
}

func (a *app) runBrowse(ctx context.Context) error {
	if err := os.MkdirAll(a.settings.dirs.Data, 0o755); err != nil {
		return sysError(fmt.Errorf("create data dir: %w", err))
	}
	logger, err := logging.NewWithOutput(a.settings.logLevel, a.settings.logFormat, a.settings.dirs.LogFile())
	if err != nil {
		return userError(fmt.Errorf("config: %w", err))
	}
	a.logger = logger

	nav := navigate.NewBrowser(a.settings.recordURLTemplate, a.logger)
	store, backend, err := a.openStore(ctx, listing.WithNavigator(nav))
	if err != nil {
		return err
	}
	defer backend.Detach()

	if local, ok := backend.(*sqlite.Backend); ok {
		a.watchSource(ctx, local, func() {
			if err := store.Load(ctx); err != nil {
				a.logger.Warn("reload grid", zap.Error(err))
			}
		})
	}

	if err := tui.Run(ctx, store); err != nil {
		return sysError(err)
	}
	return nil
}
