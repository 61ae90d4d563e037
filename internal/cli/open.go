package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/accountdesk/internal/listing"
	"github.com/mesh-intelligence/accountdesk/internal/navigate"
	"github.com/mesh-intelligence/accountdesk/pkg/types"
)

func newOpenCmd(a *app) *cobra.Command {
	var printOnly bool
	cmd := &cobra.Command{
		Use:   "open <id>",
		Short: "Open an account's detail view",
		Long: `Open launches the account's detail view in the browser. The URL comes
from record_url_template with {id} replaced by the account ID.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var nav types.Navigator
			if printOnly {
				nav = navigate.NewWriter(cmd.OutOrStdout(), a.settings.recordURLTemplate)
			} else {
				nav = navigate.NewBrowser(a.settings.recordURLTemplate, a.logger)
			}
			return a.runOpen(cmd, args[0], nav)
		},
	}
	cmd.Flags().BoolVar(&printOnly, "print", false, "print the URL instead of opening it")
	return cmd
}

func (a *app) runOpen(cmd *cobra.Command, id string, nav types.Navigator) error {
	if _, err := navigate.RecordURL(a.settings.recordURLTemplate, id); err != nil {
		return userError(err)
	}

	store, backend, err := a.openStore(cmd.Context(), listing.WithNavigator(nav))
	if err != nil {
		return err
	}
	defer backend.Detach()

	if err := store.ActivateRow(id, types.ActionViewDetails); err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return userError(fmt.Errorf("no account with ID %s", id))
		}
		return sysError(err)
	}
	return nil
}
