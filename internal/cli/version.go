package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/accountdesk/pkg/accountdesk"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the accountdesk version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "accountdesk v%s\nmodule: %s\n", accountdesk.Version, accountdesk.ModulePath)
			if accountdesk.Commit != "" {
				fmt.Fprintf(out, "commit: %s\n", accountdesk.Commit)
			}
			return nil
		},
	}
}
