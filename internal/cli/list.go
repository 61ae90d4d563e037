package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/accountdesk/internal/listing"
	"github.com/mesh-intelligence/accountdesk/pkg/types"
)

type listOptions struct {
	search string
	sort   string
	desc   bool
}

func newListCmd(a *app) *cobra.Command {
	var opts listOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts with optional search and sort",
		Long: `List loads every account, keeps those whose name contains the search
term (case-insensitive), and orders them by the sort field.

Sort fields: name, ownerName, phone, website, annualRevenue

Example:
  accountdesk list
  accountdesk list --search acme
  accountdesk list --sort annualRevenue --desc
  accountdesk list --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runList(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.search, "search", "s", "", "keep accounts whose name contains this term")
	cmd.Flags().StringVar(&opts.sort, "sort", "", "sort field")
	cmd.Flags().BoolVar(&opts.desc, "desc", false, "sort descending")
	return cmd
}

func (a *app) runList(cmd *cobra.Command, opts listOptions) error {
	var field types.Field
	if opts.sort != "" {
		f, err := types.ParseField(opts.sort)
		if err != nil {
			return userError(err)
		}
		field = f
	}

	store, backend, err := a.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer backend.Detach()

	store.Search(opts.search)
	if field != "" {
		dir := types.SortAscending
		if opts.desc {
			dir = types.SortDescending
		}
		if err := store.SortBy(field, dir); err != nil {
			return userError(err)
		}
	}

	view := store.View()
	if a.flags.jsonMode {
		return writeJSON(cmd.OutOrStdout(), view.Records)
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(view))
	return nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// renderTable draws the visible rows with the default columns. The sorted
// column's header carries an arrow.
func renderTable(view listing.View) string {
	headers := make([]string, len(types.DefaultColumns))
	for i, col := range types.DefaultColumns {
		headers[i] = col.Label
		if col.Field == view.SortField {
			headers[i] += sortArrow(view.SortDirection)
		}
	}

	rows := make([][]string, len(view.Records))
	for i := range view.Records {
		row := make([]string, len(types.DefaultColumns))
		for j, col := range types.DefaultColumns {
			row[j] = col.FormatValue(&view.Records[i])
		}
		rows[i] = row
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if types.DefaultColumns[col].Kind == types.KindCurrency {
				return cellStyle.Align(lipgloss.Right)
			}
			return cellStyle
		})

	return fmt.Sprintf("%s\n%d of %d accounts", t.String(), len(view.Records), view.Total)
}

func sortArrow(dir types.SortDirection) string {
	if dir == types.SortDescending {
		return " ↓"
	}
	return " ↑"
}

func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError(fmt.Errorf("marshal JSON: %w", err))
	}
	fmt.Fprintln(w, string(out))
	return nil
}
