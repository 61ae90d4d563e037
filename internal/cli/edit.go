package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/accountdesk/internal/listing"
	"github.com/mesh-intelligence/accountdesk/pkg/types"
)

// fieldEdit is one parsed --set argument.
type fieldEdit struct {
	recordID string
	field    types.Field
	raw      string
}

// parseSet parses ID:field=value. An empty value clears the field.
func parseSet(arg string) (fieldEdit, error) {
	target, raw, ok := strings.Cut(arg, "=")
	if !ok {
		return fieldEdit{}, fmt.Errorf("invalid --set %q (expected ID:field=value)", arg)
	}
	id, name, ok := strings.Cut(target, ":")
	if !ok || id == "" || name == "" {
		return fieldEdit{}, fmt.Errorf("invalid --set %q (expected ID:field=value)", arg)
	}
	field, err := types.ParseField(name)
	if err != nil {
		return fieldEdit{}, err
	}
	return fieldEdit{recordID: id, field: field, raw: raw}, nil
}

func newEditCmd(a *app) *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "edit --set ID:field=value [--set ...]",
		Short: "Stage field edits and save them in one batch",
		Long: `Edit stages every --set value as a draft and saves all drafts together,
one update per record. Editable fields: phone, website, annualRevenue.
An empty value clears the field.

When some records fail, the others stay saved; the failures are listed and
the command exits with status 1.

Example:
  accountdesk edit --set 001:phone=555-0100 --set 002:annualRevenue=1200000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runEdit(cmd, sets)
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "ID:field=value edit (repeatable)")
	cmd.MarkFlagRequired("set")
	return cmd
}

func (a *app) runEdit(cmd *cobra.Command, sets []string) error {
	edits := make([]fieldEdit, 0, len(sets))
	for _, arg := range sets {
		e, err := parseSet(arg)
		if err != nil {
			return userError(err)
		}
		edits = append(edits, e)
	}

	store, backend, err := a.openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer backend.Detach()

	for _, e := range edits {
		if err := store.StageEdit(e.recordID, e.field, e.raw); err != nil {
			return userError(fmt.Errorf("stage %s:%s: %w", e.recordID, e.field, err))
		}
	}
	staged := store.View().Pending

	err = store.Commit(cmd.Context())
	if batch, ok := listing.IsBatchError(err); ok {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "saved %d of %d records\n", batch.Succeeded, len(staged))
		for _, f := range batch.Failed {
			fmt.Fprintf(out, "  %s: %v\n", f.RecordID, f.Err)
		}
		return userError(errors.New("some records were not saved"))
	}
	if err != nil {
		return sysError(err)
	}

	if a.flags.jsonMode {
		return writeJSON(cmd.OutOrStdout(), staged)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved %d records\n", len(staged))
	return nil
}
