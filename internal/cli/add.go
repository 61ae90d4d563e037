package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/accountdesk/pkg/types"
)

// accountSaver is implemented by backends that can create accounts.
type accountSaver interface {
	SaveAccount(ctx context.Context, a types.Account) (string, error)
}

type addOptions struct {
	id      string
	name    string
	owner   string
	ownerID string
	phone   string
	website string
	revenue string
}

func newAddCmd(a *app) *cobra.Command {
	var opts addOptions
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an account to the local store",
		Long: `Add creates an account in the sqlite backend. The ID is generated when
--id is not given; an existing --id is replaced.

Example:
  accountdesk add --name Acme --owner Alice --phone 555-0100 --revenue 500000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAdd(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.id, "id", "", "account ID (default: generated)")
	cmd.Flags().StringVar(&opts.name, "name", "", "account name (required)")
	cmd.Flags().StringVar(&opts.owner, "owner", "", "owner display name")
	cmd.Flags().StringVar(&opts.ownerID, "owner-id", "", "owner ID")
	cmd.Flags().StringVar(&opts.phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&opts.website, "website", "", "website URL")
	cmd.Flags().StringVar(&opts.revenue, "revenue", "", "annual revenue")
	cmd.MarkFlagRequired("name")
	return cmd
}

func (a *app) runAdd(cmd *cobra.Command, opts addOptions) error {
	account, err := opts.account()
	if err != nil {
		return userError(err)
	}

	backend, err := a.openBackend()
	if err != nil {
		return err
	}
	defer backend.Detach()

	saver, ok := backend.(accountSaver)
	if !ok {
		return userError(fmt.Errorf("the %s backend cannot add accounts", a.settings.backend))
	}
	id, err := saver.SaveAccount(cmd.Context(), account)
	if err != nil {
		if errors.Is(err, types.ErrInvalidName) {
			return userError(err)
		}
		return sysError(fmt.Errorf("save account: %w", err))
	}
	account.ID = id

	if a.flags.jsonMode {
		return writeJSON(cmd.OutOrStdout(), account)
	}
	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}

// account builds the record, validating optional fields the same way
// edits are validated.
func (o addOptions) account() (types.Account, error) {
	a := types.Account{ID: o.id, Name: o.name}
	if o.owner != "" || o.ownerID != "" {
		a.Owner = &types.Owner{ID: o.ownerID, Name: o.owner}
	}

	phone, err := types.FieldPhone.ParseValue(o.phone)
	if err != nil {
		return a, err
	}
	if s, ok := phone.(string); ok {
		a.Phone = &s
	}
	website, err := types.FieldWebsite.ParseValue(o.website)
	if err != nil {
		return a, err
	}
	if s, ok := website.(string); ok {
		a.Website = &s
	}
	revenue, err := types.FieldAnnualRevenue.ParseValue(o.revenue)
	if err != nil {
		return a, err
	}
	if d, ok := revenue.(decimal.Decimal); ok {
		a.AnnualRevenue = decimal.NewNullDecimal(d)
	}
	return a, nil
}
