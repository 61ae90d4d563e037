package listing

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mesh-intelligence/accountdesk/pkg/types"
)

// comparator orders two accounts ascending on one field.
type comparator func(a, b *types.Account) int

// comparators maps each logical field to its typed comparator. The owner
// field reads the nested owner reference.
var comparators = map[types.Field]comparator{
	types.FieldName:          byString(func(a *types.Account) *string { return &a.Name }),
	types.FieldOwnerName:     byString((*types.Account).OwnerName),
	types.FieldPhone:         byString(func(a *types.Account) *string { return a.Phone }),
	types.FieldWebsite:       byString(func(a *types.Account) *string { return a.Website }),
	types.FieldAnnualRevenue: byRevenue,
}

// Sort returns a copy of accounts ordered by field. The sort is stable:
// accounts with equal keys keep their input order. A missing value
// orders before any present value, so descending order is the exact
// mirror of ascending.
// Returns ErrInvalidField for fields without a comparator.
func Sort(accounts []types.Account, field types.Field, direction types.SortDirection) ([]types.Account, error) {
	compare, ok := comparators[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidField, field)
	}
	sign := 1
	if direction == types.SortDescending {
		sign = -1
	}

	out := slices.Clone(accounts)
	slices.SortStableFunc(out, func(a, b types.Account) int {
		return sign * compare(&a, &b)
	})
	return out, nil
}

func byString(get func(*types.Account) *string) comparator {
	return func(a, b *types.Account) int {
		return compareNullable(get(a), get(b), strings.Compare)
	}
}

func byRevenue(a, b *types.Account) int {
	return compareNullable(revenue(a), revenue(b), func(x, y decimal.Decimal) int {
		return x.Cmp(y)
	})
}

func revenue(a *types.Account) *decimal.Decimal {
	if !a.AnnualRevenue.Valid {
		return nil
	}
	return &a.AnnualRevenue.Decimal
}

// compareNullable orders nil before any value and defers to compare for
// two present values.
func compareNullable[T any](a, b *T, compare func(x, y T) int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return cmp.Compare(compare(*a, *b), 0)
	}
}
