package listing

import (
	"strings"

	"github.com/mesh-intelligence/accountdesk/pkg/types"
)

// Filter returns the accounts whose name contains term, ignoring case.
// An empty term returns every account. Order is preserved and the input
// slice is never modified.
func Filter(accounts []types.Account, term string) []types.Account {
	query := strings.ToLower(term)
	out := make([]types.Account, 0, len(accounts))
	for _, a := range accounts {
		if query == "" || strings.Contains(strings.ToLower(a.Name), query) {
			out = append(out, a)
		}
	}
	return out
}
