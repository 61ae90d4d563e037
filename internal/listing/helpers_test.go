package listing

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mesh-intelligence/accountdesk/pkg/types"
)

var errBackend = errors.New("backend unavailable")

// fakeSource returns a fixed account set, or err when set.
type fakeSource struct {
	mu       sync.Mutex
	accounts []types.Account
	err      error
	calls    int
}

func (f *fakeSource) ListAccounts(ctx context.Context) ([]types.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]types.Account, len(f.accounts))
	for i, a := range f.accounts {
		out[i] = a.Clone()
	}
	return out, nil
}

func (f *fakeSource) set(accounts []types.Account, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts = accounts
	f.err = err
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeUpdater records update calls and fails for IDs listed in failFor.
// Successful updates are written back to source so reloads see them.
type fakeUpdater struct {
	mu      sync.Mutex
	source  *fakeSource
	failFor map[string]error
	calls   []types.FieldDelta
}

func (f *fakeUpdater) UpdateRecord(ctx context.Context, delta types.FieldDelta) (types.Account, error) {
	f.mu.Lock()
	f.calls = append(f.calls, delta.Clone())
	err := f.failFor[delta.RecordID]
	f.mu.Unlock()
	if err != nil {
		return types.Account{}, err
	}

	f.source.mu.Lock()
	defer f.source.mu.Unlock()
	for i := range f.source.accounts {
		if f.source.accounts[i].ID == delta.RecordID {
			if err := f.source.accounts[i].Apply(delta.Changes); err != nil {
				return types.Account{}, err
			}
			return f.source.accounts[i].Clone(), nil
		}
	}
	return types.Account{}, types.ErrNotFound
}

func (f *fakeUpdater) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// recordingNavigator captures opened record IDs.
type recordingNavigator struct {
	opened []string
}

func (n *recordingNavigator) OpenRecordView(recordID string) {
	n.opened = append(n.opened, recordID)
}

func revenueOf(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}

// scenarioAccounts is the two-record set used across the listing tests.
func scenarioAccounts() []types.Account {
	return []types.Account{
		{ID: "1", Name: "Acme", Owner: &types.Owner{Name: "Jo"}, AnnualRevenue: revenueOf(100)},
		{ID: "2", Name: "Beta", Owner: &types.Owner{Name: "Al"}, AnnualRevenue: revenueOf(200)},
	}
}

func ids(accounts []types.Account) []string {
	out := make([]string, len(accounts))
	for i, a := range accounts {
		out[i] = a.ID
	}
	return out
}

func newTestStore(accounts []types.Account, opts ...Option) (*Store, *fakeSource, *fakeUpdater) {
	src := &fakeSource{accounts: accounts}
	upd := &fakeUpdater{source: src, failFor: map[string]error{}}
	return NewStore(src, upd, opts...), src, upd
}

func strPtr(s string) *string { return &s }
