package tui

import (
	"context"
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/accountdesk/internal/listing"
	"github.com/mesh-intelligence/accountdesk/pkg/types"
)

type memoryBackend struct {
	mu       sync.Mutex
	accounts []types.Account
	failFor  map[string]bool
	updates  []types.FieldDelta
}

func (b *memoryBackend) ListAccounts(ctx context.Context) ([]types.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]types.Account, len(b.accounts))
	for i, a := range b.accounts {
		out[i] = a.Clone()
	}
	return out, nil
}

func (b *memoryBackend) UpdateRecord(ctx context.Context, delta types.FieldDelta) (types.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updates = append(b.updates, delta)
	if b.failFor[delta.RecordID] {
		return types.Account{}, errors.New("rejected")
	}
	for i := range b.accounts {
		if b.accounts[i].ID == delta.RecordID {
			if err := b.accounts[i].Apply(delta.Changes); err != nil {
				return types.Account{}, err
			}
			return b.accounts[i].Clone(), nil
		}
	}
	return types.Account{}, types.ErrNotFound
}

type recordingNavigator struct {
	opened []string
}

func (n *recordingNavigator) OpenRecordView(id string) { n.opened = append(n.opened, id) }

func testAccounts() []types.Account {
	return []types.Account{
		{ID: "1", Name: "Acme", Owner: &types.Owner{Name: "Alice"}, Phone: strPtr("555-0100"),
			AnnualRevenue: decimal.NewNullDecimal(decimal.NewFromInt(500000))},
		{ID: "2", Name: "Beta Labs", Owner: &types.Owner{Name: "Bob"},
			AnnualRevenue: decimal.NewNullDecimal(decimal.NewFromInt(1250000))},
		{ID: "3", Name: "Alpha"},
	}
}

func newTestModel(t *testing.T, backend *memoryBackend, nav types.Navigator) Model {
	t.Helper()
	store := listing.NewStore(backend, backend, listing.WithNavigator(nav))
	require.NoError(t, store.Load(context.Background()))

	m := NewModel(context.Background(), store)
	t.Cleanup(m.Close)
	return update(t, m, tea.WindowSizeMsg{Width: 140, Height: 30})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, _ := m.Update(msg)
	return updated.(Model)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func visibleIDs(m Model) []string {
	ids := make([]string, len(m.view.Records))
	for i, a := range m.view.Records {
		ids[i] = a.ID
	}
	return ids
}

func TestModelShowsLoadedAccounts(t *testing.T) {
	m := newTestModel(t, &memoryBackend{accounts: testAccounts()}, nil)

	assert.Equal(t, []string{"1", "2", "3"}, visibleIDs(m))
	out := m.View()
	assert.Contains(t, out, "Account Name")
	assert.Contains(t, out, "Beta Labs")
	assert.Contains(t, out, "500000.00")
	assert.Contains(t, out, "3 of 3 accounts")
}

func TestModelSearch(t *testing.T) {
	m := newTestModel(t, &memoryBackend{accounts: testAccounts()}, nil)

	m = update(t, m, runes("/"))
	require.Equal(t, FocusSearch, m.focus)

	for _, r := range "AL" {
		m = update(t, m, runes(string(r)))
	}
	assert.Equal(t, "al", m.view.SearchTerm)
	assert.Equal(t, []string{"3"}, visibleIDs(m))

	// Enter keeps the filter and returns to the grid.
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, FocusTable, m.focus)
	assert.Equal(t, []string{"3"}, visibleIDs(m))

	// Esc in search mode clears the filter.
	m = update(t, m, runes("/"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEscape})
	assert.Equal(t, FocusTable, m.focus)
	assert.Equal(t, []string{"1", "2", "3"}, visibleIDs(m))
}

func TestModelSortToggle(t *testing.T) {
	m := newTestModel(t, &memoryBackend{accounts: testAccounts()}, nil)

	// Move to Annual Revenue.
	for i := 0; i < 4; i++ {
		m = update(t, m, runes("l"))
	}
	require.Equal(t, 4, m.column)

	m = update(t, m, runes("s"))
	assert.Equal(t, types.FieldAnnualRevenue, m.view.SortField)
	assert.Equal(t, types.SortAscending, m.view.SortDirection)
	assert.Equal(t, []string{"3", "1", "2"}, visibleIDs(m))

	m = update(t, m, runes("s"))
	assert.Equal(t, types.SortDescending, m.view.SortDirection)
	assert.Equal(t, []string{"2", "1", "3"}, visibleIDs(m))

	// Column movement stops at the edges.
	m = update(t, m, runes("l"))
	assert.Equal(t, 4, m.column)
}

func TestModelEditAndSave(t *testing.T) {
	backend := &memoryBackend{accounts: testAccounts()}
	m := newTestModel(t, backend, nil)

	m = update(t, m, runes("l"))
	m = update(t, m, runes("l"))
	require.Equal(t, types.FieldPhone, m.columns[m.column].Field)

	m = update(t, m, runes("e"))
	require.Equal(t, FocusEdit, m.focus)
	assert.Equal(t, "555-0100", m.editor.Value())

	m.editor.SetValue("555-0199")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, FocusTable, m.focus)
	require.Len(t, m.view.Pending, 1)
	assert.True(t, m.view.Dirty("1", types.FieldPhone))
	assert.Contains(t, m.View(), "555-0199"+dirtyMark)
	assert.Contains(t, m.View(), "1 unsaved")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	m = update(t, updated.(Model), cmd())

	assert.Equal(t, "saved", m.status)
	assert.Empty(t, m.view.Pending)
	require.Len(t, backend.updates, 1)
	assert.Equal(t, "555-0199", backend.updates[0].Changes[types.FieldPhone])
	require.NotNil(t, m.view.Records[0].Phone)
	assert.Equal(t, "555-0199", *m.view.Records[0].Phone)
}

func TestModelSaveKeepsFailedDrafts(t *testing.T) {
	backend := &memoryBackend{accounts: testAccounts(), failFor: map[string]bool{"2": true}}
	m := newTestModel(t, backend, nil)
	store := m.store

	require.NoError(t, store.StageEdit("1", types.FieldPhone, "1"))
	require.NoError(t, store.StageEdit("2", types.FieldPhone, "2"))
	m = update(t, m, viewMsg{})

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	require.NotNil(t, cmd)
	m = update(t, updated.(Model), cmd())

	assert.Equal(t, "saved 1 of 2 records", m.status)
	require.Len(t, m.view.Pending, 1)
	assert.True(t, m.view.Dirty("2", types.FieldPhone))
}

func TestModelEditRejectsReadOnlyAndInvalid(t *testing.T) {
	m := newTestModel(t, &memoryBackend{accounts: testAccounts()}, nil)

	m = update(t, m, runes("e"))
	assert.Equal(t, FocusTable, m.focus)
	assert.Contains(t, m.status, "read-only")

	// Website must be a URL.
	for i := 0; i < 3; i++ {
		m = update(t, m, runes("l"))
	}
	m = update(t, m, runes("e"))
	require.Equal(t, FocusEdit, m.focus)
	m.editor.SetValue("not a url")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, FocusEdit, m.focus)
	assert.Contains(t, m.status, "invalid")
	assert.Empty(t, m.view.Pending)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEscape})
	assert.Equal(t, FocusTable, m.focus)
}

func TestModelDiscard(t *testing.T) {
	m := newTestModel(t, &memoryBackend{accounts: testAccounts()}, nil)
	require.NoError(t, m.store.StageEdit("3", types.FieldWebsite, "https://alpha.example"))

	m = update(t, m, runes("u"))
	assert.Empty(t, m.view.Pending)
}

func TestModelOpenSelectedRecord(t *testing.T) {
	nav := &recordingNavigator{}
	m := newTestModel(t, &memoryBackend{accounts: testAccounts()}, nav)

	m = update(t, m, runes("j"))
	m = update(t, m, runes("o"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, []string{"2", "2"}, nav.opened)
}

func TestModelQuit(t *testing.T) {
	m := newTestModel(t, &memoryBackend{accounts: testAccounts()}, nil)

	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	_, isQuit := cmd().(tea.QuitMsg)
	assert.True(t, isQuit)
}

func TestModelReceivesStoreUpdates(t *testing.T) {
	m := newTestModel(t, &memoryBackend{accounts: testAccounts()}, nil)

	m.store.Search("beta")
	msg := listenForChanges(m.changed)()
	vm, ok := msg.(viewMsg)
	require.True(t, ok)

	updated, cmd := m.Update(vm)
	m = updated.(Model)
	assert.NotNil(t, cmd)
	assert.Equal(t, []string{"2"}, visibleIDs(m))
}

func TestModelEndsOnLatestViewAfterKeyBurst(t *testing.T) {
	m := newTestModel(t, &memoryBackend{accounts: testAccounts()}, nil)

	m = update(t, m, runes("/"))
	for _, r := range "abcdefghijklmnopqrstuvwxyz" {
		m = update(t, m, runes(string(r)))
	}

	// Drain every pending change notification through Update.
	for len(m.changed) > 0 {
		msg := listenForChanges(m.changed)()
		m = update(t, m, msg)
	}

	want := "abcdefghijklmnopqrstuvwxyz"
	assert.Equal(t, want, m.store.View().SearchTerm)
	assert.Equal(t, want, m.view.SearchTerm)
	assert.Empty(t, visibleIDs(m))
}

func TestModelClearSort(t *testing.T) {
	m := newTestModel(t, &memoryBackend{accounts: testAccounts()}, nil)

	m = update(t, m, runes("s"))
	require.Equal(t, types.FieldName, m.view.SortField)
	require.Equal(t, []string{"1", "3", "2"}, visibleIDs(m))

	m = update(t, m, runes("S"))
	assert.Empty(t, m.view.SortField)
	assert.Equal(t, []string{"1", "2", "3"}, visibleIDs(m))
}

func TestModelReload(t *testing.T) {
	backend := &memoryBackend{accounts: testAccounts()}
	m := newTestModel(t, backend, nil)

	backend.mu.Lock()
	backend.accounts = backend.accounts[:1]
	backend.mu.Unlock()

	updated, cmd := m.Update(runes("r"))
	require.NotNil(t, cmd)
	m = update(t, updated.(Model), cmd())
	assert.Equal(t, []string{"1"}, visibleIDs(m))
	assert.Empty(t, m.status)
}

func strPtr(s string) *string { return &s }
