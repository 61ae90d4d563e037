package listing

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/accountdesk/pkg/types"
)

// View is an immutable snapshot of the store handed to renderers and
// subscribers.
type View struct {
	Records       []types.Account // visible rows, filtered and sorted
	Total         int             // number of loaded records
	SearchTerm    string
	SortField     types.Field
	SortDirection types.SortDirection
	Pending       []types.FieldDelta // staged edits in staging order
	Err           error              // last load error, nil after a successful load
}

// Dirty reports whether the record has a staged change for field.
func (v View) Dirty(recordID string, field types.Field) bool {
	for _, d := range v.Pending {
		if d.RecordID == recordID {
			_, ok := d.Changes[field]
			return ok
		}
	}
	return false
}

// pendingEdit is a staged delta plus a version bumped on every merge, so
// a commit only drops drafts that were not restaged while it ran.
type pendingEdit struct {
	delta   types.FieldDelta
	version int
}

// Store holds the view state of one account listing: the loaded records,
// the derived visible subset, the search term, the active sort, and the
// staged edits. It is safe for concurrent use; subscribers are called
// outside the lock.
type Store struct {
	source    types.AccountSource
	updater   types.RecordUpdater
	navigator types.Navigator
	logger    *zap.Logger

	// maxUpdates caps concurrent update calls during Commit; 0 means one
	// goroutine per record.
	maxUpdates int

	mu         sync.Mutex
	all        []types.Account
	visible    []types.Account
	searchTerm string
	sortField  types.Field
	sortDir    types.SortDirection
	pending    map[string]*pendingEdit
	order      []string
	loadErr    error

	subscribers map[int]func(View)
	nextSub     int
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for load and commit outcomes.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithNavigator sets the capability ActivateRow uses to open records.
func WithNavigator(nav types.Navigator) Option {
	return func(s *Store) { s.navigator = nav }
}

// WithMaxConcurrentUpdates caps the number of update calls in flight
// during Commit. Zero or less means unlimited.
func WithMaxConcurrentUpdates(n int) Option {
	return func(s *Store) { s.maxUpdates = n }
}

// NewStore creates an empty store. Call Load to populate it.
func NewStore(source types.AccountSource, updater types.RecordUpdater, opts ...Option) *Store {
	s := &Store{
		source:      source,
		updater:     updater,
		logger:      zap.NewNop(),
		pending:     make(map[string]*pendingEdit),
		subscribers: make(map[int]func(View)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches every account from the source and replaces the loaded set
// wholesale, then recomputes the visible rows. On failure the error is
// retained for Err and View, and the previously loaded records are kept.
func (s *Store) Load(ctx context.Context) error {
	accounts, err := s.source.ListAccounts(ctx)

	s.mu.Lock()
	if err != nil {
		s.loadErr = fmt.Errorf("load accounts: %w", err)
		loadErr := s.loadErr
		view := s.viewLocked()
		s.mu.Unlock()

		s.logger.Error("account load failed", zap.Error(err))
		s.notify(view)
		return loadErr
	}

	s.all = make([]types.Account, len(accounts))
	for i, a := range accounts {
		s.all[i] = a.Clone()
	}
	s.loadErr = nil
	s.recomputeLocked()
	view := s.viewLocked()
	s.mu.Unlock()

	s.logger.Debug("accounts loaded",
		zap.Int("total", view.Total),
		zap.Int("visible", len(view.Records)))
	s.notify(view)
	return nil
}

// Search sets the search term and recomputes the visible rows. The term
// is matched case-insensitively against account names. The active sort,
// if any, is reapplied.
func (s *Store) Search(term string) {
	s.mu.Lock()
	s.searchTerm = strings.ToLower(term)
	s.recomputeLocked()
	view := s.viewLocked()
	s.mu.Unlock()

	s.notify(view)
}

// SortBy sets the active sort and recomputes the visible rows.
// Returns ErrInvalidField or ErrInvalidDirection and leaves the active
// sort unchanged when either argument is not recognized.
func (s *Store) SortBy(field types.Field, direction types.SortDirection) error {
	if _, ok := comparators[field]; !ok {
		return fmt.Errorf("%w: %q", types.ErrInvalidField, field)
	}
	if direction != types.SortAscending && direction != types.SortDescending {
		return fmt.Errorf("%w: %q", types.ErrInvalidDirection, direction)
	}

	s.mu.Lock()
	s.sortField = field
	s.sortDir = direction
	s.recomputeLocked()
	view := s.viewLocked()
	s.mu.Unlock()

	s.notify(view)
	return nil
}

// ClearSort drops the active sort; visible rows return to load order.
func (s *Store) ClearSort() {
	s.mu.Lock()
	s.sortField = ""
	s.sortDir = ""
	s.recomputeLocked()
	view := s.viewLocked()
	s.mu.Unlock()

	s.notify(view)
}

// StageEdit parses raw as the new value of field on the record and merges
// it into the pending edits. Empty input clears the field.
// Returns ErrNotFound for unknown records, ErrFieldNotEditable for
// read-only fields, and ErrInvalidValue for values that fail validation.
func (s *Store) StageEdit(recordID string, field types.Field, raw string) error {
	value, err := field.ParseValue(raw)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if !slices.ContainsFunc(s.all, func(a types.Account) bool { return a.ID == recordID }) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", types.ErrNotFound, recordID)
	}
	edit, ok := s.pending[recordID]
	if !ok {
		edit = &pendingEdit{delta: types.NewFieldDelta(recordID)}
		s.pending[recordID] = edit
		s.order = append(s.order, recordID)
	}
	change := types.FieldDelta{RecordID: recordID, Changes: map[types.Field]any{field: value}}
	if err := edit.delta.Merge(change); err != nil {
		s.mu.Unlock()
		return err
	}
	edit.version++
	view := s.viewLocked()
	s.mu.Unlock()

	s.notify(view)
	return nil
}

// DiscardEdits drops every staged edit without submitting it.
func (s *Store) DiscardEdits() {
	s.mu.Lock()
	s.pending = make(map[string]*pendingEdit)
	s.order = nil
	view := s.viewLocked()
	s.mu.Unlock()

	s.notify(view)
}

// View returns a snapshot of the current state.
func (s *Store) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Err returns the last load error, or nil after a successful load.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

// Subscribe registers fn to receive a View after every state change.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func(View)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// recomputeLocked derives the visible rows from the loaded records, the
// search term, and the active sort. The caller must hold s.mu.
func (s *Store) recomputeLocked() {
	visible := Filter(s.all, s.searchTerm)
	if s.sortField != "" && s.sortDir != "" {
		sorted, err := Sort(visible, s.sortField, s.sortDir)
		if err == nil {
			visible = sorted
		}
	}
	s.visible = visible
}

// viewLocked builds a snapshot. The caller must hold s.mu.
func (s *Store) viewLocked() View {
	records := make([]types.Account, len(s.visible))
	for i, a := range s.visible {
		records[i] = a.Clone()
	}
	return View{
		Records:       records,
		Total:         len(s.all),
		SearchTerm:    s.searchTerm,
		SortField:     s.sortField,
		SortDirection: s.sortDir,
		Pending:       s.pendingLocked(),
		Err:           s.loadErr,
	}
}

// pendingLocked returns copies of the staged deltas in staging order.
// The caller must hold s.mu.
func (s *Store) pendingLocked() []types.FieldDelta {
	out := make([]types.FieldDelta, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.pending[id].delta.Clone())
	}
	return out
}

func (s *Store) notify(view View) {
	s.mu.Lock()
	subs := make([]func(View), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(view)
	}
}
