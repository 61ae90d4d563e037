package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/mesh-intelligence/accountdesk/internal/listing"
	"github.com/mesh-intelligence/accountdesk/pkg/types"
)

// Focus identifies which part of the grid receives key input.
type Focus int

const (
	FocusTable Focus = iota
	FocusSearch
	FocusEdit
)

// dirtyMark suffixes cells with a staged, unsaved change.
const dirtyMark = " *"

// viewMsg carries a store snapshot published by a subscription.
type viewMsg struct{}

// loadedMsg reports the end of a load.
type loadedMsg struct {
	err error
}

// committedMsg reports the end of a save.
type committedMsg struct {
	err error
}

// Model is the bubbletea model of the account grid.
type Model struct {
	ctx     context.Context
	store   *listing.Store
	columns []types.Column
	keys    KeyMap

	changed     chan struct{}
	unsubscribe func()

	view   listing.View
	table  table.Model
	search textinput.Model
	editor textinput.Model
	help   help.Model

	focus  Focus
	column int
	status string
	width  int
	height int
}

// NewModel creates a grid over store. The store does not need to be
// loaded; Init starts a load.
func NewModel(ctx context.Context, store *listing.Store) Model {
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search account names"

	editor := textinput.New()
	editor.Prompt = "= "

	m := Model{
		ctx:     ctx,
		store:   store,
		columns: types.DefaultColumns,
		keys:    DefaultKeyMap,
		changed: make(chan struct{}, 1),
		table:   table.New(table.WithFocused(true), table.WithStyles(tableStyles())),
		search:  search,
		editor:  editor,
		help:    help.New(),
	}
	changed := m.changed
	m.unsubscribe = store.Subscribe(func(listing.View) {
		select {
		case changed <- struct{}{}:
		default:
			// A signal is already pending; the model reads the latest view.
		}
	})
	m.applyView(store.View())
	return m
}

// Close removes the store subscription.
func (m Model) Close() {
	m.unsubscribe()
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), listenForChanges(m.changed))
}

// listenForChanges returns a tea.Cmd that blocks until the store signals
// a change.
func listenForChanges(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return viewMsg{}
	}
}

func (m Model) loadCmd() tea.Cmd {
	store, ctx := m.store, m.ctx
	return func() tea.Msg {
		return loadedMsg{err: store.Load(ctx)}
	}
}

func (m Model) commitCmd() tea.Cmd {
	store, ctx := m.store, m.ctx
	return func() tea.Msg {
		return committedMsg{err: store.Commit(ctx)}
	}
}

// Update implements tea.Model. Key input is routed by focus.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.focus {
		case FocusSearch:
			return m.handleSearchKeys(msg)
		case FocusEdit:
			return m.handleEditKeys(msg)
		default:
			return m.handleTableKeys(msg)
		}

	case viewMsg:
		m.applyView(m.store.View())
		return m, listenForChanges(m.changed)

	case loadedMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
		} else {
			m.status = ""
		}
		m.applyView(m.store.View())

	case committedMsg:
		m.status = commitStatus(msg.err)
		m.applyView(m.store.View())

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.layout()
	}
	return m, nil
}

func (m Model) handleTableKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		m.table.MoveUp(1)

	case key.Matches(msg, m.keys.Down):
		m.table.MoveDown(1)

	case key.Matches(msg, m.keys.PrevColumn):
		if m.column > 0 {
			m.column--
			m.refreshTable()
		}

	case key.Matches(msg, m.keys.NextColumn):
		if m.column < len(m.columns)-1 {
			m.column++
			m.refreshTable()
		}

	case key.Matches(msg, m.keys.Search):
		m.focus = FocusSearch
		m.search.SetValue(m.view.SearchTerm)
		m.search.CursorEnd()
		cmd := m.search.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Sort):
		m.toggleSort()

	case key.Matches(msg, m.keys.Unsort):
		m.store.ClearSort()
		m.applyView(m.store.View())

	case key.Matches(msg, m.keys.Edit):
		cmd := m.startEdit()
		return m, cmd

	case key.Matches(msg, m.keys.Save):
		if len(m.view.Pending) == 0 {
			m.status = "nothing to save"
			return m, nil
		}
		m.status = fmt.Sprintf("saving %d records…", len(m.view.Pending))
		return m, m.commitCmd()

	case key.Matches(msg, m.keys.Discard):
		m.store.DiscardEdits()
		m.status = "edits discarded"
		m.applyView(m.store.View())

	case key.Matches(msg, m.keys.Open):
		if a, ok := m.selected(); ok {
			if err := m.store.ActivateRow(a.ID, types.ActionViewDetails); err != nil {
				m.status = err.Error()
			}
		}

	case key.Matches(msg, m.keys.Reload):
		m.status = "loading…"
		return m, m.loadCmd()
	}
	return m, nil
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.search.SetValue("")
		m.store.Search("")
		m.leaveInput()
		m.applyView(m.store.View())
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		m.leaveInput()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != m.view.SearchTerm {
		m.store.Search(m.search.Value())
		m.table.SetCursor(0)
		m.applyView(m.store.View())
	}
	return m, cmd
}

func (m Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.leaveInput()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		a, ok := m.selected()
		if ok {
			col := m.columns[m.column]
			if err := m.store.StageEdit(a.ID, col.Field, m.editor.Value()); err != nil {
				m.status = err.Error()
				return m, nil
			}
			m.status = ""
		}
		m.leaveInput()
		m.applyView(m.store.View())
		return m, nil
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

// startEdit opens the editor on the selected cell when its column is
// editable.
func (m *Model) startEdit() tea.Cmd {
	col := m.columns[m.column]
	if !col.Editable {
		m.status = fmt.Sprintf("%s is read-only", col.Label)
		return nil
	}
	a, ok := m.selected()
	if !ok {
		return nil
	}
	value := col.FormatValue(&a)
	for _, d := range m.view.Pending {
		if d.RecordID == a.ID {
			if v, staged := d.Changes[col.Field]; staged {
				value = formatStaged(v)
			}
		}
	}
	m.editor.Placeholder = col.Label
	m.editor.SetValue(value)
	m.editor.CursorEnd()
	m.focus = FocusEdit
	m.status = ""
	return m.editor.Focus()
}

// toggleSort sorts by the selected column, reversing the direction when
// it is already the sort column.
func (m *Model) toggleSort() {
	col := m.columns[m.column]
	if !col.Sortable {
		return
	}
	dir := types.SortAscending
	if m.view.SortField == col.Field {
		dir = m.view.SortDirection.Opposite()
	}
	if err := m.store.SortBy(col.Field, dir); err != nil {
		m.status = err.Error()
		return
	}
	m.applyView(m.store.View())
}

func (m *Model) leaveInput() {
	m.search.Blur()
	m.editor.Blur()
	m.focus = FocusTable
}

// selected returns the record under the cursor.
func (m Model) selected() (types.Account, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.view.Records) {
		return types.Account{}, false
	}
	return m.view.Records[i], true
}

// applyView stores a snapshot and rebuilds the table from it.
func (m *Model) applyView(v listing.View) {
	m.view = v
	m.refreshTable()
}

func (m *Model) refreshTable() {
	cols := make([]table.Column, len(m.columns))
	for i, c := range m.columns {
		title := c.Label
		if c.Field == m.view.SortField {
			title += sortArrow(m.view.SortDirection)
		}
		if i == m.column {
			title = "[" + title + "]"
		}
		cols[i] = table.Column{Title: title, Width: columnWidth(c)}
	}

	rows := make([]table.Row, len(m.view.Records))
	for i := range m.view.Records {
		a := &m.view.Records[i]
		row := make(table.Row, len(m.columns))
		for j, c := range m.columns {
			cell := c.FormatValue(a)
			if m.view.Dirty(a.ID, c.Field) {
				cell = stagedValue(m.view, a, c) + dirtyMark
			}
			row[j] = cell
		}
		rows[i] = row
	}

	m.table.SetColumns(cols)
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func (m *Model) layout() {
	// Search line, status line and help line surround the table.
	h := m.height - 4
	if h < 3 {
		h = 3
	}
	m.table.SetHeight(h)
	m.search.Width = m.width - 4
	m.editor.Width = m.width - 4
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	switch m.focus {
	case FocusSearch:
		b.WriteString(m.search.View())
	case FocusEdit:
		b.WriteString(editLabelStyle.Render(m.columns[m.column].Label) + " " + m.editor.View())
	default:
		if m.view.SearchTerm != "" {
			b.WriteString(dimStyle.Render("/ " + m.view.SearchTerm))
		} else {
			b.WriteString(dimStyle.Render("press / to search"))
		}
	}
	b.WriteString("\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) statusLine() string {
	parts := []string{fmt.Sprintf("%d of %d accounts", len(m.view.Records), m.view.Total)}
	if n := len(m.view.Pending); n > 0 {
		parts = append(parts, pendingStyle.Render(fmt.Sprintf("%d unsaved", n)))
	}
	if m.view.Err != nil {
		parts = append(parts, errorStyle.Render(m.view.Err.Error()))
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	return strings.Join(parts, " · ")
}

// commitStatus summarizes a save for the status line. Failed records keep
// their drafts, which stay marked in the grid.
func commitStatus(err error) string {
	if err == nil {
		return "saved"
	}
	if batch, ok := listing.IsBatchError(err); ok {
		return fmt.Sprintf("saved %d of %d records", batch.Succeeded, batch.Succeeded+len(batch.Failed))
	}
	return err.Error()
}

// stagedValue renders the staged value of a dirty cell.
func stagedValue(v listing.View, a *types.Account, c types.Column) string {
	for _, d := range v.Pending {
		if d.RecordID != a.ID {
			continue
		}
		if value, ok := d.Changes[c.Field]; ok {
			return formatStaged(value)
		}
	}
	return c.FormatValue(a)
}

func formatStaged(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case decimal.Decimal:
		return v.StringFixed(2)
	default:
		return fmt.Sprint(v)
	}
}

func sortArrow(dir types.SortDirection) string {
	if dir == types.SortDescending {
		return " ↓"
	}
	return " ↑"
}

func columnWidth(c types.Column) int {
	switch c.Kind {
	case types.KindButton, types.KindURL:
		return 28
	case types.KindCurrency:
		return 18
	default:
		return 16
	}
}

var (
	dimStyle       = lipgloss.NewStyle().Faint(true)
	editLabelStyle = lipgloss.NewStyle().Bold(true)
	pendingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57"))
	return s
}
