// Package tui is the interactive account grid. It renders a
// listing.Store with bubbletea and drives the store's operations from key
// bindings: search, column sort, inline edits, save, and opening a
// record's detail view. The model subscribes to the store, so changes
// made by commits or reloads redraw the grid.
package tui
