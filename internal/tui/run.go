package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mesh-intelligence/accountdesk/internal/listing"
)

// Run shows the grid full-screen until the user quits or ctx is canceled.
func Run(ctx context.Context, store *listing.Store) error {
	model := NewModel(ctx, store)
	defer model.Close()

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run account grid: %w", err)
	}
	return nil
}
