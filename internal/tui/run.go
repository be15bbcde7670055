package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"todo-demo/internal/store"
	"todo-demo/pkg/logger"
)

// Run starts the demo in the alternate screen and blocks until the user quits.
// Store calls still pending on exit are cancelled.
func Run(ctx context.Context, ds store.DataStore, stats StatsSource, opts Options) error {
	scope, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(New(scope, ds, stats, opts), tea.WithAltScreen(), tea.WithContext(scope))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			// interrupted by signal
			return nil
		}
		return fmt.Errorf("run demo: %w", err)
	}
	logger.Debug(ctx, "Demo exited")
	return nil
}
