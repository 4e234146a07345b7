package tui

import (
	"context"
	"fmt"

	"ethlookup/pkg/lookup"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

// Start runs the interactive view for address until the user quits. An
// invalid address shows a static error and issues no fetch.
func Start(ctx context.Context, svc *lookup.Service, address, explorerURL, version string, logger *log.Logger) error {
	Version = version
	m := initialModel(ctx, svc, address, explorerURL, logger)
	m.startLookup()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running terminal UI: %w", err)
	}
	return nil
}
