package cli

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/mmcdole/portal/internal/pager"
	"github.com/mmcdole/portal/internal/tui"
)

// runTUI starts the interactive browser. It needs a terminal on both ends.
func runTUI(cmd *cobra.Command, g *globals) error {
	if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
		return errors.New("the interactive browser needs a terminal; use a subcommand (see portal --help)")
	}

	a := g.app
	model := tui.NewModel(tui.Services{
		Library: a.library,
		Notes:   a.notes,
		Search:  a.search,
		Studio:  a.studio,
	}, tui.Options{
		Trigger: pager.TriggerConfig{
			Debounce:     a.cfg.Pager.Debounce,
			ReentryDelay: a.cfg.Pager.ReentryDelay,
		},
		PrefetchRows: a.cfg.Pager.PrefetchRows,
		Theme:        a.cfg.UI.Theme,
		WordWrap:     a.cfg.UI.WordWrap,
		Logger:       a.logger,
	})
	defer model.Close()

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
	)

	a.logger.Info("starting TUI")

	final, err := p.Run()
	if fm, ok := final.(tui.Model); ok {
		fm.Close()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		a.logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	a.logger.Info("shutting down")
	return nil
}
