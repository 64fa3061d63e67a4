package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmcdole/portal/internal/domain"
	"github.com/mmcdole/portal/internal/studio"
)

type generateFlags struct {
	evaluate bool
	save     bool
}

func newGenerateCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"gen"},
		Short:   "Generate stories with the AI service",
	}
	cmd.AddCommand(
		newGenerateKindCmd(g, domain.KindBackstory),
		newGenerateKindCmd(g, domain.KindAdventure),
	)
	return cmd
}

func newGenerateKindCmd(g *globals, kind domain.GenerationKind) *cobra.Command {
	var flags generateFlags

	use, short := "backstory <character-id>", "Generate a character backstory"
	if kind == domain.KindAdventure {
		use, short = "adventure <location-id>", "Generate an adventure set at a location"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var result *studio.Result
			if kind == domain.KindAdventure {
				result, err = g.app.studio.Adventure(ctx, id)
			} else {
				result, err = g.app.studio.Backstory(ctx, id)
			}
			if err != nil {
				return fmt.Errorf("%s failed: %w", kind.Label(), err)
			}

			entry, err := followUp(ctx, cmd, g, result.Entry.ID, flags)
			if err != nil {
				return err
			}
			return printEntry(cmd, g, entry)
		},
	}

	cmd.Flags().BoolVar(&flags.evaluate, "evaluate", false, "score the result")
	if kind == domain.KindBackstory {
		cmd.Flags().BoolVar(&flags.save, "save", false, "save the backstory as a note on the character")
	}
	return cmd
}

// followUp runs the optional evaluate and save steps, then returns the
// entry as stored
func followUp(ctx context.Context, cmd *cobra.Command, g *globals, entryID string, flags generateFlags) (*domain.HistoryEntry, error) {
	if flags.evaluate {
		if _, err := g.app.studio.Evaluate(ctx, entryID); err != nil {
			return nil, fmt.Errorf("evaluation failed: %w", err)
		}
	}
	if flags.save {
		note, err := g.app.studio.SaveToNotes(ctx, entryID)
		if err != nil {
			return nil, fmt.Errorf("failed to save to notes: %w", err)
		}
		cmd.PrintErrf("Saved as note %d\n", note.ID)
	}

	entry, ok := g.app.studio.Entry(entryID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", studio.ErrUnknownEntry, entryID)
	}
	return entry, nil
}

// printEntry writes a generation as JSON/YAML, styled markdown on a
// terminal, or plain markdown otherwise
func printEntry(cmd *cobra.Command, g *globals, entry *domain.HistoryEntry) error {
	out := cmd.OutOrStdout()
	if done, err := writeStructured(out, g.format(), entry); done {
		return err
	}

	md := studio.Markdown(entry)
	if f, ok := out.(*os.File); ok && isTerminal(f) {
		width := g.cfg.UI.WordWrap
		if tw := termWidth(out); width <= 0 || width > tw {
			width = tw
		}
		rendered, err := studio.Render(md, g.cfg.UI.Theme, width)
		if err == nil {
			md = rendered
		} else {
			g.app.logger.Warn("markdown render failed", "error", err)
		}
	}
	_, err := fmt.Fprint(out, md)
	return err
}
