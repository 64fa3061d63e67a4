package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmcdole/portal/internal/domain"
	"github.com/mmcdole/portal/internal/library"
)

// pageFlags are shared by the list commands
type pageFlags struct {
	page int
	all  bool
}

func (f *pageFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.page, "page", 1, "page to fetch")
	cmd.Flags().BoolVar(&f.all, "all", false, "fetch every page")
	cmd.MarkFlagsMutuallyExclusive("page", "all")
}

func (f *pageFlags) validate() error {
	if f.page < 1 {
		return fmt.Errorf("--page must be >= 1, got %d", f.page)
	}
	return nil
}

func newLocationsCmd(g *globals) *cobra.Command {
	var (
		pf        pageFlags
		residents bool
	)

	cmd := &cobra.Command{
		Use:   "locations",
		Short: "List locations",
		Example: `  # First page
  portal locations

  # Every location with residents, as YAML
  portal locations --all --residents -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := pf.validate(); err != nil {
				return err
			}
			ctx := cmd.Context()
			lib := g.app.library
			out := cmd.OutOrStdout()

			if residents {
				var (
					items []domain.LocationDetail
					info  *domain.PageInfo
				)
				if pf.all {
					all, err := lib.AllLocationsWithResidents(ctx, progress(cmd))
					if err != nil {
						return fmt.Errorf("failed to list locations: %w", err)
					}
					items = all
				} else {
					page, err := lib.ResidentsPage(ctx, pf.page)
					if err != nil {
						return fmt.Errorf("failed to list locations: %w", err)
					}
					if done, err := writeStructured(out, g.format(), page); done {
						return err
					}
					items, info = page.Results, &page.Info
				}
				if done, err := writeStructured(out, g.format(), items); done {
					return err
				}
				return renderResidents(cmd, items, info, pf.page)
			}

			var (
				items []domain.Location
				info  *domain.PageInfo
			)
			if pf.all {
				all, err := lib.AllLocations(ctx, progress(cmd))
				if err != nil {
					return fmt.Errorf("failed to list locations: %w", err)
				}
				items = all
			} else {
				page, err := lib.LocationsPage(ctx, pf.page)
				if err != nil {
					return fmt.Errorf("failed to list locations: %w", err)
				}
				if done, err := writeStructured(out, g.format(), page); done {
					return err
				}
				items, info = page.Results, &page.Info
			}
			if done, err := writeStructured(out, g.format(), items); done {
				return err
			}

			t := newTable(out, "ID", "NAME", "TYPE", "DIMENSION")
			for _, l := range items {
				t.row(strconv.Itoa(l.ID), l.Name, l.Type, l.Dimension)
			}
			if err := t.flush(); err != nil {
				return err
			}
			pageFooter(cmd, info, pf.page, len(items))
			return nil
		},
	}

	pf.register(cmd)
	cmd.Flags().BoolVar(&residents, "residents", false, "include residents")
	return cmd
}

func renderResidents(cmd *cobra.Command, items []domain.LocationDetail, info *domain.PageInfo, page int) error {
	t := newTable(cmd.OutOrStdout(), "ID", "NAME", "TYPE", "RESIDENTS")
	for _, l := range items {
		names := make([]string, len(l.Residents))
		for i, r := range l.Residents {
			names[i] = r.Name
		}
		t.row(strconv.Itoa(l.ID), l.Name, l.Type,
			fmt.Sprintf("%d: %s", l.ResidentCount(), strings.Join(names, ", ")))
	}
	if err := t.flush(); err != nil {
		return err
	}
	pageFooter(cmd, info, page, len(items))
	return nil
}

func newCharactersCmd(g *globals) *cobra.Command {
	var pf pageFlags

	cmd := &cobra.Command{
		Use:   "characters",
		Short: "List characters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := pf.validate(); err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			var (
				items []domain.Character
				info  *domain.PageInfo
			)
			if pf.all {
				all, err := g.app.library.AllCharacters(ctx, progress(cmd))
				if err != nil {
					return fmt.Errorf("failed to list characters: %w", err)
				}
				items = all
			} else {
				page, err := g.app.library.CharactersPage(ctx, pf.page)
				if err != nil {
					return fmt.Errorf("failed to list characters: %w", err)
				}
				if done, err := writeStructured(out, g.format(), page); done {
					return err
				}
				items, info = page.Results, &page.Info
			}
			if done, err := writeStructured(out, g.format(), items); done {
				return err
			}

			t := newTable(out, "ID", "NAME", "STATUS", "SPECIES")
			for _, c := range items {
				t.row(strconv.Itoa(c.ID), c.Name, c.StatusLabel(), c.Species)
			}
			if err := t.flush(); err != nil {
				return err
			}
			pageFooter(cmd, info, pf.page, len(items))
			return nil
		},
	}

	pf.register(cmd)
	return cmd
}

func newCharacterCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "character <id>",
		Short: "Show a character with its notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			profile, err := g.app.library.CharacterWithNotes(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to load character %d: %w", id, err)
			}
			out := cmd.OutOrStdout()
			if done, err := writeStructured(out, g.format(), profile); done {
				return err
			}
			return renderProfile(out, profile)
		},
	}
}

func renderProfile(out io.Writer, p *library.CharacterProfile) error {
	c := p.Character
	fmt.Fprintf(out, "%s (#%d)\n\n", c.Name, c.ID)
	fields := [][2]string{
		{"Status", c.StatusLabel()},
		{"Species", c.Species},
		{"Type", c.Type},
		{"Gender", c.Gender},
		{"Origin", c.Origin.Name},
		{"Location", c.Location.Name},
		{"Episodes", strconv.Itoa(len(c.Episodes))},
	}
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		fmt.Fprintf(out, "  %-9s %s\n", f[0]+":", f[1])
	}

	fmt.Fprintln(out)
	if p.Notes == nil || len(p.Notes.Notes) == 0 {
		fmt.Fprintln(out, "No notes.")
		return nil
	}
	fmt.Fprintf(out, "Notes (%d of %d)\n", len(p.Notes.Notes), p.Notes.Total)
	t := newTable(out, "ID", "UPDATED", "NOTE")
	for _, n := range p.Notes.Notes {
		t.row(strconv.Itoa(n.ID), n.GetDescription(), n.GetTitle())
	}
	return t.flush()
}

func newLocationCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "location <id>",
		Short: "Show a location with its residents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			loc, err := g.app.library.Location(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to load location %d: %w", id, err)
			}
			out := cmd.OutOrStdout()
			if done, err := writeStructured(out, g.format(), loc); done {
				return err
			}

			fmt.Fprintf(out, "%s (#%d)\n\n", loc.Name, loc.ID)
			fmt.Fprintf(out, "  Type:      %s\n", loc.Type)
			fmt.Fprintf(out, "  Dimension: %s\n\n", loc.Dimension)
			if len(loc.Residents) == 0 {
				fmt.Fprintln(out, "No known residents.")
				return nil
			}
			fmt.Fprintf(out, "Residents (%d)\n", loc.ResidentCount())
			t := newTable(out, "ID", "NAME", "STATUS", "SPECIES")
			for _, c := range loc.Residents {
				t.row(strconv.Itoa(c.ID), c.Name, c.StatusLabel(), c.Species)
			}
			return t.flush()
		},
	}
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q: must be a positive integer", s)
	}
	return id, nil
}

// progress reports --all downloads on stderr when it is a terminal
func progress(cmd *cobra.Command) domain.ProgressFunc {
	f, ok := cmd.ErrOrStderr().(*os.File)
	if !ok || !isTerminal(f) {
		return nil
	}
	return func(loaded, total int) {
		fmt.Fprintf(f, "\rLoading... %d/%d", loaded, total)
		if loaded >= total {
			fmt.Fprint(f, "\r                              \r")
		}
	}
}

func pageFooter(cmd *cobra.Command, info *domain.PageInfo, page, shown int) {
	if info == nil {
		cmd.PrintErrf("\n%d total\n", shown)
		return
	}
	footer := fmt.Sprintf("\npage %d of %d (%d total)", page, info.Pages, info.Count)
	if info.HasNext() {
		footer += fmt.Sprintf(", next: --page %d", *info.Next)
	}
	cmd.PrintErrln(footer)
}
