package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mmcdole/portal/internal/domain"
	"github.com/mmcdole/portal/internal/search"
)

func newSearchCmd(g *globals) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Semantic search over characters, locations and episodes",
		Long: `Runs a semantic search on the server. When the AI service is down the
query is ranked locally against every location and character name instead.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			svc := g.app.search

			outcome, err := svc.Search(cmd.Context(), query, limit)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			if outcome.Offline {
				cmd.PrintErrf("AI search unavailable (%v), ranking names locally\n", outcome.Cause)
				if svc.IndexCount() == 0 {
					if err := indexNames(cmd, g); err != nil {
						return fmt.Errorf("search failed: %w", err)
					}
				}
				outcome.Response = svc.Fallback(strings.TrimSpace(query), search.ClampLimit(limit, g.cfg.Search.Limit))
			}

			out := cmd.OutOrStdout()
			if done, err := writeStructured(out, g.format(), outcome.Response); done {
				return err
			}
			if len(outcome.Response.Results) == 0 {
				fmt.Fprintln(out, "No results.")
				return nil
			}
			t := newTable(out, "TYPE", "ID", "SCORE", "NAME")
			for _, r := range outcome.Response.Results {
				score := "-"
				if r.Score != nil {
					score = strconv.FormatFloat(*r.Score, 'f', 3, 64)
				}
				t.row(string(r.EntityType), strconv.Itoa(r.EntityID), score, r.GetTitle())
			}
			return t.flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum results, 1-50 (default from config)")
	return cmd
}

// indexNames loads every location and character so the local fallback has
// something to rank
func indexNames(cmd *cobra.Command, g *globals) error {
	var (
		locations  []domain.Location
		characters []domain.Character
	)
	eg, ctx := errgroup.WithContext(cmd.Context())
	eg.Go(func() error {
		var err error
		locations, err = g.app.library.AllLocations(ctx, nil)
		return err
	})
	eg.Go(func() error {
		var err error
		characters, err = g.app.library.AllCharacters(ctx, nil)
		return err
	})
	if err := eg.Wait(); err != nil {
		return err
	}

	items := make([]domain.ListItem, 0, len(locations)+len(characters))
	for _, l := range locations {
		items = append(items, l)
	}
	for _, c := range characters {
		items = append(items, c)
	}
	g.app.search.IndexItems(items...)
	return nil
}
