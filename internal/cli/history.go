package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCmd(g *globals) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List generated stories, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := g.app.studio.History(limit)
			if err != nil {
				return fmt.Errorf("failed to read history: %w", err)
			}

			out := cmd.OutOrStdout()
			if done, err := writeStructured(out, g.format(), entries); done {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No generations yet.")
				return nil
			}
			t := newTable(out, "ID", "CREATED", "KIND", "FLAGS", "SUBJECT")
			for _, e := range entries {
				flags := "-"
				switch {
				case e.Evaluation != nil && e.SavedToNote:
					flags = "evaluated,saved"
				case e.Evaluation != nil:
					flags = "evaluated"
				case e.SavedToNote:
					flags = "saved"
				}
				t.row(e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Kind.Label(), flags, e.SubjectName)
			}
			return t.flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "entries to show, 0 for all")
	cmd.AddCommand(
		newHistoryShowCmd(g),
		newHistoryEvaluateCmd(g),
		newHistorySaveCmd(g),
		newHistoryRmCmd(g),
	)
	return cmd
}

func newHistoryShowCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "show <entry-id>",
		Short: "Print a generated story",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, ok := g.app.studio.Entry(args[0])
			if !ok {
				return fmt.Errorf("no history entry %q", args[0])
			}
			return printEntry(cmd, g, entry)
		},
	}
}

func newHistoryEvaluateCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate <entry-id>",
		Short: "Score a stored story",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, err := followUp(cmd.Context(), cmd, g, args[0], generateFlags{evaluate: true})
			if err != nil {
				return err
			}
			return printEntry(cmd, g, entry)
		},
	}
}

func newHistorySaveCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "save <entry-id>",
		Short: "Save a stored backstory as a character note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := followUp(cmd.Context(), cmd, g, args[0], generateFlags{save: true})
			return err
		},
	}
}

func newHistoryRmCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <entry-id>",
		Short: "Delete a stored story",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := g.app.studio.DeleteEntry(args[0]); err != nil {
				return fmt.Errorf("failed to delete entry: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}
