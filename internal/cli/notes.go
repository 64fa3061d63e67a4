package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmcdole/portal/internal/domain"
)

func newNotesCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "Manage character notes",
	}
	cmd.AddCommand(
		newNotesListCmd(g),
		newNotesAddCmd(g),
		newNotesEditCmd(g),
		newNotesRmCmd(g),
	)
	return cmd
}

func newNotesListCmd(g *globals) *cobra.Command {
	var (
		limit  int
		offset int
		all    bool
	)

	cmd := &cobra.Command{
		Use:   "list <character-id>",
		Short: "List a character's notes, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var list *domain.NoteList
			if all {
				notes, err := g.app.library.AllNotes(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("failed to list notes: %w", err)
				}
				list = &domain.NoteList{Notes: notes, Total: len(notes)}
			} else {
				list, err = g.app.notes.List(cmd.Context(), id, limit, offset)
				if err != nil {
					return fmt.Errorf("failed to list notes: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			if done, err := writeStructured(out, g.format(), list); done {
				return err
			}
			if len(list.Notes) == 0 {
				fmt.Fprintln(out, "No notes.")
				return nil
			}
			t := newTable(out, "ID", "UPDATED", "NOTE")
			for _, n := range list.Notes {
				t.row(strconv.Itoa(n.ID), n.GetDescription(), n.GetTitle())
			}
			if err := t.flush(); err != nil {
				return err
			}
			cmd.PrintErrf("\n%d of %d notes\n", len(list.Notes), list.Total)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "notes per page")
	cmd.Flags().IntVar(&offset, "offset", 0, "notes to skip")
	cmd.Flags().BoolVar(&all, "all", false, "fetch every note")
	return cmd
}

func newNotesAddCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "add <character-id> <content>...",
		Short: "Add a note to a character",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			note, err := g.app.notes.Create(cmd.Context(), id, strings.Join(args[1:], " "))
			if err != nil {
				return fmt.Errorf("failed to add note: %w", err)
			}
			return printNote(cmd, g, "Added", note)
		},
	}
}

func newNotesEditCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <note-id> <content>...",
		Short: "Replace a note's content",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			note, err := g.app.notes.Update(cmd.Context(), id, strings.Join(args[1:], " "))
			if err != nil {
				return fmt.Errorf("failed to update note: %w", err)
			}
			return printNote(cmd, g, "Updated", note)
		},
	}
}

func newNotesRmCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <note-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a note",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := g.app.notes.Delete(cmd.Context(), id); err != nil {
				return fmt.Errorf("failed to delete note: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted note %d\n", id)
			return nil
		},
	}
}

func printNote(cmd *cobra.Command, g *globals, verb string, note *domain.Note) error {
	if done, err := writeStructured(cmd.OutOrStdout(), g.format(), note); done {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s note %d for character %d\n", verb, note.ID, note.CharacterID)
	return nil
}
