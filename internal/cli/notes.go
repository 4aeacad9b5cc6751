package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/avelinek/ensemble/internal/db"
	"github.com/avelinek/ensemble/internal/models"
)

var (
	notesTag   string
	notesLimit int
)

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Browse and manage clipped notes",
	Long: `Browse the note soil: everything clipped from past conversations.

Examples:
  ensemble notes list
  ensemble notes list --tag design
  ensemble notes search "naming things"
  ensemble notes delete 7d8f...
  ensemble notes tags`,
}

var notesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		if err := connectDB(ctx); err != nil {
			return err
		}

		notes, err := getNoteService().List(ctx, notesTag, notesLimit)
		if err != nil {
			return fmt.Errorf("list notes: %w", err)
		}
		if len(notes) == 0 {
			fmt.Println("No notes yet. Clip a bubble with ctrl+s in chat.")
			return nil
		}

		for _, n := range notes {
			printNote(n)
		}
		return nil
	},
}

var notesSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search notes by meaning and fulltext",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		if err := connectDB(ctx); err != nil {
			return err
		}

		notes, err := getNoteService().Search(ctx, args[0], notesLimit)
		if err != nil {
			return fmt.Errorf("search notes: %w", err)
		}
		if len(notes) == 0 {
			fmt.Println("Nothing matched.")
			return nil
		}

		for _, n := range notes {
			printNote(n)
		}
		return nil
	},
}

var notesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a note by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		if err := connectDB(ctx); err != nil {
			return err
		}

		if err := getNoteService().Delete(ctx, args[0]); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				exitWithError("no note with id %s", args[0])
			}
			return fmt.Errorf("delete note: %w", err)
		}
		fmt.Printf("Deleted note %s\n", args[0])
		return nil
	},
}

var notesTagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List tags in use with note counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		if err := connectDB(ctx); err != nil {
			return err
		}

		tags, err := getNoteService().Tags(ctx)
		if err != nil {
			return fmt.Errorf("list tags: %w", err)
		}
		if len(tags) == 0 {
			fmt.Println("No tags yet.")
			return nil
		}

		for _, t := range tags {
			fmt.Printf("%-24s %d\n", t.Tag, t.Count)
		}
		return nil
	},
}

func init() {
	notesCmd.PersistentFlags().IntVarP(&notesLimit, "limit", "n", 20, "max notes to show")
	notesListCmd.Flags().StringVarP(&notesTag, "tag", "t", "", "filter by tag")

	notesCmd.AddCommand(notesListCmd)
	notesCmd.AddCommand(notesSearchCmd)
	notesCmd.AddCommand(notesDeleteCmd)
	notesCmd.AddCommand(notesTagsCmd)
}

// printNote writes one note in the list format: id line, meta line,
// indented content.
func printNote(n models.Note) {
	id, err := models.RecordIDString(n.ID)
	if err != nil {
		id = "?"
	}

	meta := n.SourcePersona
	if len(n.Tags) > 0 {
		meta += "  [" + strings.Join(n.Tags, ", ") + "]"
	}

	fmt.Printf("%s  %s  %s\n", id, n.CreatedAt.Local().Format("2006-01-02 15:04"), meta)
	for _, line := range strings.Split(n.Content, "\n") {
		fmt.Printf("    %s\n", line)
	}
	fmt.Println()
}
