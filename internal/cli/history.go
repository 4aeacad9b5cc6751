package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show archived turns, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		if err := connectDB(ctx); err != nil {
			return err
		}

		logs, err := getArchiveService().Recent(ctx, historyLimit)
		if err != nil {
			return fmt.Errorf("list history: %w", err)
		}
		if len(logs) == 0 {
			fmt.Println("No archived turns yet.")
			return nil
		}

		for _, l := range logs {
			fmt.Printf("%s  You: %s\n", l.StartedAt.Local().Format("2006-01-02 15:04"), l.UserText)
			for _, b := range l.Bubbles {
				fmt.Printf("    %s: %s\n", roster.DisplayName(b.Speaker), b.Text)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "max turns to show")
}
