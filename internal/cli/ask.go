package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/avelinek/ensemble/internal/chat"
	"github.com/avelinek/ensemble/internal/llm"
	"github.com/avelinek/ensemble/internal/metrics"
	"github.com/avelinek/ensemble/internal/models"
)

var (
	askNoArchive  bool
	askOutputFile string
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the ensemble one question without entering the chat UI",
	Long: `Ask a single question and print every persona's answer once the
stream finishes. The turn is archived like a chat turn unless
--no-archive is given. Exits non-zero when the stream fails; whatever
arrived before the failure is still printed.

Examples:
  ensemble ask "Is a rewrite ever the right call?"
  ensemble ask "Name this module" -o answers.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askNoArchive, "no-archive", false, "do not archive this turn")
	askCmd.Flags().StringVarP(&askOutputFile, "output", "o", "", "write answers to file")
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.TrimSpace(args[0])
	if question == "" {
		return fmt.Errorf("question is empty")
	}
	ctx := context.Background()

	model, err := llm.NewModel(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init model: %w", err)
	}

	var out strings.Builder
	turn, askErr := askOnce(ctx, model, question, &out)

	if askOutputFile != "" {
		if err := os.WriteFile(askOutputFile, []byte(out.String()), 0644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Printf("Wrote answers to %s\n", askOutputFile)
	} else {
		fmt.Print(out.String())
	}

	if askErr != nil {
		return askErr
	}

	if !askNoArchive {
		if err := connectDB(ctx); err != nil {
			logger.Warn("archive skipped, database unreachable", "error", err)
			return nil
		}
		getArchiveService().Archive(ctx, turn)
	}

	return nil
}

// askOnce runs one headless turn against the streamer and writes every
// finished bubble to w. A failed stream still writes what arrived
// (including the failure bubble) but returns an error and records no
// turn metrics; only completed turns count.
func askOnce(ctx context.Context, streamer llm.Streamer, question string, w io.Writer) (*chat.Turn, error) {
	conv := chat.New(roster.ActiveIDs(), logger)
	turn, err := conv.Submit(question)
	if err != nil {
		return nil, err
	}

	system := llm.SystemInstruction(roster)
	window := llm.BuildWindow(conv.History(), roster, cfg.WindowSize)

	start := time.Now()
	streamErr := streamer.Stream(ctx, system, window, func(fragment string) error {
		conv.ApplyDelta(fragment)
		return nil
	})
	collector.RecordTiming(metrics.OpLLMStream, time.Since(start))

	if streamErr != nil {
		conv.Fail(streamErr)
	} else {
		conv.Complete()
	}

	for _, r := range conv.History() {
		if r.Role != models.RoleAgent || r.Text == "" {
			continue
		}
		fmt.Fprintf(w, "%s:\n%s\n\n", roster.DisplayName(r.Speaker), r.Text)
	}

	if streamErr != nil {
		if errors.Is(streamErr, llm.ErrFatalAPI) {
			return turn, fmt.Errorf("provider rejected the call: %w", streamErr)
		}
		return turn, fmt.Errorf("stream failed: %w", streamErr)
	}

	snapshot := turn.Snapshot()
	collector.RecordTurn(turn.EndedAt.Sub(turn.StartedAt), turn.Deltas, turn.Bytes, closedBubbleCount(snapshot))
	return turn, nil
}
