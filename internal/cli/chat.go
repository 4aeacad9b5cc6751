package cli

import (
	"context"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/avelinek/ensemble/internal/chat"
	"github.com/avelinek/ensemble/internal/llm"
	"github.com/avelinek/ensemble/internal/metrics"
)

var chatNoStore bool

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session with the ensemble",
	Long: `Start the chat UI. Type a message and press enter to send it; every
persona's reply streams into its own bubble. Press ctrl+s to clip the
newest finished bubble into the note soil, ctrl+c to leave.

With --no-store the session runs without a database: no archive, no
clipping.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatNoStore, "no-store", false, "run without database persistence")
}

func runChat(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("chat needs a terminal; use 'ensemble ask' for scripted use")
	}

	ctx := context.Background()

	model, err := llm.NewModel(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init model: %w", err)
	}

	var deps chatDeps
	deps.conversation = chat.New(roster.ActiveIDs(), logger)
	deps.roster = roster
	deps.streamer = model
	deps.window = cfg.WindowSize
	deps.logger = logger

	if !chatNoStore {
		if err := connectDB(ctx); err != nil {
			logger.Warn("running without persistence, database unreachable", "error", err)
		} else {
			deps.notes = getNoteService()
			deps.archive = getArchiveService()
		}
	}

	p := tea.NewProgram(newChatModel(deps))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat UI error: %w", err)
	}

	logSessionStats(collector)
	return nil
}

// logSessionStats writes the full metrics snapshot at session end.
func logSessionStats(c *metrics.Collector) {
	snap := c.Snapshot()

	args := []any{"uptime_s", snap.UptimeSeconds}
	if t := snap.Turns; t != nil {
		args = append(args,
			"turns", t.Count,
			"deltas", t.TotalDeltas,
			"bytes", t.TotalBytes,
			"avg_turn_ms", t.AvgTimeMs,
			"avg_bubbles", t.AvgBubbles,
			"empty_streams", t.EmptyStreams,
		)
	}
	if s := snap.LLMStream; s != nil {
		args = append(args, "stream_calls", s.Count, "avg_stream_ms", s.AvgTimeMs)
	}
	if e := snap.Embedding; e != nil {
		args = append(args, "embeddings", e.Count, "avg_embed_ms", e.AvgTimeMs)
	}
	if q := snap.DBQuery; q != nil {
		args = append(args, "db_queries", q.Count)
	}
	if s := snap.DBSearch; s != nil {
		args = append(args, "db_searches", s.Count)
	}
	logger.Info("chat session ended", args...)
}
