// Package cli provides the command-line interface for ensemble.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/avelinek/ensemble/internal/config"
	"github.com/avelinek/ensemble/internal/db"
	"github.com/avelinek/ensemble/internal/embedding"
	"github.com/avelinek/ensemble/internal/metrics"
	"github.com/avelinek/ensemble/internal/persona"
	"github.com/avelinek/ensemble/internal/service"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Shared session state, wired in PersistentPreRunE.
	cfg       config.Config
	logger    *slog.Logger
	closeLog  func() error
	roster    *persona.Roster
	dbClient  *db.Client
	embedder  embedding.Embedder
	collector *metrics.Collector
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ensemble",
	Short: "Multi-persona streaming chat client",
	Long: `Ensemble is a terminal chat client where a cast of personas answer
together. One model response carries several speakers; each speaker's
contribution streams into its own bubble as it arrives.

Clip any finished bubble into the note soil, then search it later by
tag, fulltext, or meaning.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()

		level := cfg.LogLevel
		if verbose {
			level = slog.LevelDebug
		}

		// The chat TUI owns the terminal; its logger must not write
		// to stderr.
		if cmd.Name() == "chat" {
			logger, closeLog = config.SetupFileLogger(cfg.LogFile, level)
		} else {
			logger, closeLog = config.SetupLogger(cfg.LogFile, level)
		}
		slog.SetDefault(logger)

		var err error
		roster, err = persona.Load(cfg.RosterPath)
		if err != nil {
			return fmt.Errorf("load roster: %w", err)
		}

		collector = metrics.NewCollector()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if dbClient != nil {
			if err := dbClient.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}
		if closeLog != nil {
			closeLog()
		}
	},
}

// connectDB opens the SurrealDB connection and initializes the schema.
// Commands that never touch storage skip this.
func connectDB(ctx context.Context) error {
	if dbClient != nil {
		return nil
	}

	dbCfg := db.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}

	var err error
	dbClient, err = db.NewClient(ctx, dbCfg, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}

	if err := dbClient.InitSchema(ctx, embeddingDimension()); err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}
	return nil
}

// getEmbedder lazily builds the embedding client. A missing or broken
// embedding backend degrades note search to fulltext, never fails a
// command.
func getEmbedder() embedding.Embedder {
	if embedder != nil {
		return embedder
	}

	client, err := embedding.NewOllamaClient(cfg.EmbeddingModel, embedding.DefaultDimension)
	if err != nil {
		logger.Warn("embedding backend unavailable, notes degrade to fulltext", "error", err)
		return nil
	}
	embedder = client
	return embedder
}

// embeddingDimension returns the vector dimension the schema must
// index. Fixed to the default model's dimension; changing models
// requires re-creating the index.
func embeddingDimension() int {
	return embedding.DefaultDimension
}

// getNoteService builds the note service over the shared connection.
func getNoteService() *service.NoteService {
	return service.NewNoteService(dbClient, getEmbedder(), collector, logger)
}

// getArchiveService builds the archive service over the shared connection.
func getArchiveService() *service.ArchiveService {
	return service.NewArchiveService(dbClient, logger)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(notesCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(personasCmd)
}

// exitWithError prints an error message and exits with code 1.
func exitWithError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
