package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/avelinek/ensemble/internal/chat"
	"github.com/avelinek/ensemble/internal/db"
	"github.com/avelinek/ensemble/internal/models"
)

// ArchiveService writes completed turns to the turn log. Archival is
// best-effort: a failed write is logged and dropped, never surfaced
// to the conversation. Failed turns are never archived.
type ArchiveService struct {
	db     *db.Client
	logger *slog.Logger
}

// NewArchiveService creates an archive service.
func NewArchiveService(db *db.Client, logger *slog.Logger) *ArchiveService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArchiveService{db: db, logger: logger}
}

// Archive flattens a finished turn into the turn log.
func (s *ArchiveService) Archive(ctx context.Context, turn *chat.Turn) {
	if turn == nil || s.db == nil {
		return
	}

	endedAt := turn.EndedAt
	if endedAt.IsZero() {
		endedAt = time.Now()
	}

	bubbles := flattenBubbles(turn.Snapshot())

	if _, err := s.db.CreateTurnLog(ctx, turn.ID, turn.UserText, bubbles, turn.StartedAt, endedAt); err != nil {
		s.logger.Warn("turn archival failed", "turn", turn.ID, "error", err)
		return
	}
	s.logger.Debug("archived turn", "turn", turn.ID, "bubbles", len(bubbles))
}

// Recent returns archived turns, newest first.
func (s *ArchiveService) Recent(ctx context.Context, limit int) ([]models.TurnLog, error) {
	return s.db.ListTurnLogs(ctx, limit)
}

// flattenBubbles keeps only closed records with content; an open tail
// or a wholly-malformed stream archives as an empty bubble list.
func flattenBubbles(records []models.MessageRecord) []models.ArchivedBubble {
	bubbles := make([]models.ArchivedBubble, 0, len(records))
	for _, r := range records {
		if r.Open || r.Text == "" {
			continue
		}
		bubbles = append(bubbles, models.ArchivedBubble{Speaker: r.Speaker, Text: r.Text})
	}
	return bubbles
}
