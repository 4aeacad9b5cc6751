package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/avelinek/ensemble/internal/db"
	"github.com/avelinek/ensemble/internal/embedding"
	"github.com/avelinek/ensemble/internal/metrics"
	"github.com/avelinek/ensemble/internal/models"
	"github.com/avelinek/ensemble/internal/persona"
)

// ErrNotEligible is returned when a message record cannot become a
// note: user records, still-open records, and empty records are all
// transient conversation material, not preservable content.
var ErrNotEligible = errors.New("record is not eligible for clipping")

// NoteService turns closed agent bubbles into persisted notes and
// answers note queries. Embedding failures never block a clip; the
// note degrades to fulltext-only reachability.
type NoteService struct {
	db       *db.Client
	embedder embedding.Embedder
	metrics  *metrics.Collector
	logger   *slog.Logger
}

// NewNoteService creates a note service. embedder may be nil when no
// embedding backend is configured; collector may be nil to disable
// instrumentation.
func NewNoteService(db *db.Client, embedder embedding.Embedder, collector *metrics.Collector, logger *slog.Logger) *NoteService {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoteService{
		db:       db,
		embedder: embedder,
		metrics:  collector,
		logger:   logger,
	}
}

// ToNote validates that a message record can be preserved as a note
// and builds the unsaved note value from it. The source conversation
// does not change: clipping copies, it never moves.
func ToNote(record models.MessageRecord, roster *persona.Roster) (*models.Note, error) {
	if record.Role != models.RoleAgent {
		return nil, fmt.Errorf("%w: only agent records can be clipped", ErrNotEligible)
	}
	if record.Open {
		return nil, fmt.Errorf("%w: record is still streaming", ErrNotEligible)
	}
	if strings.TrimSpace(record.Text) == "" {
		return nil, fmt.Errorf("%w: record has no content", ErrNotEligible)
	}

	// The speaker id is kept verbatim even when the persona has since
	// left the roster; a note outlives roster edits.
	return &models.Note{
		Content:       record.Text,
		Tags:          []string{},
		SourcePersona: record.Speaker,
		CreatedAt:     record.CreatedAt,
	}, nil
}

// Clip persists a closed agent record as a note with the given tags.
func (s *NoteService) Clip(ctx context.Context, record models.MessageRecord, roster *persona.Roster, tags []string) (*models.Note, error) {
	note, err := ToNote(record, roster)
	if err != nil {
		return nil, err
	}

	vector := s.embed(ctx, note.Content)

	start := time.Now()
	saved, err := s.db.CreateNote(ctx, uuid.NewString(), note.Content, models.NormalizeTags(tags), note.SourcePersona, vector)
	if errors.Is(err, db.ErrTransactionConflict) {
		// Conflicts resolve on a single retry; the note id is fresh
		// either way.
		s.logger.Debug("clip hit a transaction conflict, retrying")
		saved, err = s.db.CreateNote(ctx, uuid.NewString(), note.Content, models.NormalizeTags(tags), note.SourcePersona, vector)
	}
	s.record(metrics.OpDBQuery, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("clip note: %w", err)
	}

	s.logger.Info("clipped note",
		"persona", saved.SourcePersona,
		"tags", saved.Tags,
		"embedded", vector != nil)
	return saved, nil
}

// Get retrieves a single note by id.
func (s *NoteService) Get(ctx context.Context, id string) (*models.Note, error) {
	return s.db.GetNote(ctx, id)
}

// List returns notes newest first, optionally filtered by tag.
func (s *NoteService) List(ctx context.Context, tag string, limit int) ([]models.Note, error) {
	return s.db.ListNotes(ctx, models.NormalizeTag(tag), limit)
}

// Tags returns every tag in use with its note count.
func (s *NoteService) Tags(ctx context.Context) ([]db.TagCount, error) {
	return s.db.ListTags(ctx)
}

// Delete removes a note by id. Returns db.ErrNotFound when absent.
func (s *NoteService) Delete(ctx context.Context, id string) error {
	count, err := s.db.DeleteNote(ctx, id)
	if err != nil {
		return err
	}
	if count == 0 {
		return db.ErrNotFound
	}
	return nil
}

// Search runs hybrid fulltext+vector search over notes. When the
// query cannot be embedded the search silently degrades to fulltext.
func (s *NoteService) Search(ctx context.Context, query string, limit int) ([]models.Note, error) {
	vector := s.embed(ctx, query)

	start := time.Now()
	notes, err := s.db.SearchNotes(ctx, query, vector, limit)
	s.record(metrics.OpDBSearch, time.Since(start))
	return notes, err
}

// embed vectorizes text, returning nil on any failure. Callers treat
// nil as "fulltext only".
func (s *NoteService) embed(ctx context.Context, text string) []float32 {
	if s.embedder == nil {
		return nil
	}

	start := time.Now()
	vector, err := s.embedder.Embed(ctx, text)
	s.record(metrics.OpEmbedding, time.Since(start))
	if err != nil {
		s.logger.Warn("embedding failed, degrading to fulltext", "error", err)
		return nil
	}
	return vector
}

func (s *NoteService) record(op string, d time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordTiming(op, d)
	}
}
