package db

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/avelinek/ensemble/internal/models"
)

// TagCount represents a tag with its note count.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// CreateNote stores a note. embedding may be nil when no embedder is
// available; such notes are reachable by listing and fulltext search
// but not by vector search.
func (c *Client) CreateNote(
	ctx context.Context,
	id string,
	content string,
	tags []string,
	sourcePersona string,
	embedding []float32,
) (*models.Note, error) {
	if tags == nil {
		tags = []string{}
	}

	vars := map[string]any{
		"id":      id,
		"content": content,
		"tags":    tags,
		"persona": sourcePersona,
	}
	embeddingClause := "embedding = NONE,"
	if embedding != nil {
		embeddingClause = "embedding = $embedding,"
		vars["embedding"] = embedding
	}

	sql := fmt.Sprintf(`
		CREATE type::record("note", $id) SET
			content = $content,
			tags = $tags,
			source_persona = $persona,
			%s
			created_at = time::now()
		RETURN AFTER
	`, embeddingClause)

	results, err := surrealdb.Query[[]models.Note](ctx, c.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("create note: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("create note: no result returned")
	}
	return &(*results)[0].Result[0], nil
}

// GetNote retrieves a note by ID. Returns ErrNotFound when absent.
func (c *Client) GetNote(ctx context.Context, id string) (*models.Note, error) {
	results, err := surrealdb.Query[[]models.Note](ctx, c.db, `
		SELECT * FROM type::record("note", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("get note %q: %w", id, ErrNotFound)
	}
	return &(*results)[0].Result[0], nil
}

// ListNotes returns notes newest first, optionally filtered by tag.
func (c *Client) ListNotes(ctx context.Context, tag string, limit int) ([]models.Note, error) {
	tagClause := ""
	vars := map[string]any{"limit": limit}
	if tag != "" {
		tagClause = "WHERE tags CONTAINS $tag"
		vars["tag"] = tag
	}

	sql := fmt.Sprintf(`
		SELECT * FROM note %s ORDER BY created_at DESC LIMIT $limit
	`, tagClause)

	results, err := surrealdb.Query[[]models.Note](ctx, c.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return []models.Note{}, nil
	}
	return (*results)[0].Result, nil
}

// ListTags returns unique tags with note counts.
func (c *Client) ListTags(ctx context.Context) ([]TagCount, error) {
	results, err := surrealdb.Query[[]TagCount](ctx, c.db, `
		SELECT tag, count() AS count FROM (
			SELECT array::flatten(tags) AS tag FROM note
		) SPLIT tag GROUP BY tag ORDER BY count DESC
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return []TagCount{}, nil
	}
	return (*results)[0].Result, nil
}

// DeleteNote removes a note by ID. Returns the number of records
// deleted (0 when the id did not exist).
func (c *Client) DeleteNote(ctx context.Context, id string) (int, error) {
	results, err := surrealdb.Query[[]models.Note](ctx, c.db, `
		DELETE type::record("note", $id) RETURN BEFORE
	`, map[string]any{"id": id})
	if err != nil {
		return 0, fmt.Errorf("delete note: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return 0, nil
	}
	return len((*results)[0].Result), nil
}

// SearchNotes performs hybrid search over note content: RRF fusion of
// BM25 fulltext and HNSW vector results when an embedding is supplied,
// fulltext only otherwise.
func (c *Client) SearchNotes(
	ctx context.Context,
	query string,
	embedding []float32,
	limit int,
) ([]models.Note, error) {
	vars := map[string]any{
		"q":     query,
		"limit": limit,
	}

	var sql string
	if embedding != nil {
		// RRF k=60, the standard rank-fusion constant. Vector arm asks
		// for 2x limit for variety; ef=40 for recall.
		sql = fmt.Sprintf(`
			SELECT * FROM search::rrf([
				(SELECT id, content, tags, source_persona, created_at
				 FROM note
				 WHERE embedding <|%d,40|> $emb),
				(SELECT id, content, tags, source_persona, created_at
				 FROM note
				 WHERE content @0@ $q)
			], $limit, 60)
		`, limit*2)
		vars["emb"] = embedding
	} else {
		sql = `
			SELECT id, content, tags, source_persona, created_at
			FROM note
			WHERE content @0@ $q
			LIMIT $limit
		`
	}

	results, err := surrealdb.Query[[]models.Note](ctx, c.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("search notes: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return []models.Note{}, nil
	}
	return (*results)[0].Result, nil
}

// CreateTurnLog archives one completed turn.
func (c *Client) CreateTurnLog(
	ctx context.Context,
	id string,
	userText string,
	bubbles []models.ArchivedBubble,
	startedAt, endedAt time.Time,
) (*models.TurnLog, error) {
	if bubbles == nil {
		bubbles = []models.ArchivedBubble{}
	}

	results, err := surrealdb.Query[[]models.TurnLog](ctx, c.db, `
		CREATE type::record("turn_log", $id) SET
			user_text = $user_text,
			bubbles = $bubbles,
			started_at = type::datetime($started_at),
			ended_at = type::datetime($ended_at)
		RETURN AFTER
	`, map[string]any{
		"id":         id,
		"user_text":  userText,
		"bubbles":    bubbles,
		"started_at": startedAt.UTC().Format(time.RFC3339Nano),
		"ended_at":   endedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, fmt.Errorf("create turn log: %w", wrapQueryError(err))
	}

	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, fmt.Errorf("create turn log: no result returned")
	}
	return &(*results)[0].Result[0], nil
}

// ListTurnLogs returns archived turns, newest first.
func (c *Client) ListTurnLogs(ctx context.Context, limit int) ([]models.TurnLog, error) {
	results, err := surrealdb.Query[[]models.TurnLog](ctx, c.db, `
		SELECT * FROM turn_log ORDER BY started_at DESC LIMIT $limit
	`, map[string]any{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("list turn logs: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return []models.TurnLog{}, nil
	}
	return (*results)[0].Result, nil
}
