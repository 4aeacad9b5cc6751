package db

import "fmt"

// SchemaSQL returns the schema initialization SQL. The HNSW index
// dimension must match the embedding model in use.
func SchemaSQL(embeddingDim int) string {
	return fmt.Sprintf(`
    -- ==========================================================================
    -- NOTE TABLE (thought soil)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS note SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS content ON note TYPE string;
    DEFINE FIELD IF NOT EXISTS tags ON note TYPE array<string>;
    DEFINE FIELD IF NOT EXISTS source_persona ON note TYPE string;
    -- Embedding is optional: note capture must not depend on a running embedder
    DEFINE FIELD IF NOT EXISTS embedding ON note TYPE option<array<float>>;
    DEFINE FIELD IF NOT EXISTS created_at ON note TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS note_tags ON note FIELDS tags;
    DEFINE INDEX IF NOT EXISTS note_persona ON note FIELDS source_persona;
    DEFINE INDEX IF NOT EXISTS note_embedding ON note FIELDS embedding HNSW DIMENSION %d DIST COSINE TYPE F32;
    DEFINE ANALYZER IF NOT EXISTS note_analyzer TOKENIZERS class FILTERS lowercase, ascii, snowball(english);
    DEFINE INDEX IF NOT EXISTS note_content_ft ON note FIELDS content FULLTEXT ANALYZER note_analyzer BM25;

    -- ==========================================================================
    -- TURN_LOG TABLE (completed-turn archive)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS turn_log SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS user_text ON turn_log TYPE string;
    DEFINE FIELD IF NOT EXISTS bubbles ON turn_log TYPE array<object> FLEXIBLE;
    REMOVE FIELD IF EXISTS bubbles.* ON turn_log;
    DEFINE FIELD bubbles.* ON turn_log TYPE object FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS started_at ON turn_log TYPE datetime;
    DEFINE FIELD IF NOT EXISTS ended_at ON turn_log TYPE datetime;

    DEFINE INDEX IF NOT EXISTS turn_log_started ON turn_log FIELDS started_at;
`, embeddingDim)
}
