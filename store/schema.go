package store

// Schema contains the complete DDL for the pipeline tables.
const Schema = `
-- Documents: one row per ingested PDF, updated as it advances through the pipeline
CREATE TABLE IF NOT EXISTS documents (
    id                TEXT PRIMARY KEY,
    path              TEXT NOT NULL,
    sha256            TEXT NOT NULL DEFAULT '',
    method            TEXT NOT NULL DEFAULT '',
    validation_status TEXT NOT NULL DEFAULT 'INGESTED',
    quality_score     REAL NOT NULL DEFAULT 0,
    page_count        INTEGER NOT NULL DEFAULT 0,
    success           INTEGER NOT NULL DEFAULT 0,
    error             TEXT NOT NULL DEFAULT '',
    cleaned_text      TEXT NOT NULL DEFAULT '',
    segments_removed  INTEGER NOT NULL DEFAULT 0,
    removed_percent   REAL NOT NULL DEFAULT 0,
    created_at        INTEGER NOT NULL,
    updated_at        INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(validation_status);
CREATE INDEX IF NOT EXISTS idx_documents_sha ON documents(sha256) WHERE sha256 != '';

-- Quality metrics: one row per scoring run
CREATE TABLE IF NOT EXISTS quality_metrics (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    document_id       TEXT NOT NULL,
    run_id            TEXT NOT NULL,
    text_length       INTEGER NOT NULL,
    alpha_ratio       REAL NOT NULL,
    digit_punct_ratio REAL NOT NULL,
    symbol_ratio      REAL NOT NULL,
    unique_bigrams    INTEGER NOT NULL,
    dict_hits         INTEGER NOT NULL,
    total_words       INTEGER NOT NULL,
    chars_per_page    REAL NOT NULL,
    quality_score     REAL NOT NULL,
    validation_status TEXT NOT NULL,
    failure_reasons   TEXT NOT NULL DEFAULT '[]',
    created_at        INTEGER NOT NULL,
    FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_metrics_doc ON quality_metrics(document_id);

-- Removed segments: boilerplate spans taken out of a document by a scrub run
CREATE TABLE IF NOT EXISTS removed_segments (
    id          TEXT PRIMARY KEY,
    document_id TEXT NOT NULL,
    run_id      TEXT NOT NULL,
    start_pos   INTEGER NOT NULL,
    end_pos     INTEGER NOT NULL,
    category    TEXT NOT NULL,
    pattern_type TEXT NOT NULL DEFAULT '',
    confidence  REAL NOT NULL,
    frequency   INTEGER NOT NULL DEFAULT 0,
    snippet     TEXT NOT NULL DEFAULT '',
    created_at  INTEGER NOT NULL,
    FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_segments_doc ON removed_segments(document_id);
CREATE INDEX IF NOT EXISTS idx_segments_category ON removed_segments(category);

-- Processing events: the stage-by-stage diagnostic trail
CREATE TABLE IF NOT EXISTS processing_events (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    document_id TEXT NOT NULL,
    stage       TEXT NOT NULL,
    success     INTEGER NOT NULL,
    duration_us INTEGER NOT NULL DEFAULT 0,
    detail      TEXT NOT NULL DEFAULT '{}',
    timestamp   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_doc ON processing_events(document_id);
CREATE INDEX IF NOT EXISTS idx_events_stage ON processing_events(stage);
`
