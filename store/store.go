// CLAUDE:SUMMARY SQLite persistence for pipeline runs: documents, metrics, removed segments, event trail.
// Package store provides the SQLite persistence layer for pipeline results.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/hazyhaar/lexpipe/dbopen"
	"github.com/hazyhaar/lexpipe/idgen"
	"github.com/hazyhaar/lexpipe/legaldoc"
)

// Store is the pipeline database handle.
type Store struct {
	DB  *sql.DB
	ids idgen.Generator
}

// Open opens (or creates) the pipeline SQLite database at path, applies
// pragmas and the schema.
func Open(path string, opts ...dbopen.Option) (*Store, error) {
	allOpts := append([]dbopen.Option{
		dbopen.WithMkdirAll(),
		dbopen.WithSchema(Schema),
	}, opts...)

	db, err := dbopen.Open(path, allOpts...)
	if err != nil {
		return nil, err
	}
	return &Store{DB: db, ids: idgen.Prefixed("seg_", idgen.UUIDv7())}, nil
}

// OpenMemory opens an in-memory store for testing, schema applied, closed
// automatically via t.Cleanup.
func OpenMemory(t testing.TB) *Store {
	t.Helper()
	db := dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
	return &Store{DB: db, ids: idgen.Prefixed("seg_", idgen.UUIDv7())}
}

// Close closes the database.
func (s *Store) Close() error {
	return s.DB.Close()
}

// DocumentRow is one documents-table record.
type DocumentRow struct {
	ID               string
	Path             string
	SHA256           string
	Method           string
	ValidationStatus string
	QualityScore     float64
	PageCount        int
	Success          bool
	Error            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// SaveResult persists one document's full pipeline outcome in a single
// transaction: the document row, its quality metrics, the removed segments,
// and the stage trail. runID groups rows written by the same pipeline run.
func (s *Store) SaveResult(ctx context.Context, runID string, res legaldoc.DocumentResult) error {
	now := time.Now().Unix()
	hash := fileSHA256(res.Path)

	return dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO documents (id, path, sha256, method, validation_status, quality_score, page_count, success, error, cleaned_text, segments_removed, removed_percent, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				method = excluded.method,
				validation_status = excluded.validation_status,
				quality_score = excluded.quality_score,
				page_count = excluded.page_count,
				success = excluded.success,
				error = excluded.error,
				cleaned_text = excluded.cleaned_text,
				segments_removed = excluded.segments_removed,
				removed_percent = excluded.removed_percent,
				updated_at = excluded.updated_at`,
			res.DocumentID, res.Path, hash, res.OCR.Method,
			string(res.OCR.ValidationStatus), res.OCR.QualityScore,
			res.OCR.Metadata.PageCount, boolInt(res.Success), res.Error,
			res.Scrub.CleanedText, res.Scrub.Stats.SegmentsRemoved,
			res.Scrub.Stats.RemovedPercent, now, now)
		if err != nil {
			return fmt.Errorf("store: upsert document: %w", err)
		}

		if res.OCR.Metrics.TextLength > 0 {
			reasons := []byte("[]")
			if len(res.OCR.Metrics.FailureReasons) > 0 {
				reasons, _ = json.Marshal(res.OCR.Metrics.FailureReasons)
			}
			m := res.OCR.Metrics
			_, err = tx.ExecContext(ctx, `
				INSERT INTO quality_metrics (document_id, run_id, text_length, alpha_ratio, digit_punct_ratio, symbol_ratio, unique_bigrams, dict_hits, total_words, chars_per_page, quality_score, validation_status, failure_reasons, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				res.DocumentID, runID, m.TextLength, m.AlphaRatio, m.DigitPunctRatio,
				m.SymbolRatio, m.UniqueBigrams, m.EnglishDictHits, m.TotalWords,
				m.CharsPerPage, m.QualityScore, string(m.ValidationStatus),
				string(reasons), now)
			if err != nil {
				return fmt.Errorf("store: insert metrics: %w", err)
			}
		}

		for _, seg := range res.Scrub.RemovedSegments {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO removed_segments (id, document_id, run_id, start_pos, end_pos, category, pattern_type, confidence, frequency, snippet, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				s.ids(), res.DocumentID, runID, seg.StartPos, seg.EndPos,
				seg.Category, seg.PatternType, seg.Confidence, seg.Frequency,
				truncate(seg.Text, 200), now)
			if err != nil {
				return fmt.Errorf("store: insert segment: %w", err)
			}
		}

		for _, st := range res.OCR.Stages {
			detail := []byte("{}")
			if len(st.Detail) > 0 {
				detail, _ = json.Marshal(st.Detail)
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO processing_events (document_id, stage, success, duration_us, detail, timestamp)
				VALUES (?, ?, ?, ?, ?, ?)`,
				res.DocumentID, st.Name, boolInt(st.Success),
				st.Duration.Microseconds(), string(detail), st.StartedAt.Unix())
			if err != nil {
				return fmt.Errorf("store: insert event: %w", err)
			}
		}
		return nil
	})
}

// Document fetches one document row by ID.
func (s *Store) Document(ctx context.Context, id string) (DocumentRow, error) {
	var (
		row                  DocumentRow
		success              int
		createdAt, updatedAt int64
	)
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, path, sha256, method, validation_status, quality_score, page_count, success, error, created_at, updated_at
		FROM documents WHERE id = ?`, id).Scan(
		&row.ID, &row.Path, &row.SHA256, &row.Method, &row.ValidationStatus,
		&row.QualityScore, &row.PageCount, &success, &row.Error, &createdAt, &updatedAt)
	if err != nil {
		return DocumentRow{}, fmt.Errorf("store: document %s: %w", id, err)
	}
	row.Success = success != 0
	row.CreatedAt = time.Unix(createdAt, 0)
	row.UpdatedAt = time.Unix(updatedAt, 0)
	return row, nil
}

// ListByStatus returns documents in a validation status, newest first.
func (s *Store) ListByStatus(ctx context.Context, status string, limit int) ([]DocumentRow, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, path, sha256, method, validation_status, quality_score, page_count, success, error, created_at, updated_at
		FROM documents WHERE validation_status = ?
		ORDER BY updated_at DESC LIMIT ?`, status, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list by status: %w", err)
	}
	defer rows.Close()

	var out []DocumentRow
	for rows.Next() {
		var (
			row                  DocumentRow
			success              int
			createdAt, updatedAt int64
		)
		if err := rows.Scan(&row.ID, &row.Path, &row.SHA256, &row.Method,
			&row.ValidationStatus, &row.QualityScore, &row.PageCount,
			&success, &row.Error, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("store: scan document: %w", err)
		}
		row.Success = success != 0
		row.CreatedAt = time.Unix(createdAt, 0)
		row.UpdatedAt = time.Unix(updatedAt, 0)
		out = append(out, row)
	}
	return out, rows.Err()
}

// SegmentCountByCategory aggregates removed segments over all documents.
func (s *Store) SegmentCountByCategory(ctx context.Context) (map[string]int, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT category, COUNT(*) FROM removed_segments GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("store: segment counts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var cat string
		var n int
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, err
		}
		out[cat] = n
	}
	return out, rows.Err()
}

// Events returns the stage trail for a document, oldest first.
func (s *Store) Events(ctx context.Context, documentID string) ([]EventRow, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT stage, success, duration_us, detail, timestamp
		FROM processing_events WHERE document_id = ? ORDER BY id`, documentID)
	if err != nil {
		return nil, fmt.Errorf("store: events: %w", err)
	}
	defer rows.Close()

	var out []EventRow
	for rows.Next() {
		var (
			e       EventRow
			success int
			ts      int64
		)
		if err := rows.Scan(&e.Stage, &success, &e.DurationUS, &e.Detail, &ts); err != nil {
			return nil, err
		}
		e.Success = success != 0
		e.Timestamp = time.Unix(ts, 0)
		out = append(out, e)
	}
	return out, rows.Err()
}

// EventRow is one processing_events record.
type EventRow struct {
	Stage      string
	Success    bool
	DurationUS int64
	Detail     string
	Timestamp  time.Time
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// fileSHA256 hashes the file at path; unreadable files yield "".
func fileSHA256(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return ""
	}
	return hex.EncodeToString(h.Sum(nil))
}
