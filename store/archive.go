// CLAUDE:SUMMARY Markdown analog archive: one .md per processed document with YAML front matter.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/lexpipe/legaldoc"
	"github.com/hazyhaar/lexpipe/pathsafe"
)

// frontMatter is the YAML header of every archived document.
type frontMatter struct {
	DocumentID       string   `yaml:"document_id"`
	Source           string   `yaml:"source"`
	Method           string   `yaml:"method"`
	ValidationStatus string   `yaml:"validation_status"`
	QualityScore     float64  `yaml:"quality_score"`
	PageCount        int      `yaml:"page_count"`
	SegmentsRemoved  int      `yaml:"segments_removed"`
	RemovedPercent   float64  `yaml:"removed_percent"`
	FailureReasons   []string `yaml:"failure_reasons,omitempty"`
}

// ExportMarkdown writes the cleaned text of one processed document as a
// markdown file with YAML front matter, returning the written path. The
// archive is the human-browsable analog of the database: operators grep it,
// diff it, and feed it to downstream tooling.
func ExportMarkdown(dir string, res legaldoc.DocumentResult) (string, error) {
	if !res.Success {
		return "", fmt.Errorf("store: refusing to archive failed document %s", res.DocumentID)
	}

	fm := frontMatter{
		DocumentID:       res.DocumentID,
		Source:           res.Path,
		Method:           res.OCR.Method,
		ValidationStatus: string(res.OCR.ValidationStatus),
		QualityScore:     res.OCR.QualityScore,
		PageCount:        res.OCR.Metadata.PageCount,
		SegmentsRemoved:  res.Scrub.Stats.SegmentsRemoved,
		RemovedPercent:   res.Scrub.Stats.RemovedPercent,
		FailureReasons:   res.OCR.Metrics.FailureReasons,
	}
	return writeArchive(dir, archiveName(res.Path, res.DocumentID), fm, res.Scrub.CleanedText)
}

// ExportStored rebuilds the markdown archive for a previously persisted
// document from its database rows. Failed documents are refused the same
// way ExportMarkdown refuses them. Document IDs arrive from the CLI and
// end up in the archive filename, so they are validated first.
func (s *Store) ExportStored(ctx context.Context, dir, documentID string) (string, error) {
	if err := pathsafe.ValidateName(documentID); err != nil {
		return "", fmt.Errorf("store: export: %w", err)
	}
	var (
		fm          frontMatter
		success     int
		cleaned     string
		reasonsJSON string
	)
	err := s.DB.QueryRowContext(ctx, `
		SELECT d.id, d.path, d.method, d.validation_status, d.quality_score,
		       d.page_count, d.success, d.cleaned_text, d.segments_removed, d.removed_percent,
		       COALESCE((SELECT failure_reasons FROM quality_metrics
		                 WHERE document_id = d.id ORDER BY id DESC LIMIT 1), '[]')
		FROM documents d WHERE d.id = ?`, documentID).Scan(
		&fm.DocumentID, &fm.Source, &fm.Method, &fm.ValidationStatus,
		&fm.QualityScore, &fm.PageCount, &success, &cleaned,
		&fm.SegmentsRemoved, &fm.RemovedPercent, &reasonsJSON)
	if err != nil {
		return "", fmt.Errorf("store: export %s: %w", documentID, err)
	}
	if success == 0 {
		return "", fmt.Errorf("store: refusing to archive failed document %s", documentID)
	}
	if err := json.Unmarshal([]byte(reasonsJSON), &fm.FailureReasons); err != nil {
		return "", fmt.Errorf("store: export %s: failure reasons: %w", documentID, err)
	}
	return writeArchive(dir, archiveName(fm.Source, fm.DocumentID), fm, cleaned)
}

func writeArchive(dir, name string, fm frontMatter, cleaned string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("store: archive dir: %w", err)
	}
	header, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("store: front matter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")
	b.WriteString(cleaned)
	b.WriteString("\n")

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("store: write archive: %w", err)
	}
	return path, nil
}

// archiveName derives a stable, filesystem-safe name from the source
// filename and document ID.
func archiveName(sourcePath, documentID string) string {
	base := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	base = sanitize(base)
	if base == "" {
		base = "document"
	}
	return base + "_" + documentID + ".md"
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), "_")
}
