// CLAUDE:SUMMARY Staged directory layout and movers: raw, staged, processed, quarantine, export.
// Package stagedir manages the on-disk staging layout a batch run walks
// through: documents land in raw/, move to staged/ when picked up, then to
// processed/ or quarantine/ depending on outcome, with cleaned artifacts
// written under export/.
//
// Moves within the root are atomic renames. A name collision is resolved by
// prefixing the incoming file with the first 12 hex chars of its sha256, so
// two different "response.pdf" uploads never clobber each other while the
// same bytes land on the same name.
package stagedir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hazyhaar/lexpipe/pathsafe"
)

// Stage directory names under the root.
const (
	DirRaw        = "raw"
	DirStaged     = "staged"
	DirProcessed  = "processed"
	DirQuarantine = "quarantine"
	DirExport     = "export"
)

// Layout is a rooted staging layout.
type Layout struct {
	root string
	log  *slog.Logger
}

// New creates the layout rooted at root, making all stage directories.
func New(root string, logger *slog.Logger) (*Layout, error) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, d := range []string{DirRaw, DirStaged, DirProcessed, DirQuarantine, DirExport} {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return nil, fmt.Errorf("stagedir: mkdir %s: %w", d, err)
		}
	}
	return &Layout{root: root, log: logger.With("component", "stagedir")}, nil
}

// Dir returns the absolute path of one stage directory.
func (l *Layout) Dir(stage string) string {
	return filepath.Join(l.root, stage)
}

// ListRaw returns the files currently waiting in raw/, sorted by name.
func (l *Layout) ListRaw() ([]string, error) {
	entries, err := os.ReadDir(l.Dir(DirRaw))
	if err != nil {
		return nil, fmt.Errorf("stagedir: list raw: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		out = append(out, filepath.Join(l.Dir(DirRaw), e.Name()))
	}
	return out, nil
}

// Stage moves a raw file into staged/ and returns its new path.
func (l *Layout) Stage(path string) (string, error) {
	return l.move(path, DirStaged)
}

// MarkProcessed moves a staged file into processed/.
func (l *Layout) MarkProcessed(path string) (string, error) {
	return l.move(path, DirProcessed)
}

// Quarantine moves a file into quarantine/ and records why in a .reason.txt
// sidecar next to it.
func (l *Layout) Quarantine(path, reason string) (string, error) {
	dst, err := l.move(path, DirQuarantine)
	if err != nil {
		return "", err
	}
	sidecar := dst + ".reason.txt"
	if err := os.WriteFile(sidecar, []byte(reason+"\n"), 0o644); err != nil {
		return dst, fmt.Errorf("stagedir: write reason sidecar: %w", err)
	}
	l.log.Warn("quarantined", "path", dst, "reason", reason)
	return dst, nil
}

// ExportDir returns the export directory for cleaned artifacts.
func (l *Layout) ExportDir() string {
	return l.Dir(DirExport)
}

// move renames path into the stage directory, resolving name collisions
// with a content-hash prefix. Upload names are untrusted, so the
// destination is traversal-checked against the stage directory.
func (l *Layout) move(path, stage string) (string, error) {
	dst, err := pathsafe.Join(l.Dir(stage), filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("stagedir: %w", err)
	}
	if _, err := os.Stat(dst); err == nil {
		prefix, herr := hashPrefix(path)
		if herr != nil {
			return "", herr
		}
		dst = filepath.Join(l.Dir(stage), prefix+"_"+filepath.Base(path))
		if _, err := os.Stat(dst); err == nil {
			// Same name, same bytes: the file is already there.
			if err := os.Remove(path); err != nil {
				return "", fmt.Errorf("stagedir: remove duplicate: %w", err)
			}
			l.log.Info("duplicate dropped", "path", path, "existing", dst)
			return dst, nil
		}
	}
	if err := os.Rename(path, dst); err != nil {
		return "", fmt.Errorf("stagedir: move to %s: %w", stage, err)
	}
	l.log.Debug("moved", "from", path, "to", dst)
	return dst, nil
}

// hashPrefix returns the first 12 hex chars of the file's sha256.
func hashPrefix(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("stagedir: hash: %w", err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("stagedir: hash: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil))[:12], nil
}
