// Package pathsafe guards filesystem operations on user-supplied document
// names: traversal checks for staged files, identifier validation for
// archive names, and bounded reads for intake.
package pathsafe

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// MaxIntakeRead is the default cap for speculative file reads during intake.
const MaxIntakeRead int64 = 1 << 20

// ErrPathTraversal is returned when a user-supplied path escapes its base.
var ErrPathTraversal = errors.New("pathsafe: path traversal detected")

// Join validates that joining base and name does not escape base. Returns
// the cleaned absolute path or ErrPathTraversal.
func Join(base, name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrPathTraversal
	}
	cleaned := filepath.Join(base, filepath.Clean("/"+name))
	if !strings.HasPrefix(cleaned, filepath.Clean(base)+string(filepath.Separator)) &&
		cleaned != filepath.Clean(base) {
		return "", ErrPathTraversal
	}
	return cleaned, nil
}

// ValidateName rejects names unsuitable for file names or URL path
// segments. Allows alphanumeric, underscore, hyphen, and dot.
func ValidateName(s string) error {
	if s == "" {
		return fmt.Errorf("pathsafe: name must not be empty")
	}
	if len(s) > 256 {
		return fmt.Errorf("pathsafe: name too long (max 256)")
	}
	for _, r := range s {
		if !isNameChar(r) {
			return fmt.Errorf("pathsafe: invalid character %q in name", r)
		}
	}
	return nil
}

// LimitedReadAll reads at most maxBytes from r, failing rather than
// truncating when the limit is exceeded.
func LimitedReadAll(r io.Reader, maxBytes int64) ([]byte, error) {
	lr := io.LimitReader(r, maxBytes+1)
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("pathsafe: input exceeds %d bytes", maxBytes)
	}
	return data, nil
}

func isNameChar(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') || r == '_' || r == '-' || r == '.'
}
