package pathsafe

import (
	"bytes"
	"strings"
	"testing"
)

func TestJoin(t *testing.T) {
	tests := []struct {
		base, input string
		wantErr     bool
	}{
		{"/data/staged", "motion.pdf", false},
		{"/data/staged", "batch_7/motion.pdf", false},
		{"/data/staged", "../etc/passwd", true},
		{"/data/staged", "a/../b", true},
		{"/data/staged", "a/../../outside", true},
	}
	for _, tt := range tests {
		got, err := Join(tt.base, tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Join(%q, %q) = %q, want error", tt.base, tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Join(%q, %q): %v", tt.base, tt.input, err)
			continue
		}
		if !strings.HasPrefix(got, tt.base) {
			t.Errorf("Join(%q, %q) = %q, escapes base", tt.base, tt.input, got)
		}
	}
}

func TestValidateName(t *testing.T) {
	if err := ValidateName("response_doc-1.md"); err != nil {
		t.Errorf("valid name rejected: %v", err)
	}
	if err := ValidateName(""); err == nil {
		t.Error("empty name accepted")
	}
	if err := ValidateName("a/b"); err == nil {
		t.Error("slash accepted")
	}
	if err := ValidateName(strings.Repeat("x", 257)); err == nil {
		t.Error("overlong name accepted")
	}
}

func TestLimitedReadAll(t *testing.T) {
	data, err := LimitedReadAll(bytes.NewReader([]byte("%PDF-1.7")), 64)
	if err != nil || string(data) != "%PDF-1.7" {
		t.Fatalf("got %q, %v", data, err)
	}
	if _, err := LimitedReadAll(bytes.NewReader(bytes.Repeat([]byte("a"), 100)), 64); err == nil {
		t.Fatal("oversized input accepted")
	}
}
