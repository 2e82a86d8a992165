package localfs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kirillkom/pdf-to-excel/internal/core/domain"
)

func TestSaveAndOpen(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := store.Save(context.Background(), "abc_doc.pdf", strings.NewReader("%PDF")); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	rc, err := store.Open(context.Background(), "abc_doc.pdf")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer rc.Close()
	raw, _ := io.ReadAll(rc)
	if string(raw) != "%PDF" {
		t.Fatalf("expected saved body, got %q", raw)
	}

	entries, _ := os.ReadDir(store.Dir())
	if len(entries) != 1 {
		t.Fatalf("expected no temporary leftovers, got %d entries", len(entries))
	}
	if filepath.Dir(store.Path("x")) != store.Dir() {
		t.Fatalf("expected keys to resolve inside storage dir")
	}
}

func TestRejectsTraversalKeys(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for _, key := range []string{"", "..", "../escape.pdf", `a\b.pdf`} {
		if err := store.Save(context.Background(), key, strings.NewReader("x")); !domain.IsKind(err, domain.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %q, got %v", key, err)
		}
	}
}

func TestOpenMissingIsNotFound(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := store.Open(context.Background(), "gone.xlsx"); !domain.IsKind(err, domain.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}
