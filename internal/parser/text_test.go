package parser

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestTextExtractor_JoinsLinesIntoOneFragment(t *testing.T) {
	path := writeFile(t, "notes.txt", "First line.\nSecond line.\r\n\nThird line.")
	frags, err := (&TextExtractor{}).Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frags) != 1 {
		t.Fatalf("expected 1 fragment, got %d", len(frags))
	}
	want := "First line.\nSecond line.\n\nThird line."
	if frags[0] != want {
		t.Errorf("expected %q, got %q", want, frags[0])
	}
}

func TestTextExtractor_EmptyInput(t *testing.T) {
	path := writeFile(t, "empty.txt", "")
	frags, err := (&TextExtractor{}).Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frags) != 0 {
		t.Errorf("expected 0 fragments for empty input, got %d", len(frags))
	}
}

func TestTextExtractor_WhitespaceOnly(t *testing.T) {
	path := writeFile(t, "ws.csv", "   \n\t\n")
	frags, err := (&TextExtractor{}).Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frags) != 0 {
		t.Errorf("expected 0 fragments, got %d", len(frags))
	}
}

func TestTextExtractor_MarkupEntitiesDecoded(t *testing.T) {
	path := writeFile(t, "page.html", `<p>mail jane&#64;example.com &amp; others</p>`)
	frags, err := (&TextExtractor{}).Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frags) != 1 || !strings.Contains(frags[0], "jane@example.com") {
		t.Errorf("expected decoded address in %q", frags)
	}
}

func TestTextExtractor_PlainTextKeepsEntities(t *testing.T) {
	path := writeFile(t, "raw.txt", "jane&#64;example.com")
	frags, err := (&TextExtractor{}).Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frags) != 1 || frags[0] != "jane&#64;example.com" {
		t.Errorf("expected text untouched, got %q", frags)
	}
}

func TestTextExtractor_MissingFile(t *testing.T) {
	_, err := (&TextExtractor{}).Extract(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if KindOf(err) != FailureUnknown {
		t.Errorf("expected kind %s, got %s", FailureUnknown, KindOf(err))
	}
}
