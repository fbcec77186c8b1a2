package parser

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// markupExtensions get HTML/XML character references decoded, so "&#64;" reads as "@".
var markupExtensions = map[string]bool{
	".html": true,
	".xml":  true,
}

// TextExtractor handles plain text and markup files.
type TextExtractor struct{}

func (t *TextExtractor) Extract(_ context.Context, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newExtractError(FailureUnknown, path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, newExtractError(FailureUnknown, path, err)
	}

	text := strings.Join(lines, "\n")
	if markupExtensions[strings.ToLower(filepath.Ext(path))] {
		text = html.UnescapeString(text)
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return []string{text}, nil
}
