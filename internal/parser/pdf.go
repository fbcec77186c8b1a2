package parser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// PDFExtractor handles PDF files. It tries the Go library first,
// then falls back to pdftotext if enabled.
type PDFExtractor struct {
	FallbackPdftotext bool
	Runner            Runner
	Log               *slog.Logger
}

// Extract returns one fragment per non-empty page, in page order.
func (p *PDFExtractor) Extract(ctx context.Context, path string) ([]string, error) {
	pages, err := readPDFPages(path)
	if err == nil {
		return pages, nil
	}
	if !p.FallbackPdftotext || p.Runner == nil {
		return nil, err
	}

	out, ferr := p.Runner.Run(ctx, "pdftotext", "-layout", path, "-")
	if ferr != nil {
		if p.Log != nil {
			p.Log.Debug("pdftotext fallback failed", "path", path, "error", ferr)
		}
		return nil, err
	}
	return splitPages(string(out)), nil
}

func readPDFPages(path string) (pages []string, err error) {
	// The decoder panics on some damaged inputs.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = newExtractError(FailureUnknown, path, fmt.Errorf("pdf decoder panic: %v", r))
		}
	}()

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, classifyPDFError(path, err)
	}
	defer f.Close()

	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, perr := page.GetPlainText(nil)
		if perr != nil {
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}

func classifyPDFError(path string, err error) *ExtractError {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "encrypt") || strings.Contains(msg, "password") {
		return newExtractError(FailureEncrypted, path, err)
	}
	return newExtractError(FailureMalformed, path, err)
}

// splitPages breaks pdftotext output on form feeds, dropping blank pages.
func splitPages(text string) []string {
	var pages []string
	for _, page := range strings.Split(text, "\f") {
		if strings.TrimSpace(page) == "" {
			continue
		}
		pages = append(pages, page)
	}
	return pages
}
