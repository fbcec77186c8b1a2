package parser

import (
	"context"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/dgallion1/lsearchy/internal/document"
)

// Extractor turns a file into text fragments, or fails with an *ExtractError.
type Extractor interface {
	Extract(ctx context.Context, path string) ([]string, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, path string) ([]string, error)

func (f ExtractorFunc) Extract(ctx context.Context, path string) ([]string, error) {
	return f(ctx, path)
}

// formats maps recognized extensions to their extraction family.
var formats = map[string]document.Format{
	".pdf": document.FormatPDF,

	".doc": document.FormatLegacyWord,

	".docx": document.FormatModernContainer,
	".xlsx": document.FormatModernContainer,
	".pptx": document.FormatModernContainer,
	".odt":  document.FormatModernContainer,
	".odp":  document.FormatModernContainer,
	".ods":  document.FormatModernContainer,
	".odb":  document.FormatModernContainer,

	".txt":  document.FormatPlainText,
	".rtf":  document.FormatPlainText,
	".ans":  document.FormatPlainText,
	".csv":  document.FormatPlainText,
	".json": document.FormatPlainText,
	".html": document.FormatPlainText,
	".xml":  document.FormatPlainText,
}

// SupportedExtensions lists every extension the classifier recognizes, sorted.
var SupportedExtensions = func() []string {
	exts := make([]string, 0, len(formats))
	for ext := range formats {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}()

// Classify returns the format for a path based on its extension, ignoring case.
func Classify(path string) document.Format {
	ext := strings.ToLower(filepath.Ext(path))
	if f, ok := formats[ext]; ok {
		return f
	}
	return document.FormatUnsupported
}

// IsSupported checks if a file extension is recognized.
func IsSupported(path string) bool {
	return Classify(path) != document.FormatUnsupported
}

// Options tunes the built-in extractors.
type Options struct {
	ToolTimeout          time.Duration // Bound on any external tool invocation
	PDFFallbackPdftotext bool          // Retry failed PDFs with pdftotext
	LegacyRawFallback    bool          // Allow reading raw .doc lines when no tool is present
	LegacyRawLines       int           // Lines read by the raw .doc fallback
	MaxEntryBytes        int64         // Per-entry cap when reading containers
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		ToolTimeout:          30 * time.Second,
		PDFFallbackPdftotext: true,
		LegacyRawFallback:    true,
		LegacyRawLines:       20,
		MaxEntryBytes:        64 << 20,
	}
}

// Registry selects the extractor for a document format.
// The zero value is empty and ready for Register.
type Registry struct {
	extractors map[document.Format]Extractor
}

// NewRegistry wires the built-in extractors for every supported format.
func NewRegistry(opts Options, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	runner := &ExecRunner{Timeout: opts.ToolTimeout, Log: log}
	caps := DetectCapabilities(runtime.GOOS, opts.LegacyRawFallback)
	log.Debug("legacy word capabilities",
		"platform", caps.Platform,
		"automation", caps.Automation,
		"antiword", caps.Antiword,
		"raw_fallback", caps.RawFallback,
	)

	r := &Registry{}
	r.Register(document.FormatPDF, &PDFExtractor{
		FallbackPdftotext: opts.PDFFallbackPdftotext,
		Runner:            runner,
		Log:               log,
	})
	r.Register(document.FormatLegacyWord, NewDocExtractor(caps, runner, opts.LegacyRawLines, log))
	r.Register(document.FormatModernContainer, &ContainerExtractor{MaxEntryBytes: opts.MaxEntryBytes})
	r.Register(document.FormatPlainText, &TextExtractor{})
	return r
}

// Register sets the extractor used for a format, replacing any previous one.
func (r *Registry) Register(f document.Format, e Extractor) {
	if r.extractors == nil {
		r.extractors = make(map[document.Format]Extractor)
	}
	r.extractors[f] = e
}

// ForFormat returns the extractor for f, or nil when f has none.
func (r *Registry) ForFormat(f document.Format) Extractor {
	if r == nil || f == document.FormatUnsupported {
		return nil
	}
	return r.extractors[f]
}
