// Package report writes scan records to files. The writer is chosen by the
// output path's extension.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dgallion1/lsearchy/internal/document"
)

// ErrUnknownFormat is returned by Save for an extension with no writer.
var ErrUnknownFormat = errors.New("unknown report format")

// Header is the column row shared by every tabular writer.
var Header = []string{"Email Address", "Document", "Matches Query?"}

type writeFunc func(path string, records []document.Record) error

var writers = map[string]writeFunc{
	".csv":    writeCSV,
	".json":   writeJSON,
	".xlsx":   writeXLSX,
	".docx":   writeDOCX,
	".html":   writeHTML,
	".sqlite": writeSQLite,
	".db":     writeSQLite,
}

// Formats lists the supported output extensions, sorted.
func Formats() []string {
	exts := make([]string, 0, len(writers))
	for ext := range writers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Supported reports whether path has an extension Save can write.
func Supported(path string) bool {
	_, ok := writers[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Save writes records to path in the format implied by its extension.
func Save(path string, records []document.Record) error {
	ext := strings.ToLower(filepath.Ext(path))
	write, ok := writers[ext]
	if !ok {
		return fmt.Errorf("%w: %q (supported: %s)", ErrUnknownFormat, ext, strings.Join(Formats(), ", "))
	}
	if err := write(path, records); err != nil {
		return fmt.Errorf("write %s report: %w", strings.TrimPrefix(ext, "."), err)
	}
	return nil
}

// rows renders records as string cells in Header order.
func rows(records []document.Record) [][]string {
	out := make([][]string, 0, len(records))
	for _, r := range records {
		out = append(out, []string{r.Address, r.Document.Path, r.MatchFlag()})
	}
	return out
}

func writeJSON(path string, records []document.Record) error {
	if records == nil {
		records = []document.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
