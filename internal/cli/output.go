package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/dgallion1/lsearchy/internal/document"
	"github.com/dgallion1/lsearchy/internal/pipeline"
)

// Theme holds the styles used for live findings.
type Theme struct {
	Match    lipgloss.Style
	NoMatch  lipgloss.Style
	Document lipgloss.Style
}

// DefaultTheme colors query matches red and other addresses green.
func DefaultTheme() Theme {
	return Theme{
		Match:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		NoMatch:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Document: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// PlainTheme renders everything unstyled.
func PlainTheme() Theme {
	return Theme{
		Match:    lipgloss.NewStyle(),
		NoMatch:  lipgloss.NewStyle(),
		Document: lipgloss.NewStyle(),
	}
}

// findingPrinter writes one line per newly seen address.
type findingPrinter struct {
	mu    sync.Mutex
	w     io.Writer
	theme Theme
}

func newFindingPrinter(w io.Writer, color bool) *findingPrinter {
	theme := PlainTheme()
	if color {
		theme = DefaultTheme()
	}
	return &findingPrinter{w: w, theme: theme}
}

func (p *findingPrinter) print(f pipeline.Finding, doc document.Document) {
	p.mu.Lock()
	defer p.mu.Unlock()

	style := p.theme.NoMatch
	if f.MatchesQuery {
		style = p.theme.Match
	}
	fmt.Fprintf(p.w, "%s  %s\n", style.Render(f.Address), p.theme.Document.Render(doc.Path))
}

// summary renders the closing line of a scan.
func summary(snap pipeline.Snapshot) string {
	matching := 0
	seen := make(map[string]bool)
	for _, rec := range snap.Records {
		if rec.MatchesQuery && !seen[rec.Address] {
			seen[rec.Address] = true
			matching++
		}
	}
	c := snap.Counters
	return fmt.Sprintf("%d addresses (%d matching) from %d of %d documents, %d failed, %d unsupported",
		len(snap.Addresses), matching, c.Processed, c.Discovered, c.Failed, c.Unsupported)
}
