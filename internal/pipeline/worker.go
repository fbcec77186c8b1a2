package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/dgallion1/lsearchy/internal/address"
	"github.com/dgallion1/lsearchy/internal/document"
	"github.com/dgallion1/lsearchy/internal/parser"
)

// processDocument runs classify, extract, recognize and aggregate for one
// path. Every failure here is recoverable: it is logged at debug level and
// the document contributes nothing.
func (e *Engine) processDocument(ctx context.Context, path string, query address.Query, rs *ResultSet) {
	doc := document.Document{Path: path, Format: parser.Classify(path)}
	log := e.log.With("path", path, "format", doc.Format)

	ext := e.registry.ForFormat(doc.Format)
	if ext == nil {
		log.Debug("unsupported format, skipping")
		rs.countUnsupported()
		return
	}

	start := time.Now()
	fragments, err := ext.Extract(ctx, path)
	if e.Stats != nil {
		e.Stats.Record(doc.Format, time.Since(start), err != nil)
	}
	if err != nil {
		kind := parser.KindOf(err)
		log.Debug("extraction failed", "kind", kind.String(), "error", err)
		rs.countFailure(kind.String())
		return
	}
	rs.countProcessed()

	findings := collectFindings(fragments, query)
	if len(findings) == 0 {
		return
	}

	fresh, err := rs.InsertDocument(doc, findings)
	if err != nil {
		if errors.Is(err, ErrSealed) {
			log.Debug("result set sealed, dropping findings", "findings", len(findings))
		}
		return
	}
	log.Debug("document processed", "findings", len(findings), "new", len(fresh))
	e.notify(fresh, doc)
}

// collectFindings keeps fragment order, and match order within a fragment.
func collectFindings(fragments []string, query address.Query) []Finding {
	var findings []Finding
	for _, frag := range fragments {
		for _, addr := range address.Extract(frag) {
			findings = append(findings, Finding{Address: addr, MatchesQuery: query.Matches(addr)})
		}
	}
	return findings
}
