package document

// Format is the extraction family a file belongs to, derived from its extension.
type Format string

const (
	FormatPDF             Format = "pdf"
	FormatLegacyWord      Format = "legacy-word"
	FormatModernContainer Format = "modern-container"
	FormatPlainText       Format = "plain-text"
	FormatUnsupported     Format = "unsupported"
)

// Document is a discovered file plus its classified format.
type Document struct {
	Path   string `json:"path"`   // File-system path as discovered
	Format Format `json:"format"` // Extraction family
}

// Record is one (address, document) occurrence in a scan result.
type Record struct {
	Address      string   `json:"address"`
	Document     Document `json:"document"`
	MatchesQuery bool     `json:"matches_query"`
}

// MatchFlag renders MatchesQuery the way reports print it.
func (r Record) MatchFlag() string {
	if r.MatchesQuery {
		return "T"
	}
	return "F"
}
