package report

import (
	"bytes"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/dgallion1/lsearchy/internal/document"
)

const htmlHead = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>lsearchy results</title>
</head>
<body>
`

const htmlFoot = `</body>
</html>
`

// writeHTML renders records as a Markdown table and converts it with goldmark.
func writeHTML(path string, records []document.Record) error {
	var md strings.Builder
	md.WriteString("# lsearchy results\n\n")
	writeTableRow(&md, Header)
	md.WriteString("|---|---|:---:|\n")
	for _, cells := range rows(records) {
		writeTableRow(&md, cells)
	}

	conv := goldmark.New(goldmark.WithExtensions(extension.Table))
	var out bytes.Buffer
	out.WriteString(htmlHead)
	if err := conv.Convert([]byte(md.String()), &out); err != nil {
		return err
	}
	out.WriteString(htmlFoot)
	return os.WriteFile(path, out.Bytes(), 0o644)
}

func writeTableRow(b *strings.Builder, cells []string) {
	b.WriteString("|")
	for _, c := range cells {
		b.WriteString(" ")
		b.WriteString(escapeMarkdown(c))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}

const asciiPunct = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// escapeMarkdown backslash-escapes ASCII punctuation so cell text renders literally.
func escapeMarkdown(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\r' {
			b.WriteByte(' ')
			continue
		}
		if strings.ContainsRune(asciiPunct, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
