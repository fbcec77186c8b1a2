package report

import (
	"os"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/lsearchy/internal/document"
)

// writeDOCX lays records out as one tab-separated paragraph each.
func writeDOCX(path string, records []document.Record) error {
	doc := docx.New().WithDefaultTheme()
	doc.AddParagraph().AddText("lsearchy results").Size("32")

	header := doc.AddParagraph()
	for i, h := range Header {
		run := header.AddText(h)
		if i < len(Header)-1 {
			run.AddTab()
		}
	}

	for _, cells := range rows(records) {
		para := doc.AddParagraph()
		for i, c := range cells {
			run := para.AddText(c)
			if i < len(cells)-1 {
				run.AddTab()
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := doc.WriteTo(f); err != nil {
		return err
	}
	return f.Close()
}
