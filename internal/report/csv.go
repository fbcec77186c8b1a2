package report

import (
	"encoding/csv"
	"os"

	"github.com/dgallion1/lsearchy/internal/document"
)

func writeCSV(path string, records []document.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		return err
	}
	if err := w.WriteAll(rows(records)); err != nil {
		return err
	}
	return f.Close()
}
