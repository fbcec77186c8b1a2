package report

import (
	"github.com/xuri/excelize/v2"

	"github.com/dgallion1/lsearchy/internal/document"
)

const sheetName = "Results"

func writeXLSX(path string, records []document.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	for i, h := range Header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
	}

	row := 2
	for _, cells := range rows(records) {
		for col, v := range cells {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}
		row++
	}

	_ = f.SetColWidth(sheetName, "A", "A", 36) // address
	_ = f.SetColWidth(sheetName, "B", "B", 60) // document
	_ = f.SetColWidth(sheetName, "C", "C", 16) // match flag

	return f.SaveAs(path)
}
