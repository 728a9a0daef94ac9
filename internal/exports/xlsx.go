package exports

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const summarySheet = "Summary"

// renderXLSX writes a Summary sheet followed by one sheet per collection.
func renderXLSX(d Document) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E6ECF5"}},
	})
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}

	for i, kv := range d.summary() {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &[]any{kv[0], kv[1]}); err != nil {
			return nil, fmt.Errorf("render xlsx summary: %w", err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(1, len(d.summary()))
	if err := f.SetCellStyle(summarySheet, "A1", last, bold); err != nil {
		return nil, fmt.Errorf("render xlsx summary: %w", err)
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 28); err != nil {
		return nil, fmt.Errorf("render xlsx summary: %w", err)
	}
	if err := f.SetColWidth(summarySheet, "B", "B", 60); err != nil {
		return nil, fmt.Errorf("render xlsx summary: %w", err)
	}

	for _, t := range d.tables() {
		if err := writeSheet(f, t, header); err != nil {
			return nil, fmt.Errorf("render xlsx %s: %w", t.Name, err)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, t table, headerStyle int) error {
	if _, err := f.NewSheet(t.Name); err != nil {
		return err
	}
	headers := make([]any, len(t.Headers))
	for i, h := range t.Headers {
		headers[i] = h
	}
	if err := f.SetSheetRow(t.Name, "A1", &headers); err != nil {
		return err
	}
	lastCol, err := excelize.ColumnNumberToName(len(t.Headers))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(t.Name, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(t.Name, "A", lastCol, 22); err != nil {
		return err
	}
	for i, row := range t.Rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(t.Name, cell, &row); err != nil {
			return err
		}
	}
	return f.SetPanes(t.Name, &excelize.Panes{Freeze: true, Split: false, XSplit: 0, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}
