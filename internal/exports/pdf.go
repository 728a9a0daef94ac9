package exports

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

const (
	pdfMargin     = 15.0
	pdfLineHeight = 7.0
	pdfLabelWidth = 60.0
)

// renderPDF lays out a summary page followed by one page per collection.
// Core fonts are cp1252; text outside it is replaced by the translator.
func renderPDF(d Document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(d.Title, true)
	pdf.SetCreator("innovation-backend", true)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(d.Title), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 10)
	for _, kv := range d.summary() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(pdfLabelWidth, pdfLineHeight, tr(cellText(kv[0])), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, pdfLineHeight, tr(cellText(kv[1])), "", "L", false)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, "Sections", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, s := range d.Readiness.Sections {
		mark := "missing"
		if s.Complete {
			mark = "complete"
		}
		line := fmt.Sprintf("%d. %s (%d%%): %s", s.Step, s.Title, s.Weight, mark)
		pdf.CellFormat(0, 6, tr(line), "", 1, "L", false, 0, "")
	}

	for _, t := range d.tables() {
		pdf.AddPage()
		writePDFTable(pdf, tr, t)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writePDFTable(pdf *fpdf.Fpdf, tr func(string) string, t table) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, tr(t.Name), "", 1, "L", false, 0, "")

	if len(t.Rows) == 0 {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(0, pdfLineHeight, "No entries", "", 1, "L", false, 0, "")
		return
	}

	pageW, _ := pdf.GetPageSize()
	colW := (pageW - 2*pdfMargin) / float64(len(t.Headers))

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 236, 245)
	for _, h := range t.Headers {
		pdf.CellFormat(colW, pdfLineHeight, tr(h), "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, row := range t.Rows {
		for _, cell := range row {
			text := fitText(pdf, tr(cellText(cell)), colW-2)
			pdf.CellFormat(colW, pdfLineHeight, text, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

// fitText shortens s with an ellipsis until it fits in width.
func fitText(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > width {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
