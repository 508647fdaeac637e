package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Field is a single labelled value on a rendered document.
type Field struct {
	Label string
	Value string
}

// Section groups related fields under a heading, optionally followed by
// free-form paragraphs (descriptions, comments, remarks).
type Section struct {
	Heading    string
	Fields     []Field
	Paragraphs []string
}

// Document describes a printable record such as an offer letter or a report.
type Document struct {
	Title    string
	Subtitle string
	Sections []Section
	Footer   string
}

// PDFExporter renders documents and tabular datasets into PDF bytes.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF for a field/section document.
func (e *PDFExporter) Render(doc Document) ([]byte, error) {
	if doc.Title == "" {
		return nil, fmt.Errorf("pdf requires a title")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 18, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 15)
	pdf.CellFormat(0, 10, strings.ToUpper(doc.Title), "", 1, "C", false, 0, "")
	if doc.Subtitle != "" {
		pdf.SetFont("Arial", "I", 10)
		pdf.CellFormat(0, 6, doc.Subtitle, "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	for _, section := range doc.Sections {
		if section.Heading != "" {
			pdf.SetFont("Arial", "B", 11)
			pdf.CellFormat(0, 8, section.Heading, "B", 1, "L", false, 0, "")
			pdf.Ln(1)
		}
		pdf.SetFont("Arial", "", 10)
		for _, field := range section.Fields {
			pdf.SetFont("Arial", "B", 10)
			pdf.CellFormat(55, 6, field.Label, "", 0, "L", false, 0, "")
			pdf.SetFont("Arial", "", 10)
			pdf.MultiCell(0, 6, field.Value, "", "L", false)
		}
		for _, paragraph := range section.Paragraphs {
			pdf.MultiCell(0, 5, paragraph, "", "L", false)
			pdf.Ln(2)
		}
		pdf.Ln(3)
	}

	if doc.Footer != "" {
		pdf.SetY(-25)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 5, doc.Footer, "T", 1, "C", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderTable creates a tabular PDF for listing exports.
func (e *PDFExporter) RenderTable(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf table requires at least one header")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	pdf.SetFont("Arial", "B", 10)
	colWidth := 190.0 / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, 7, row[header], "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf table: %w", err)
	}
	return buf.Bytes(), nil
}
