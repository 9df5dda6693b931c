package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// PDFContentType is served for rendered official documents.
const PDFContentType = "application/pdf"

// Field is a label/value line in the identity block.
type Field struct {
	Label string
	Value string
}

// Document is the printable content of one official record.
type Document struct {
	Institution      string
	Title            string
	Number           string
	IssuedAt         time.Time
	Identity         []Field
	Paragraphs       []string
	Table            *Dataset
	Summary          []Field
	VerificationCode string
	Hash             string
}

// DocumentRenderer lays out official documents on A4 pages.
type DocumentRenderer struct{}

// NewDocumentRenderer constructs a renderer.
func NewDocumentRenderer() *DocumentRenderer {
	return &DocumentRenderer{}
}

// Render creates the PDF bytes for the document.
func (r *DocumentRenderer) Render(doc Document) ([]byte, error) {
	if doc.Number == "" || doc.VerificationCode == "" {
		return nil, fmt.Errorf("document requires a number and a verification code")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 25)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-20)
		pdf.SetFont("Arial", "", 7)
		pdf.CellFormat(0, 4, fmt.Sprintf("No. %s  |  Verification code: %s", doc.Number, doc.VerificationCode), "", 1, "C", false, 0, "")
		pdf.CellFormat(0, 4, "SHA-256: "+doc.Hash, "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	if doc.Institution != "" {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 7, strings.ToUpper(doc.Institution), "", 1, "C", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, strings.ToUpper(doc.Title), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, "No. "+doc.Number, "", 1, "C", false, 0, "")
	pdf.Ln(6)

	writeFields(pdf, doc.Identity)

	pdf.SetFont("Arial", "", 10)
	for _, p := range doc.Paragraphs {
		pdf.MultiCell(0, 6, p, "", "J", false)
		pdf.Ln(2)
	}

	if doc.Table != nil && len(doc.Table.Headers) > 0 {
		pdf.Ln(2)
		writeTable(pdf, *doc.Table)
	}

	if len(doc.Summary) > 0 {
		pdf.Ln(4)
		writeFields(pdf, doc.Summary)
	}

	if !doc.IssuedAt.IsZero() {
		pdf.Ln(6)
		pdf.SetFont("Arial", "I", 9)
		pdf.CellFormat(0, 5, "Issued on "+doc.IssuedAt.UTC().Format("2006-01-02 15:04 MST"), "", 1, "R", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeFields(pdf *gofpdf.Fpdf, fields []Field) {
	for _, f := range fields {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(50, 6, f.Label, "", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, f.Value, "", 1, "", false, 0, "")
	}
	if len(fields) > 0 {
		pdf.Ln(4)
	}
}

func writeTable(pdf *gofpdf.Fpdf, data Dataset) {
	colWidth := 180.0 / float64(len(data.Headers))
	pdf.SetFont("Arial", "B", 9)
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 7, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for _, row := range data.Rows {
		for _, value := range data.record(row) {
			pdf.CellFormat(colWidth, 6, value, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}
}
