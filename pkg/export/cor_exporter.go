package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// CORLine is one registered subject on a certificate of registration.
type CORLine struct {
	Code    string
	Title   string
	Units   float64
	Section string
}

// CORDocument holds everything printed on a certificate of registration.
type CORDocument struct {
	StudentNo   string
	StudentName string
	ProgramName string
	TermName    string
	Lines       []CORLine
	TotalUnits  float64
}

// CORExporter renders certificates of registration as PDF.
type CORExporter struct{}

// NewCORExporter constructs a COR exporter.
func NewCORExporter() *CORExporter {
	return &CORExporter{}
}

// Render produces the PDF bytes for a confirmed enrollment.
func (e *CORExporter) Render(doc CORDocument) ([]byte, error) {
	if len(doc.Lines) == 0 {
		return nil, fmt.Errorf("cor requires at least one subject line")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, "CERTIFICATE OF REGISTRATION", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Student No: %s", doc.StudentNo), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Name: %s", doc.StudentName), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Program: %s", doc.ProgramName), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Term: %s", doc.TermName), "", 1, "", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(35, 8, "Code", "1", 0, "C", false, 0, "")
	pdf.CellFormat(95, 8, "Title", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 8, "Units", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 8, "Section", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, line := range doc.Lines {
		pdf.CellFormat(35, 7, line.Code, "1", 0, "", false, 0, "")
		pdf.CellFormat(95, 7, line.Title, "1", 0, "", false, 0, "")
		pdf.CellFormat(25, 7, fmt.Sprintf("%.1f", line.Units), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 7, line.Section, "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(130, 8, "Total Units", "1", 0, "R", false, 0, "")
	pdf.CellFormat(25, 8, fmt.Sprintf("%.1f", doc.TotalUnits), "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 8, "", "1", 0, "", false, 0, "")
	pdf.Ln(-1)

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render cor pdf: %w", err)
	}
	return buf.Bytes(), nil
}
