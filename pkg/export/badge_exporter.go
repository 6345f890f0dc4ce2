package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Badge holds the fields printed on a participant ID card.
type Badge struct {
	EventName  string
	HolderName string
	Company    string
	Department string
	Code       string
	Token      string
}

// BadgeExporter renders participant ID cards as single-page PDFs.
type BadgeExporter struct{}

// NewBadgeExporter constructs a badge exporter.
func NewBadgeExporter() *BadgeExporter {
	return &BadgeExporter{}
}

// Render produces the PDF bytes for one badge. The credential token is
// printed in text form so print-center staff can re-key it if the barcode
// printer is down.
func (e *BadgeExporter) Render(b Badge) ([]byte, error) {
	if b.HolderName == "" {
		return nil, fmt.Errorf("badge requires a holder name")
	}
	pdf := gofpdf.New("P", "mm", "A6", "")
	pdf.SetMargins(8, 10, 8)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 9, strings.ToUpper(b.EventName), "", 1, "C", false, 0, "")
	pdf.Ln(3)

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, b.HolderName, "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	if b.Company != "" {
		pdf.CellFormat(0, 6, b.Company, "", 1, "C", false, 0, "")
	}
	if b.Department != "" {
		pdf.CellFormat(0, 6, b.Department, "", 1, "C", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Courier", "B", 14)
	pdf.CellFormat(0, 8, b.Code, "1", 1, "C", false, 0, "")
	pdf.SetFont("Courier", "", 8)
	pdf.CellFormat(0, 5, b.Token, "", 1, "C", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render badge pdf: %w", err)
	}
	return buf.Bytes(), nil
}
