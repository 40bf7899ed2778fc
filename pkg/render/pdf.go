package render

import (
	"io"
	"strings"

	"github.com/arnavshah/roster-api-go/pkg/scheduler"
	"github.com/jung-kurt/gofpdf"
)

const (
	pdfLineHeight = 7.0
	pdfDayWidth   = 40.0
)

// PDFOptions controls the exported document. RowsPerPage < 1 keeps the whole
// week on one page.
type PDFOptions struct {
	Title       string
	RowsPerPage int
}

// BuildPDF lays the roster out on landscape A4 pages, repeating the title and
// header row on every page.
func BuildPDF(r *scheduler.Roster, opts PDFOptions) (*gofpdf.Fpdf, error) {
	if opts.Title == "" {
		opts.Title = "Final Weekly Schedule"
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(opts.Title, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	shiftWidth := (pageWidth - left - right - pdfDayWidth) / float64(len(r.Shifts()))
	widths := []float64{pdfDayWidth}
	for range r.Shifts() {
		widths = append(widths, shiftWidth)
	}

	for _, page := range r.Pages(opts.RowsPerPage) {
		pdf.AddPage()
		pdf.SetFont("Arial", "B", 16)
		pdf.CellFormat(0, 10, tr(opts.Title), "", 1, "C", false, 0, "")
		pdf.Ln(5)

		pdf.SetFont("Arial", "B", 12)
		for i, h := range Headers(r) {
			pdf.CellFormat(widths[i], 10, tr(h), "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 11)
		for _, row := range page {
			cells := append([]string{string(row.Day)}, row.Joined()...)
			pdfRow(pdf, tr, widths, cells)
		}
	}
	return pdf, pdf.Error()
}

// pdfRow draws one table row, wrapping long name lists inside their cell.
func pdfRow(pdf *gofpdf.Fpdf, tr func(string) string, widths []float64, cells []string) {
	lines := 1
	wrapped := make([][]string, len(cells))
	for i, c := range cells {
		wrapped[i] = pdf.SplitText(tr(c), widths[i]-2)
		lines = max(lines, len(wrapped[i]))
	}
	height := float64(lines) * pdfLineHeight

	x, y := pdf.GetXY()
	for i, w := range widths {
		pdf.Rect(x, y, w, height, "D")
		pdf.SetXY(x, y)
		pdf.MultiCell(w, pdfLineHeight, strings.Join(wrapped[i], "\n"), "", "L", false)
		x += w
	}
	left, _, _, _ := pdf.GetMargins()
	pdf.SetXY(left, y+height)
}

// PDF writes the roster as a PDF document.
func PDF(w io.Writer, r *scheduler.Roster, opts PDFOptions) error {
	pdf, err := BuildPDF(r, opts)
	if err != nil {
		return err
	}
	return pdf.Output(w)
}
