package manifest

import (
	"bytes"
	"io"

	"github.com/go-pdf/fpdf"
)

const pdfFont = "Helvetica"

// PDFSurface draws onto an A4 portrait PDF document.
type PDFSurface struct {
	pdf     *fpdf.Fpdf
	tr      func(string) string
	pending bool
	images  map[string]bool
}

// NewPDFSurface returns an empty document. No page exists until the first
// BeginPage.
func NewPDFSurface() *PDFSurface {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont(pdfFont, "", fontSize)
	return &PDFSurface{
		pdf: pdf,
		// core fonts are cp1252; translate the Spanish captions.
		tr:      pdf.UnicodeTranslatorFromDescriptor(""),
		pending: true,
		images:  make(map[string]bool),
	}
}

// BeginPage opens a new page when none is open or a break was requested.
func (s *PDFSurface) BeginPage() error {
	if s.pending {
		s.pdf.AddPage()
		s.pending = false
	}
	return s.pdf.Error()
}

func (s *PDFSurface) DrawText(content string, x, y float64, style TextStyle) error {
	s.setFont(style.Size, style.Bold)
	s.pdf.Text(x, y, s.tr(content))
	return s.pdf.Error()
}

func (s *PDFSurface) DrawImage(a Asset, x, y, w, h float64) error {
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	if !s.images[a.Name] {
		s.pdf.RegisterImageOptionsReader(a.Name, opts, bytes.NewReader(a.PNG))
		s.images[a.Name] = true
	}
	s.pdf.ImageOptions(a.Name, x, y, w, h, false, opts, 0, "")
	return s.pdf.Error()
}

func (s *PDFSurface) DrawTable(rows [][]Cell, l TableLayout) error {
	for i, row := range rows {
		for j, cell := range row {
			size := l.FontSize
			if cell.Small {
				size = l.SmallFontSize
			}
			s.setFont(size, false)
			s.pdf.SetXY(l.X+float64(j)*l.CellWidth, l.Y+float64(i)*l.CellHeight)
			s.pdf.CellFormat(l.CellWidth, l.CellHeight, s.tr(cell.Text), "1", 0, "CM", false, 0, "")
		}
	}
	return s.pdf.Error()
}

func (s *PDFSurface) EndPage() error { return s.pdf.Error() }

// PageBreak makes the next BeginPage start a fresh page.
func (s *PDFSurface) PageBreak() error {
	s.pending = true
	return nil
}

// PageCount returns the number of pages created so far.
func (s *PDFSurface) PageCount() int { return s.pdf.PageCount() }

// Export writes the finished PDF to w.
func (s *PDFSurface) Export(w io.Writer) error { return s.pdf.Output(w) }

func (s *PDFSurface) setFont(size float64, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	s.pdf.SetFont(pdfFont, style, size)
}
