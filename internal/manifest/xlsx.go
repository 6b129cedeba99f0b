package manifest

import (
	"io"

	"github.com/xuri/excelize/v2"
)

// XLSXSheet is the worksheet the manifest is written to.
const XLSXSheet = "Manifiesto"

// rows of spreadsheet space per printed page (297 mm at 10 mm per row).
const xlsxRowsPerPage = 30

// XLSXSurface writes manifest pages as stacked blocks of rows in a single
// worksheet, separated by print page breaks. Millimetre positions map onto
// 10 mm rows and 30 mm columns.
type XLSXSurface struct {
	f       *excelize.File
	pageTop int // first row of the current page
	pages   int
	pending bool

	normal, small, bold int // style ids
}

// NewXLSXSurface returns a workbook with an empty manifest sheet.
func NewXLSXSurface() (*XLSXSurface, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", XLSXSheet); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(XLSXSheet, "A", "F", 18); err != nil {
		return nil, err
	}
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center"}
	s := &XLSXSurface{f: f, pageTop: 1, pending: true}

	var err error
	if s.normal, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Size: fontSize}, Border: border, Alignment: center}); err != nil {
		return nil, err
	}
	if s.small, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Size: smallFontSz}, Border: border, Alignment: center}); err != nil {
		return nil, err
	}
	if s.bold, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}}); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *XLSXSurface) BeginPage() error {
	if !s.pending {
		return nil
	}
	s.pending = false
	if s.pages > 0 {
		s.pageTop += xlsxRowsPerPage
		cell, err := excelize.CoordinatesToCellName(1, s.pageTop)
		if err != nil {
			return err
		}
		if err := s.f.InsertPageBreak(XLSXSheet, cell); err != nil {
			return err
		}
	}
	s.pages++
	return nil
}

func (s *XLSXSurface) DrawText(content string, x, y float64, style TextStyle) error {
	cell, err := s.cellAt(x, y)
	if err != nil {
		return err
	}
	if err := s.f.SetCellValue(XLSXSheet, cell, content); err != nil {
		return err
	}
	if style.Bold {
		return s.f.SetCellStyle(XLSXSheet, cell, cell, s.bold)
	}
	return nil
}

func (s *XLSXSurface) DrawImage(a Asset, x, y, w, h float64) error {
	cell, err := s.cellAt(x, y)
	if err != nil {
		return err
	}
	return s.f.AddPictureFromBytes(XLSXSheet, cell, &excelize.Picture{
		Extension: ".png",
		File:      a.PNG,
		Format:    &excelize.GraphicOptions{AutoFit: true, AltText: a.Name},
	})
}

func (s *XLSXSurface) DrawTable(rows [][]Cell, l TableLayout) error {
	top := s.pageTop + int(l.Y/l.CellHeight)
	for i, row := range rows {
		for j, c := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, top+i)
			if err != nil {
				return err
			}
			if c.Text != "" {
				if err := s.f.SetCellValue(XLSXSheet, cell, c.Text); err != nil {
					return err
				}
			}
			style := s.normal
			if c.Small {
				style = s.small
			}
			if err := s.f.SetCellStyle(XLSXSheet, cell, cell, style); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *XLSXSurface) EndPage() error { return nil }

func (s *XLSXSurface) PageBreak() error {
	s.pending = true
	return nil
}

// PageCount returns the number of pages begun so far.
func (s *XLSXSurface) PageCount() int { return s.pages }

// File exposes the underlying workbook (tests read cells back from it).
func (s *XLSXSurface) File() *excelize.File { return s.f }

// Export writes the workbook to w.
func (s *XLSXSurface) Export(w io.Writer) error {
	_, err := s.f.WriteTo(w)
	return err
}

// Close releases the workbook's temporary resources.
func (s *XLSXSurface) Close() error { return s.f.Close() }

func (s *XLSXSurface) cellAt(x, y float64) (string, error) {
	col := 1 + int(x/cellWidth)
	if col > Columns {
		col = Columns
	}
	return excelize.CoordinatesToCellName(col, s.pageTop+int(y/cellHeight))
}
