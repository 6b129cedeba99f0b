package manifest

import "io"

// TextStyle controls DrawText.
type TextStyle struct {
	Size float64 // points
	Bold bool
}

// TableLayout positions a grid. Coordinates and sizes are millimetres on an
// A4 portrait page.
type TableLayout struct {
	X, Y          float64
	CellWidth     float64
	CellHeight    float64
	FontSize      float64
	SmallFontSize float64
}

// Asset is an image embedded in the document, already encoded as PNG.
type Asset struct {
	Name   string
	PNG    []byte
	Width  int // pixels
	Height int // pixels
}

// Surface is the drawing target of a Generator. Calls for one page are
// bracketed by BeginPage and EndPage; PageBreak separates consecutive pages.
type Surface interface {
	BeginPage() error
	DrawText(content string, x, y float64, style TextStyle) error
	DrawImage(asset Asset, x, y, w, h float64) error
	DrawTable(rows [][]Cell, layout TableLayout) error
	EndPage() error
	PageBreak() error
	Export(w io.Writer) error
}
