package manifest

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tbourn/go-guias-backend/internal/domain"
)

// Page geometry in millimetres, matching the printed form used at dispatch.
const (
	pageHeight   = 297.0
	headerY      = 10.0
	tableY       = 20.0
	tableX       = 15.0
	cellWidth    = 30.0
	cellHeight   = 10.0
	fontSize     = 10.0
	smallFontSz  = 8.0
	footerLine1Y = pageHeight - 50
	footerLine2Y = pageHeight - 30
	logoX        = 172.0
	logoY        = 2.0
	logoWidth    = 28.0
)

// Footer holds the hand-off fields printed on every page. Empty fields
// print the bare label, leaving room to fill them in by hand.
type Footer struct {
	Collector    string
	Plate        string
	PickupDate   string
	Observations string
}

// Generator replays a page plan onto a Surface.
type Generator struct {
	Footer Footer
	Logo   *Asset
}

// Render draws pages in order. A page break follows every page except the
// last one; an empty plan draws nothing.
func (g *Generator) Render(s Surface, pages []Page) error {
	for i, p := range pages {
		if err := g.renderPage(s, p); err != nil {
			return fmt.Errorf("manifest page %d: %w", i+1, err)
		}
		if i < len(pages)-1 {
			if err := s.PageBreak(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Write plans the manifest for date, renders it and exports it to w. It
// returns the number of pages rendered.
func (g *Generator) Write(s Surface, records []domain.ScanRecord, date time.Time, w io.Writer) (int, error) {
	pages := Plan(records, date)
	if err := g.Render(s, pages); err != nil {
		return 0, err
	}
	if err := s.Export(w); err != nil {
		return 0, err
	}
	return len(pages), nil
}

func (g *Generator) renderPage(s Surface, p Page) error {
	if err := s.BeginPage(); err != nil {
		return err
	}
	if g.Logo != nil && g.Logo.Width > 0 {
		h := logoWidth * float64(g.Logo.Height) / float64(g.Logo.Width)
		if err := s.DrawImage(*g.Logo, logoX, logoY, logoWidth, h); err != nil {
			return err
		}
	}

	header := TextStyle{Size: 12, Bold: true}
	if err := s.DrawText(fmt.Sprintf("PÁGINA %d/%d", p.Number, p.Count), 10, headerY, header); err != nil {
		return err
	}
	title := fmt.Sprintf("FECHA MANIFIESTO PARA %s - %s", p.Carrier, domain.FormatDay(p.Date))
	if err := s.DrawText(title, 45, headerY, header); err != nil {
		return err
	}

	layout := TableLayout{
		X: tableX, Y: tableY,
		CellWidth: cellWidth, CellHeight: cellHeight,
		FontSize: fontSize, SmallFontSize: smallFontSz,
	}
	if err := s.DrawTable(p.Grid(), layout); err != nil {
		return err
	}

	body := TextStyle{Size: fontSize}
	lines := []struct {
		text string
		x, y float64
	}{
		{caption("NOMBRE AUXILIAR DE RECOLECCIÓN", g.Footer.Collector), 10, footerLine1Y},
		{caption("PLACA", g.Footer.Plate), 100, footerLine1Y},
		{caption("FECHA RECOLECCIÓN", g.Footer.PickupDate), 140, footerLine1Y},
		{caption("OBSERVACIONES", g.Footer.Observations), 10, footerLine2Y},
		{fmt.Sprintf("TOTAL PIEZAS ENTREGADAS: %d / %d", len(p.Codes), p.CarrierTotal), 130, footerLine2Y},
	}
	for _, l := range lines {
		if err := s.DrawText(l.text, l.x, l.y, body); err != nil {
			return err
		}
	}
	return s.EndPage()
}

func caption(label, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return label
	}
	return label + ": " + value
}
