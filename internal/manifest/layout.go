// Package manifest lays out scan records as printable carrier manifests.
//
// Plan computes the page layout as plain data: records for one date, grouped
// by carrier in first-appearance order, cut into fixed 20x6 grids. A
// Generator then replays the plan against a Surface (PDF or XLSX).
package manifest

import (
	"time"
	"unicode/utf8"

	"github.com/tbourn/go-guias-backend/internal/carrier"
	"github.com/tbourn/go-guias-backend/internal/domain"
)

// Grid geometry.
const (
	RowsPerPage  = 20
	Columns      = 6
	PageCapacity = RowsPerPage * Columns

	// SmallFontThreshold is the code length (in runes) from which a cell is
	// drawn with the small font.
	SmallFontThreshold = 14
)

// Cell is one grid slot. Empty Text renders an empty cell.
type Cell struct {
	Text  string
	Small bool
}

// NewCell builds a cell for code, choosing the font size by length.
func NewCell(code string) Cell {
	return Cell{Text: code, Small: utf8.RuneCountInString(code) >= SmallFontThreshold}
}

// Page is one printed page of a carrier group.
type Page struct {
	Carrier      carrier.ID
	Date         time.Time
	Number       int // 1-based within the carrier group
	Count        int // pages in the carrier group
	Codes        []string
	CarrierTotal int  // records of this carrier on Date
	Last         bool // last page of the whole document
}

// Grid lays the page's codes out row-major: code i goes to row i/Columns,
// column i%Columns. Unfilled cells are empty.
func (p Page) Grid() [][]Cell {
	rows := make([][]Cell, RowsPerPage)
	for r := range rows {
		rows[r] = make([]Cell, Columns)
	}
	for i, code := range p.Codes {
		if i >= PageCapacity {
			break
		}
		rows[i/Columns][i%Columns] = NewCell(code)
	}
	return rows
}

// Plan returns the pages for date. Records of other dates are ignored; an
// empty result means there is nothing to print.
func Plan(records []domain.ScanRecord, date time.Time) []Page {
	day := domain.Day(date, nil)

	var order []carrier.ID
	groups := make(map[carrier.ID][]string)
	for _, r := range records {
		if !r.Date.Equal(day) {
			continue
		}
		if _, seen := groups[r.Carrier]; !seen {
			order = append(order, r.Carrier)
		}
		groups[r.Carrier] = append(groups[r.Carrier], r.Code)
	}

	var pages []Page
	for _, c := range order {
		codes := groups[c]
		count := (len(codes) + PageCapacity - 1) / PageCapacity
		for n := 0; n < count; n++ {
			start := n * PageCapacity
			end := start + PageCapacity
			if end > len(codes) {
				end = len(codes)
			}
			pages = append(pages, Page{
				Carrier:      c,
				Date:         day,
				Number:       n + 1,
				Count:        count,
				Codes:        codes[start:end],
				CarrierTotal: len(codes),
			})
		}
	}
	if len(pages) > 0 {
		pages[len(pages)-1].Last = true
	}
	return pages
}
