package ledger

import (
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/tbourn/go-guias-backend/internal/carrier"
	"github.com/tbourn/go-guias-backend/internal/domain"
	"github.com/tbourn/go-guias-backend/internal/utils"
)

// Default and maximum page sizes for Select.
const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// Query selects a page of records. Zero values disable a criterion: a zero
// Date matches every date, an empty Carrier every carrier, an empty Search
// every code.
type Query struct {
	Date     time.Time
	Carrier  carrier.ID
	Search   string
	Page     int
	PageSize int
}

// Selection is one page of matching records plus pagination metadata.
type Selection struct {
	Items      []domain.ScanRecord
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// HasNext reports whether a page follows this one.
func (s Selection) HasNext() bool { return s.Page < s.TotalPages }

// Select filters records by q and returns the requested 1-based page. Input
// order is preserved. Out-of-range pages yield an empty Items slice.
func Select(records []domain.ScanRecord, q Query) Selection {
	page := q.Page
	if page < 1 {
		page = 1
	}
	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	size = utils.Clamp(size, 1, MaxPageSize)

	var day time.Time
	if !q.Date.IsZero() {
		day = domain.Day(q.Date, nil)
	}
	// Casers are stateful; one per call.
	folder := cases.Fold()
	needle := folder.String(strings.TrimSpace(q.Search))

	matched := make([]domain.ScanRecord, 0, len(records))
	for _, r := range records {
		if !day.IsZero() && !r.Date.Equal(day) {
			continue
		}
		if q.Carrier != "" && r.Carrier != q.Carrier {
			continue
		}
		if needle != "" && !strings.Contains(folder.String(r.Code), needle) {
			continue
		}
		matched = append(matched, r)
	}

	start, end, pages := utils.Window(len(matched), page, size)
	sel := Selection{
		Items:      []domain.ScanRecord{},
		Total:      len(matched),
		Page:       page,
		PageSize:   size,
		TotalPages: pages,
	}
	if start < end {
		sel.Items = matched[start:end]
	}
	return sel
}
