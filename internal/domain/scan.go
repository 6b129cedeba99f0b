// Package domain defines the persistence models of the scan ledger. These
// types are mapped with GORM and shared by the repository, ledger, manifest
// and HTTP layers.
package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tbourn/go-guias-backend/internal/carrier"
)

// DayLayout is the wire format of a calendar date.
const DayLayout = "2006-01-02"

// ScanRecord is one accepted scan of a shipment tracking code.
//
// Fields:
//   - ID: assigned by the store on creation; immutable.
//   - Code: canonical (normalized) tracking code.
//   - Date: logical scan date, midnight UTC of the calendar day.
//   - Carrier: classified carrier; the only field that may change after creation.
//
// The table keeps the column names of the original registros table so both
// the REST payloads and existing databases stay compatible.
type ScanRecord struct {
	ID      uint       `json:"id"             gorm:"primaryKey;autoIncrement"`
	Code    string     `json:"codigo"         gorm:"column:codigo;type:varchar(64);not null;index:idx_registros_codigo"`
	Date    time.Time  `json:"fecha"          gorm:"column:fecha;type:date;not null;index:idx_registros_fecha"`
	Carrier carrier.ID `json:"transportadora" gorm:"column:transportadora;type:varchar(32);not null"`
}

// TableName returns the database table name for ScanRecord.
func (ScanRecord) TableName() string { return "registros" }

type scanWire struct {
	ID      uint       `json:"id"`
	Code    string     `json:"codigo"`
	Date    string     `json:"fecha"`
	Carrier carrier.ID `json:"transportadora"`
}

// MarshalJSON renders fecha as YYYY-MM-DD.
func (r ScanRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(scanWire{ID: r.ID, Code: r.Code, Date: FormatDay(r.Date), Carrier: r.Carrier})
}

// UnmarshalJSON accepts the wire shape produced by MarshalJSON.
func (r *ScanRecord) UnmarshalJSON(b []byte) error {
	var w scanWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	var d time.Time
	if w.Date != "" {
		var err error
		if d, err = ParseDay(w.Date); err != nil {
			return err
		}
	}
	*r = ScanRecord{ID: w.ID, Code: w.Code, Date: d, Carrier: w.Carrier}
	return nil
}

// Day returns midnight UTC of t's calendar day as observed in loc. A nil loc
// uses t's own location.
func Day(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD date.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DayLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDay formats t as YYYY-MM-DD; the zero time formats as "".
func FormatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DayLayout)
}
