// Package carrier turns raw scanned tracking codes into canonical codes and
// infers the shipping company from the canonical code's prefix.
//
// Both operations are total: Normalize returns "" for input that cannot be a
// code, and Classify falls back to Unknown. Neither touches I/O.
package carrier

import (
	"fmt"
	"strings"
)

// ID identifies a carrier. Values are the upper-case names stored in the
// transportadora column.
type ID string

const (
	Envia           ID = "ENVIA"
	Servientrega    ID = "SERVIENTREGA"
	Interrapidisimo ID = "INTERRAPIDISIMO"
	Coordinadora    ID = "COORDINADORA"
	TCC             ID = "TCC"
	Domina          ID = "DOMINA"
	Minutos99       ID = "99MINUTOS"
	Unknown         ID = "UNKNOWN"
)

// all is the display order used for zero-filled counts.
var all = []ID{Envia, Servientrega, Interrapidisimo, Coordinadora, TCC, Domina, Minutos99, Unknown}

// All returns every enumerated carrier, Unknown last.
func All() []ID {
	out := make([]ID, len(all))
	copy(out, all)
	return out
}

// String implements fmt.Stringer.
func (id ID) String() string { return string(id) }

// Valid reports whether id is one of the enumerated carriers.
func (id ID) Valid() bool {
	for _, c := range all {
		if c == id {
			return true
		}
	}
	return false
}

// Parse converts a carrier name (case-insensitive, surrounding spaces ignored)
// into an ID.
func Parse(s string) (ID, error) {
	id := ID(strings.ToUpper(strings.TrimSpace(s)))
	if !id.Valid() {
		return "", fmt.Errorf("unknown carrier %q", s)
	}
	return id, nil
}
