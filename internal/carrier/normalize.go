package carrier

import (
	"strings"
	"unicode/utf8"
)

// Wrapper emitted by some handheld scanners around the real code.
const (
	wrapPrefix = "7363"
	wrapSuffix = "001"
)

// Normalize strips the scanner wrapper from raw and returns the canonical code.
//
// When raw starts with "7363" and ends with "001", the first character and the
// last three characters are dropped. Any other string is returned unchanged.
// Empty input, invalid UTF-8, and wrapped input that would strip down to
// nothing all yield "", which callers must treat as an invalid code.
func Normalize(raw string) string {
	if raw == "" || !utf8.ValidString(raw) {
		return ""
	}
	if !strings.HasPrefix(raw, wrapPrefix) || !strings.HasSuffix(raw, wrapSuffix) {
		return raw
	}
	// "7363001" is the shortest wrapped form; anything that strips to nothing is invalid.
	if len(raw)-1-len(wrapSuffix) <= 0 {
		return ""
	}
	return raw[1 : len(raw)-len(wrapSuffix)]
}
