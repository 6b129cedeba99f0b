// Package intake turns uploaded scan exports into individual raw codes for
// batch admission.
package intake

import (
	"bufio"
	"io"
	"strings"
)

// MaxLineBytes bounds a single input line.
const MaxLineBytes = 1024 * 1024

// ParseLines reads r and returns the raw codes it contains, in order.
//
// Accepted shapes, freely mixed:
//   - one code per line (CRLF tolerated)
//   - pipe table rows "| a | b |"; separator rows ("|---|:--:|") are skipped
//   - comma or semicolon separated lines as exported by handheld scanners
//
// Blank lines and empty cells are skipped. Codes are trimmed but otherwise
// left untouched; normalization happens at admission.
func ParseLines(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)

	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		// table row: "| ... |"
		if strings.HasPrefix(line, "|") && strings.HasSuffix(line, "|") {
			cols := strings.Split(strings.Trim(line, "|"), "|")
			if separatorRow(cols) {
				continue
			}
			for _, c := range cols {
				add(c)
			}
			continue
		}

		if strings.ContainsAny(line, ",;") {
			for _, f := range strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == ';' }) {
				add(strings.Trim(strings.TrimSpace(f), `"`))
			}
			continue
		}
		add(line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func separatorRow(cols []string) bool {
	for _, c := range cols {
		tmp := strings.ReplaceAll(c, ":", "")
		tmp = strings.ReplaceAll(tmp, "-", "")
		if strings.TrimSpace(tmp) != "" {
			return false
		}
	}
	return true
}
