package intake

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseLines(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"blank lines only", "\n   \n\t\n", nil},
		{"one per line", "024000001\n  219123  \n\n363999\n", []string{"024000001", "219123", "363999"}},
		{"crlf", "024000001\r\n219123\r\n", []string{"024000001", "219123"}},
		{
			"pipe table",
			"| codigo | otro |\n|---|:---:|\n| 0240 | 609 |\n|  | 859 |\n",
			[]string{"codigo", "otro", "0240", "609", "859"},
		},
		{"csv", `"0240001",219002, 363003`, []string{"0240001", "219002", "363003"}},
		{"semicolons and trailing separator", "0240001;219002;\n609", []string{"0240001", "219002", "609"}},
		{"mixed", "0240001\n| 219 |\n609,859", []string{"0240001", "219", "609", "859"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseLines(strings.NewReader(tc.in))
			if err != nil {
				t.Fatalf("ParseLines error: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }

func TestParseLines_ReadError(t *testing.T) {
	if _, err := ParseLines(errReader{}); err == nil {
		t.Fatalf("expected read error")
	}
}

func TestParseLines_LineTooLong(t *testing.T) {
	long := strings.Repeat("9", MaxLineBytes+1)
	if _, err := ParseLines(strings.NewReader(long)); err == nil {
		t.Fatalf("expected error for oversized line")
	}
}
