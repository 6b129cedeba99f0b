package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  int
		want int
	}{
		{"", 20, 20},
		{"3", 1, 3},
		{"-1", 1, -1},
		{"0050", 20, 50},
		{"x", 20, 20},
		{" 2", 1, 1}, // no trim
		{"999999999999999999999999", 20, 20},
	}
	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
		}
	}
}

func TestClamp(t *testing.T) {
	cases := []struct{ v, lo, hi, want int }{
		{0, 1, 200, 1},
		{50, 1, 200, 50},
		{100000, 1, 200, 200},
		{1, 1, 1, 1},
	}
	for _, tc := range cases {
		if got := Clamp(tc.v, tc.lo, tc.hi); got != tc.want {
			t.Errorf("Clamp(%d,%d,%d) = %d; want %d", tc.v, tc.lo, tc.hi, got, tc.want)
		}
	}
}

func TestWindow(t *testing.T) {
	cases := []struct {
		total, page, size     int
		start, end, pageCount int
	}{
		{45, 1, 20, 0, 20, 3},
		{45, 3, 20, 40, 45, 3},
		{45, 4, 20, 45, 45, 3},
		{40, 2, 20, 20, 40, 2},
		{0, 1, 20, 0, 0, 0},
		{5, 0, 2, 0, 2, 3}, // page < 1 reads as the first page
	}
	for _, tc := range cases {
		s, e, p := Window(tc.total, tc.page, tc.size)
		if s != tc.start || e != tc.end || p != tc.pageCount {
			t.Errorf("Window(%d,%d,%d) = (%d,%d,%d); want (%d,%d,%d)",
				tc.total, tc.page, tc.size, s, e, p, tc.start, tc.end, tc.pageCount)
		}
	}
}
