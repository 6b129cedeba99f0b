// Package utils holds the small paging helpers shared by the ledger's
// in-memory selection and the HTTP query parsing.
package utils

import "strconv"

// AtoiDefault parses s as a decimal int, returning def when s is empty or
// not a valid int. Surrounding spaces are not trimmed.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Window returns the [start, end) bounds of the 1-based page of size items
// over total items, and the number of pages. A page past the end yields
// start == end == total. size must be positive.
//
//	start, end, pages := utils.Window(45, 3, 20) // 40, 45, 3
func Window(total, page, size int) (start, end, pages int) {
	pages = (total + size - 1) / size
	if page < 1 {
		page = 1
	}
	start = (page - 1) * size
	if start >= total {
		return total, total, pages
	}
	end = start + size
	if end > total {
		end = total
	}
	return start, end, pages
}
