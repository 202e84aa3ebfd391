// Package utils provides small, generic helpers shared by the HTTP layer:
// query parsing, page arithmetic, and cache validators. Nothing here knows
// about messages or users.
package utils

import "strconv"

// AtoiDefault converts s with strconv.Atoi, returning def when s is empty or
// not a valid integer.
//
//	n := utils.AtoiDefault("42", 0) // 42
//	n = utils.AtoiDefault("", 10)   // 10
//	n = utils.AtoiDefault("x", 5)   // 5
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// PageParams parses 1-based page and limit query values. A missing, invalid,
// or non-positive page becomes 1; a missing, invalid, or non-positive limit
// becomes defLimit; limit is capped at maxLimit when maxLimit > 0.
func PageParams(pageStr, limitStr string, defLimit, maxLimit int) (page, limit int) {
	page = AtoiDefault(pageStr, 1)
	if page < 1 {
		page = 1
	}
	limit = AtoiDefault(limitStr, defLimit)
	if limit < 1 {
		limit = defLimit
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

// TotalPages returns ceil(total/limit), or 0 for an empty set or limit < 1.
func TotalPages(total int64, limit int) int {
	if total <= 0 || limit < 1 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
