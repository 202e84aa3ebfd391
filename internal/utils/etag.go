package utils

import (
	"strings"
	"time"
)

// WeakETag builds a weak validator of the form W/"kind:part:...".
func WeakETag(kind string, parts ...string) string {
	return `W/"` + strings.Join(append([]string{kind}, parts...), ":") + `"`
}

// UnixNanoOrZero returns t in Unix nanoseconds, or 0 for nil. Read receipts
// can land within the same second as the send they acknowledge, so seconds
// are too coarse for a validator.
func UnixNanoOrZero(t *time.Time) int64 {
	if t == nil {
		return 0
	}
	return t.UnixNano()
}

// ETagMatches reports whether an If-None-Match header value matches etag,
// honoring "*" and comma-separated lists. Comparison is weak, so a W/ prefix
// on either side is ignored.
func ETagMatches(ifNoneMatch, etag string) bool {
	ifNoneMatch = strings.TrimSpace(ifNoneMatch)
	if ifNoneMatch == "" || etag == "" {
		return false
	}
	if ifNoneMatch == "*" {
		return true
	}
	want := strings.TrimPrefix(etag, "W/")
	for _, cand := range strings.Split(ifNoneMatch, ",") {
		if strings.TrimPrefix(strings.TrimSpace(cand), "W/") == want {
			return true
		}
	}
	return false
}
