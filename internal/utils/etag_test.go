package utils

import (
	"testing"
	"time"
)

func TestWeakETag(t *testing.T) {
	got := WeakETag("conversation", "conversation_a_b", "3", "1700000000")
	if want := `W/"conversation:conversation_a_b:3:1700000000"`; got != want {
		t.Fatalf("WeakETag = %s; want %s", got, want)
	}
	if got := WeakETag("x"); got != `W/"x"` {
		t.Fatalf("WeakETag without parts = %s", got)
	}
}

func TestUnixNanoOrZero(t *testing.T) {
	if UnixNanoOrZero(nil) != 0 {
		t.Fatal("nil should be 0")
	}
	a := time.Unix(1700000000, 5)
	b := time.Unix(1700000000, 6)
	if UnixNanoOrZero(&a) == UnixNanoOrZero(&b) {
		t.Fatal("sub-second changes must produce distinct values")
	}
}

func TestETagMatches(t *testing.T) {
	const etag = `W/"conversation:c:3:9"`
	cases := []struct {
		header string
		want   bool
	}{
		{"", false},
		{"*", true},
		{etag, true},
		{`"conversation:c:3:9"`, true},
		{`W/"other", ` + etag, true},
		{`W/"conversation:c:4:9"`, false},
	}
	for _, tc := range cases {
		if got := ETagMatches(tc.header, etag); got != tc.want {
			t.Fatalf("ETagMatches(%q) = %v; want %v", tc.header, got, tc.want)
		}
	}
	if ETagMatches("*", "") {
		t.Fatal("empty etag never matches")
	}
}
