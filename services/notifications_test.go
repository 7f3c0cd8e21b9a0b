package services

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncate(t *testing.T) {
	cases := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"shorter than limit", "hello", 120, "hello"},
		{"exactly at limit", "abcd", 4, "abcd"},
		{"cut on ascii", "abcdef", 4, "abcd…"},
		{"cut inside a multibyte rune", "aé", 2, "a…"},
		{"cut between runes", "日本語", 6, "日本…"},
		{"cut inside a cjk rune", "日本語", 4, "日…"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := truncate(tc.in, tc.n)
			if got != tc.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tc.in, tc.n, got, tc.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncate(%q, %d) produced invalid UTF-8 %q", tc.in, tc.n, got)
			}
		})
	}
}

func TestTruncateNeverExceedsLimit(t *testing.T) {
	long := strings.Repeat("ü", 100)
	got := truncate(long, 121)
	if n := len(strings.TrimSuffix(got, "…")); n > 121 {
		t.Errorf("expected at most 121 bytes before the ellipsis, got %d", n)
	}
}
