package domain_test

import (
	"strings"
	"testing"

	"iromo/internal/modules/topic/domain"
)

func TestDeriveTitle(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 80)
	cases := []struct {
		name string
		body string
		want string
	}{
		{"empty body", "", "Untitled Topic"},
		{"whitespace only", "  \n\t\n", "Untitled Topic"},
		{"single line", "A short note", "A short note"},
		{"first non-blank line", "\n\n  \nSecond line wins\nrest", "Second line wins"},
		{"long line truncated", long, long[:70] + "..."},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := domain.DeriveTitle(tc.body); got != tc.want {
				t.Fatalf("DeriveTitle(%q) = %q, want %q", tc.body, got, tc.want)
			}
		})
	}
}

func TestDeriveTitleCountsRunes(t *testing.T) {
	t.Parallel()
	body := strings.Repeat("ü", 75)
	got := domain.DeriveTitle(body)
	if got != strings.Repeat("ü", 70)+"..." {
		t.Fatalf("expected 70 runes plus ellipsis, got %q", got)
	}
}
