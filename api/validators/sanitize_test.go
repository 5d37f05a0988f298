package validators

import (
	"net/http/httptest"
	"testing"
	"unicode/utf8"
)

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"trims", "  Kometa  ", 0, "Kometa"},
		{"drops control characters", "Fin\u0000al\tgame\n", 0, "Finalgame"},
		{"caps by runes", "Žďár nad Sázavou", 4, "Žďár"},
		{"trims after cut", "Brno Kometa", 5, "Brno"},
		{"shorter than cap", "a4", 16, "a4"},
	}
	for _, tt := range tests {
		got := SanitizeString(tt.input, tt.maxLen)
		if got != tt.want {
			t.Fatalf("%s: got %q want %q", tt.name, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Fatalf("%s: invalid utf8 %q", tt.name, got)
		}
	}
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest("GET", "/photos?limit=25&bad=x&big=900", nil)

	if v, err := ParseQueryInt(req, "limit", 10, 1, 100); err != nil || v != 25 {
		t.Fatalf("expected 25, got %d %v", v, err)
	}
	if v, err := ParseQueryInt(req, "missing", 10, 1, 100); err != nil || v != 10 {
		t.Fatalf("expected default 10, got %d %v", v, err)
	}
	if _, err := ParseQueryInt(req, "bad", 10, 1, 100); err == nil {
		t.Fatalf("expected error for non-numeric value")
	}
	if _, err := ParseQueryInt(req, "big", 10, 1, 100); err == nil {
		t.Fatalf("expected error for out of range value")
	}
}
