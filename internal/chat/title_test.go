package chat

import "testing"

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		limit   int
		want    string
	}{
		{"truncated", "Hello there, how are you today?", 10, "Hello ther..."},
		{"verbatim when short", "Hello", 10, "Hello"},
		{"verbatim at exact limit", "0123456789", 10, "0123456789"},
		{"multibyte runes counted as characters", "héllo wörld, ça va bien?", 10, "héllo wörl..."},
		{"zero limit falls back to default", "x", 0, "x"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := deriveTitle(tc.content, tc.limit)
			if got != tc.want {
				t.Fatalf("deriveTitle(%q, %d) = %q, want %q", tc.content, tc.limit, got, tc.want)
			}
		})
	}
}
