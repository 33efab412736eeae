package telegram

import (
	"strings"
	"testing"
)

func TestSplitText(t *testing.T) {
	t.Parallel()
	if got := splitText("short", 10); len(got) != 1 || got[0] != "short" {
		t.Fatalf("short text split: %q", got)
	}

	lines := strings.Repeat("abcdefgh\n", 5) // 45 runes
	got := splitText(lines, 20)
	for _, c := range got {
		if len([]rune(c)) > 20 {
			t.Fatalf("chunk too long: %q", c)
		}
		if strings.HasPrefix(c, "\n") || strings.HasSuffix(c, "\n") {
			t.Fatalf("chunk not trimmed: %q", c)
		}
	}
	if joined := strings.Join(got, "\n"); joined != strings.TrimRight(lines, "\n") {
		t.Fatalf("chunks lost data: %q", joined)
	}

	flat := strings.Repeat("x", 25)
	if got := splitText(flat, 10); len(got) != 3 || got[2] != "xxxxx" {
		t.Fatalf("hard split: %q", got)
	}
}
