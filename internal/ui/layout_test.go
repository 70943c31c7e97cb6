package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func TestDetermineLayoutMode(t *testing.T) {
	if got := DetermineLayoutMode(140, 30); got != LayoutWide {
		t.Fatalf("expected wide, got %v", got)
	}
	if got := DetermineLayoutMode(80, 24); got != LayoutMedium {
		t.Fatalf("expected medium, got %v", got)
	}
	if got := DetermineLayoutMode(59, 30); got != LayoutTooSmall {
		t.Fatalf("expected too-small, got %v", got)
	}
	if got := DetermineLayoutMode(100, 15); got != LayoutTooSmall {
		t.Fatalf("expected too-small by height, got %v", got)
	}
}

func TestBoxWrapsInsteadOfClipping(t *testing.T) {
	lines := Box("Hint", []string{"Try using chmod to make the script executable first"}, 24, true)
	if lines[0] != "+ Hint ----------------+" {
		t.Fatalf("unexpected top border %q", lines[0])
	}
	if len(lines) < 5 {
		t.Fatalf("expected the long line to wrap, got %d lines", len(lines))
	}
	for _, line := range lines {
		if w := ansi.StringWidth(line); w != 24 {
			t.Fatalf("line %q has width %d", line, w)
		}
	}
	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "chmod") || !strings.Contains(joined, "executable") {
		t.Fatalf("wrapped text lost words:\n%s", joined)
	}
}

func TestWrapLinesHardBreaksLongWords(t *testing.T) {
	got := WrapLines([]string{strings.Repeat("x", 25), "", "ok"}, 10)
	want := []string{"xxxxxxxxxx", "xxxxxxxxxx", "xxxxx", "", "ok"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestLayoutIncludesProgressMessagesAndStatus(t *testing.T) {
	f := Frame{
		Title:     "Map",
		Body:      []string{"[x] 1. Locked Terminal"},
		Markdown:  "# Help\n/save",
		Messages:  []string{"Game saved successfully!"},
		Status:    "Player: ada",
		Completed: 2,
		Total:     4,
	}
	out := strings.Join(Layout(f, 40, true), "\n")
	for _, want := range []string{"+ Map ", "[x] 1. Locked Terminal", "# Help", "2/4 levels", "Game saved successfully!", "Player: ada"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in layout:\n%s", want, out)
		}
	}
}

func TestFrameRatioClamps(t *testing.T) {
	if r := (Frame{Completed: 7, Total: 5}).Ratio(); r != 1 {
		t.Fatalf("expected clamp to 1, got %v", r)
	}
	if r := (Frame{}).Ratio(); r != 0 {
		t.Fatalf("expected 0 without total, got %v", r)
	}
}

func TestPadRuneCountsCells(t *testing.T) {
	if got := padRune("ab\tc", 8); got != "ab    c " {
		t.Fatalf("unexpected pad %q", got)
	}
	if got := padRune("abcdef", 3); got != "abc" {
		t.Fatalf("unexpected truncate %q", got)
	}
}
