package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

const (
	minCols  = 60
	minRows  = 16
	wideCols = 100
	wideRows = 30
	// plainWidth is used when the output width is unknown.
	plainWidth = 78
)

func DetermineLayoutMode(cols, rows int) LayoutMode {
	if cols < minCols || rows < minRows {
		return LayoutTooSmall
	}
	if cols >= wideCols && rows >= wideRows {
		return LayoutWide
	}
	return LayoutMedium
}

type borderSet struct {
	h, v, tl, tr, bl, br string
}

func borders(ascii bool) borderSet {
	if ascii {
		return borderSet{h: "-", v: "|", tl: "+", tr: "+", bl: "+", br: "+"}
	}
	return borderSet{h: "─", v: "│", tl: "┌", tr: "┐", bl: "└", br: "┘"}
}

// topBorder draws the top edge of a panel with title inset after the corner.
func topBorder(b borderSet, title string, innerW int) string {
	top := b.tl + strings.Repeat(b.h, innerW) + b.tr
	if title == "" || innerW <= 2 {
		return top
	}
	runes := []rune(top)
	for i, ch := range []rune(" " + title + " ") {
		pos := 1 + i
		if pos >= len(runes)-1 {
			break
		}
		runes[pos] = ch
	}
	return string(runes)
}

// Box frames lines in a border of the given outer width. Long lines are
// wrapped first, so the box grows downward instead of clipping.
func Box(title string, lines []string, width int, ascii bool) []string {
	width = max(4, width)
	innerW := width - 2
	b := borders(ascii)
	out := []string{topBorder(b, title, innerW)}
	for _, line := range WrapLines(lines, innerW) {
		out = append(out, b.v+padRune(line, innerW)+b.v)
	}
	return append(out, b.bl+strings.Repeat(b.h, innerW)+b.br)
}

// WrapLines word-wraps each line to width display cells, hard-breaking
// words that are longer than a whole line.
func WrapLines(lines []string, width int) []string {
	if width <= 0 {
		return nil
	}
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.ReplaceAll(line, "\t", "    ")
		if line == "" {
			out = append(out, "")
			continue
		}
		wrapped := ansi.Hardwrap(ansi.Wordwrap(line, width, ""), width, true)
		out = append(out, strings.Split(wrapped, "\n")...)
	}
	return out
}

// Layout turns f into plain text lines for a line-oriented view.
func Layout(f Frame, width int, ascii bool) []string {
	if width <= 0 {
		width = plainWidth
	}
	body := append([]string(nil), f.Body...)
	if md := strings.TrimSpace(f.Markdown); md != "" {
		if len(body) > 0 {
			body = append(body, "")
		}
		body = append(body, strings.Split(md, "\n")...)
	}
	out := Box(f.Title, body, width, ascii)
	if f.Total > 0 {
		out = append(out, progressLine(f, width))
	}
	if len(f.Messages) > 0 {
		out = append(out, "")
		out = append(out, WrapLines(f.Messages, width)...)
	}
	if f.Status != "" {
		out = append(out, "", trimForWidth(f.Status, width))
	}
	return out
}

// progressLine is the text rendition of the escape progress bar.
func progressLine(f Frame, width int) string {
	label := fmt.Sprintf(" %d/%d levels", f.Completed, f.Total)
	barW := max(4, min(30, width-len(label)-2))
	filled := int(f.Ratio()*float64(barW) + 0.5)
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", barW-filled) + "]" + label
}

// padRune pads or truncates s to exactly width display cells.
func padRune(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = strings.ReplaceAll(s, "\t", "    ")
	if ansi.StringWidth(s) > width {
		s = ansi.Truncate(s, width, "")
	}
	if w := ansi.StringWidth(s); w < width {
		s += strings.Repeat(" ", width-w)
	}
	return s
}

func trimForWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(strings.ReplaceAll(ansi.Strip(s), "\n", " "))
	if len(r) <= width {
		return string(r)
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}
