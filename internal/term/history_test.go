package term

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestHistorySkipsBlankAndRepeats(t *testing.T) {
	h := NewHistory(0)
	for _, line := range []string{"ls", "ls", "  ", "cd Documents", "ls"} {
		h.Add(line)
	}
	got := strings.Join(h.Entries(), ",")
	if got != "ls,cd Documents,ls" {
		t.Fatalf("unexpected entries %q", got)
	}
}

func TestHistoryIsBounded(t *testing.T) {
	h := NewHistory(3)
	for _, line := range []string{"a", "b", "c", "d"} {
		h.Add(line)
	}
	if got := strings.Join(h.Entries(), ""); got != "dcb" {
		t.Fatalf("expected newest three, got %q", got)
	}
}

func TestHistoryBrowsing(t *testing.T) {
	h := NewHistory(10)
	h.Add("first")
	h.Add("second")

	steps := []struct {
		name string
		got  string
		want string
	}{
		{"prev newest", h.Prev("draft"), "second"},
		{"prev older", h.Prev("ignored"), "first"},
		{"prev clamps", h.Prev("ignored"), "first"},
		{"next newer", h.Next(), "second"},
		{"next restores draft", h.Next(), "draft"},
		{"next stays on draft", h.Next(), "draft"},
	}
	for _, s := range steps {
		if s.got != s.want {
			t.Fatalf("%s: got %q want %q", s.name, s.got, s.want)
		}
	}
}

func TestHistoryPrevOnEmpty(t *testing.T) {
	h := NewHistory(10)
	if got := h.Prev("typing"); got != "typing" {
		t.Fatalf("expected current input back, got %q", got)
	}
}

func TestLinePromptReadsUntilEOF(t *testing.T) {
	var out bytes.Buffer
	p := NewLinePrompt(strings.NewReader("look around\r\nenter tux\n"), &out)
	ctx := context.Background()

	for _, want := range []string{"look around", "enter tux"} {
		got, err := p.ReadLine(ctx, "> ")
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if got != want {
			t.Fatalf("got %q want %q", got, want)
		}
	}
	for i := 0; i < 2; i++ {
		if _, err := p.ReadLine(ctx, "> "); !errors.Is(err, io.EOF) {
			t.Fatalf("expected EOF, got %v", err)
		}
	}
	if out.String() != "> > > > " {
		t.Fatalf("unexpected prompt output %q", out.String())
	}
	if got := p.History().Entries(); len(got) != 2 || got[0] != "enter tux" {
		t.Fatalf("history not recorded: %v", got)
	}
}

func TestLinePromptHonorsContext(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	p := NewLinePrompt(pr, io.Discard)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.ReadLine(ctx, ""); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

func TestHistoryIsKeptPerOwner(t *testing.T) {
	h := NewHistory(0)
	h.Switch("Ada")
	h.Add("enter tux")
	h.Switch("Grace")
	if got := h.Entries(); len(got) != 0 {
		t.Fatalf("new owner should start empty, got %v", got)
	}
	if got := h.Prev(""); got != "" {
		t.Fatalf("expected no recall of another owner's command, got %q", got)
	}
	h.Add("ls")

	h.Switch("ADA")
	if got := strings.Join(h.Entries(), ","); got != "enter tux" {
		t.Fatalf("unexpected entries for Ada %q", got)
	}
	h.Switch("grace")
	if got := strings.Join(h.Entries(), ","); got != "ls" {
		t.Fatalf("unexpected entries for Grace %q", got)
	}
	if h.Owner() != "grace" {
		t.Fatalf("unexpected owner %q", h.Owner())
	}
}
