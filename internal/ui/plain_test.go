package ui

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"termescape/internal/term"
)

// echoController records lines and stops the view on "exit".
type echoController struct {
	view  *Plain
	lines []string
	quits int
}

func (c *echoController) OnSubmit(line string) {
	c.lines = append(c.lines, line)
	if line == "exit" {
		c.view.Stop()
		return
	}
	c.view.SetFrame(Frame{Title: "Echo", Messages: []string{"you typed " + line}, Prompt: "$ "})
}

func (c *echoController) OnQuit() {
	c.quits++
	c.view.Stop()
}

func TestPlainRunsUntilStopped(t *testing.T) {
	var out bytes.Buffer
	in := term.NewLinePrompt(strings.NewReader("ls\nexit\nnever\n"), &out)
	v := NewPlain(in, &out, PlainOptions{Width: 40, ASCIIOnly: true})
	ctrl := &echoController{view: v}
	v.SetController(ctrl)
	v.SetFrame(Frame{Title: "Main Menu", Body: []string{"1. New Game"}})

	if err := v.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.Join(ctrl.lines, ",") != "ls,exit" {
		t.Fatalf("unexpected lines %v", ctrl.lines)
	}
	if ctrl.quits != 0 {
		t.Fatalf("stop should not count as end of input")
	}
	text := out.String()
	for _, want := range []string{"+ Main Menu ", "1. New Game", "> ", "you typed ls", "$ "} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in output:\n%s", want, text)
		}
	}
}

func TestPlainEndOfInputQuits(t *testing.T) {
	var out bytes.Buffer
	in := term.NewLinePrompt(strings.NewReader(""), &out)
	v := NewPlain(in, &out, PlainOptions{})
	ctrl := &echoController{view: v}
	v.SetController(ctrl)

	if err := v.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if ctrl.quits != 1 {
		t.Fatalf("expected one quit, got %d", ctrl.quits)
	}
}

func TestPlainPrintsToastsAndFlashOnce(t *testing.T) {
	var out bytes.Buffer
	v := NewPlain(nil, &out, PlainOptions{Width: 40})
	v.SetFrame(Frame{Title: "Level 1", Status: "Player: ada"})
	v.Toast("Speed Demon", "Complete a level in under 60 seconds")
	v.FlashStatus("Game saved successfully!")

	v.draw()
	first := out.String()
	if !strings.Contains(first, "*** Speed Demon ***") || !strings.Contains(first, "Game saved successfully!") {
		t.Fatalf("missing toast or flash:\n%s", first)
	}
	out.Reset()
	v.SetFrame(Frame{Title: "Level 1", Status: "Player: ada"})
	v.draw()
	if strings.Contains(out.String(), "Speed Demon") {
		t.Fatalf("toast printed twice")
	}
}

func TestPlainHistoryFollowsPlayer(t *testing.T) {
	in := term.NewLinePrompt(strings.NewReader("enter tux\n"), &bytes.Buffer{})
	v := NewPlain(in, &bytes.Buffer{}, PlainOptions{})

	v.SetHistoryOwner("Ada")
	if _, err := in.ReadLine(context.Background(), ""); err != nil {
		t.Fatalf("read line: %v", err)
	}
	v.SetHistoryOwner("Grace")
	if got := in.History().Entries(); len(got) != 0 {
		t.Fatalf("expected an empty history for a new player, got %v", got)
	}
	v.SetHistoryOwner("Ada")
	if got := in.History().Entries(); len(got) != 1 || got[0] != "enter tux" {
		t.Fatalf("expected Ada's history back, got %v", got)
	}
}
