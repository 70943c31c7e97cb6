package ui

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/google/go-cmp/cmp"
)

type mockController struct {
	submitted chan string
	quits     chan struct{}
}

func newMockController() *mockController {
	return &mockController{submitted: make(chan string, 8), quits: make(chan struct{}, 8)}
}

func (m *mockController) OnSubmit(line string) { m.submitted <- line }
func (m *mockController) OnQuit()              { m.quits <- struct{}{} }

func (m *mockController) nextSubmit(t *testing.T) string {
	t.Helper()
	select {
	case line := <-m.submitted:
		return line
	case <-time.After(time.Second):
		t.Fatalf("controller was not called")
		return ""
	}
}

func (m *mockController) expectNoSubmit(t *testing.T) {
	t.Helper()
	select {
	case line := <-m.submitted:
		t.Fatalf("unexpected submit %q", line)
	case <-time.After(50 * time.Millisecond):
	}
}

func press(v *Root, code rune, mod tea.KeyMod, text string) {
	_, _ = v.Update(tea.KeyPressMsg{Code: code, Mod: mod, Text: text})
}

func TestEnterSubmitsLineAndRecordsHistory(t *testing.T) {
	v := New(Options{ReducedMotion: true})
	ctrl := newMockController()
	v.SetController(ctrl)

	v.input.SetValue("look around")
	press(v, tea.KeyEnter, 0, "")

	if got := ctrl.nextSubmit(t); got != "look around" {
		t.Fatalf("unexpected submit %q", got)
	}
	if v.input.Value() != "" {
		t.Fatalf("expected input to be cleared, got %q", v.input.Value())
	}
	if got := v.history.Entries(); len(got) != 1 || got[0] != "look around" {
		t.Fatalf("history not recorded: %v", got)
	}
}

func TestSubmissionsReachControllerInOrder(t *testing.T) {
	v := New(Options{ReducedMotion: true})
	ctrl := &orderController{}
	v.SetController(ctrl)

	var want []string
	for i := 0; i < 50; i++ {
		line := fmt.Sprintf("cmd %d", i)
		want = append(want, line)
		v.input.SetValue(line)
		press(v, tea.KeyEnter, 0, "")
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(ctrl.seen()) < len(want) && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if diff := cmp.Diff(want, ctrl.seen()); diff != "" {
		t.Fatalf("submissions out of order (-want +got):\n%s", diff)
	}
}

// orderController records submissions and yields between them so any
// concurrent delivery would interleave.
type orderController struct {
	mu    sync.Mutex
	lines []string
}

func (c *orderController) OnSubmit(line string) {
	runtime.Gosched()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, line)
}

func (c *orderController) OnQuit() {}

func (c *orderController) seen() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

func TestHistoryOwnerSwitchesRecall(t *testing.T) {
	v := New(Options{ReducedMotion: true})
	v.SetController(newMockController())

	v.SetHistoryOwner("Ada")
	v.input.SetValue("enter tux")
	press(v, tea.KeyEnter, 0, "")

	v.SetHistoryOwner("Grace")
	press(v, tea.KeyUp, 0, "")
	if got := v.input.Value(); got != "" {
		t.Fatalf("another player's command was recalled: %q", got)
	}

	v.SetHistoryOwner("Ada")
	press(v, tea.KeyUp, 0, "")
	if got := v.input.Value(); got != "enter tux" {
		t.Fatalf("expected own command back, got %q", got)
	}
}

func TestUpDownWalkHistory(t *testing.T) {
	v := New(Options{ReducedMotion: true})
	v.history.Add("ls")
	v.history.Add("cd Documents")

	v.input.SetValue("ca")
	press(v, tea.KeyUp, 0, "")
	if v.input.Value() != "cd Documents" {
		t.Fatalf("expected newest entry, got %q", v.input.Value())
	}
	press(v, tea.KeyUp, 0, "")
	if v.input.Value() != "ls" {
		t.Fatalf("expected older entry, got %q", v.input.Value())
	}
	press(v, tea.KeyDown, 0, "")
	press(v, tea.KeyDown, 0, "")
	if v.input.Value() != "ca" {
		t.Fatalf("expected draft restored, got %q", v.input.Value())
	}
}

func TestShortcutsOnlyWhilePlaying(t *testing.T) {
	v := New(Options{ReducedMotion: true})
	ctrl := newMockController()
	v.SetController(ctrl)

	v.SetFrame(Frame{Title: "Main Menu"})
	press(v, tea.KeyF2, 0, "")
	ctrl.expectNoSubmit(t)

	v.SetFrame(Frame{Title: "Level 1", Playing: true})
	press(v, tea.KeyF2, 0, "")
	if got := ctrl.nextSubmit(t); got != "/hint" {
		t.Fatalf("expected /hint, got %q", got)
	}
	press(v, tea.KeyEsc, 0, "")
	if got := ctrl.nextSubmit(t); got != "/menu" {
		t.Fatalf("expected /menu, got %q", got)
	}
}

func TestCtrlQQuits(t *testing.T) {
	v := New(Options{ReducedMotion: true})
	ctrl := newMockController()
	v.SetController(ctrl)

	press(v, 'q', tea.ModCtrl, "")
	select {
	case <-ctrl.quits:
	case <-time.After(time.Second):
		t.Fatalf("expected quit")
	}
}

func TestRenderShowsFrame(t *testing.T) {
	v := New(Options{ASCIIOnly: true, ReducedMotion: true})
	_, _ = v.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	v.SetFrame(Frame{
		Title:     "Level 2: File Explorer",
		Body:      []string{"Current directory: /home/user"},
		Messages:  []string{"Documents  Downloads"},
		Prompt:    "user@escape:~$ ",
		Status:    "Player: ada",
		Playing:   true,
		Completed: 1,
		Total:     5,
	})
	v.FlashStatus("Game saved successfully!")

	out := ansi.Strip(v.renderScreen())
	for _, want := range []string{"Level 2: File Explorer", "Current directory: /home/user", "Documents  Downloads", "Escape 1/5", "Game saved successfully!", "+-"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in render:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Player: ada") {
		t.Fatalf("flash should replace the frame status")
	}
}

func TestTooSmallScreen(t *testing.T) {
	v := New(Options{ReducedMotion: true})
	_, _ = v.Update(tea.WindowSizeMsg{Width: 40, Height: 10})
	if v.layout != LayoutTooSmall {
		t.Fatalf("expected too-small layout, got %v", v.layout)
	}
	if out := ansi.Strip(v.renderTooSmall()); !strings.Contains(out, "too small") {
		t.Fatalf("unexpected render %q", out)
	}
}

func TestToastsShowOneAtATime(t *testing.T) {
	v := New(Options{ASCIIOnly: true, ReducedMotion: true})
	v.Toast("First Steps", "Complete your first level")
	v.Toast("Explorer", "Visit every directory")

	_, _ = v.Update(applyMsg{})
	if v.toast == nil || v.toast.title != "First Steps" {
		t.Fatalf("expected first toast on screen, got %+v", v.toast)
	}
	_, _ = v.Update(animateMsg(time.Now()))
	if v.toastPos != 1 {
		t.Fatalf("expected toast fully shown, got %v", v.toastPos)
	}
	if out := v.composeToast(v.renderScreen()); !strings.Contains(out, "First Steps") {
		t.Fatalf("toast missing from render:\n%s", out)
	}

	_, _ = v.Update(toastExpireMsg{id: v.toast.id + 100})
	if !v.toastShow {
		t.Fatalf("stale expiry should be ignored")
	}
	_, _ = v.Update(toastExpireMsg{id: v.toast.id})
	_, _ = v.Update(animateMsg(time.Now()))
	if v.toast == nil || v.toast.title != "Explorer" {
		t.Fatalf("expected second toast next, got %+v", v.toast)
	}
}

func TestViewImplementsInterfaceCompileTime(t *testing.T) {
	var _ View = New(Options{})
}

func TestOverlayKeepsCellColumnsWithWideGlyphs(t *testing.T) {
	base := strings.Join([]string{
		"你好世界你好世界",
		"abcdefghijklmnop",
		"🏆 done  🏆 done ",
	}, "\n")
	out := composeOverlayAt(base, "XY\nXY\nXY", 16, 3, 0, 3)
	rows := strings.Split(out, "\n")
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	for i, row := range rows {
		if w := ansi.StringWidth(row); w != 16 {
			t.Fatalf("row %d is %d cells wide: %q", i, w, row)
		}
		if got := ansi.Cut(row, 3, 5); got != "XY" {
			t.Fatalf("row %d: overlay at cells 3-4 is %q in %q", i, got, row)
		}
	}
	if rows[0] != "你 XY 界你好世界" {
		t.Fatalf("split glyphs should become spaces, got %q", rows[0])
	}
	if rows[1] != "abcXYfghijklmnop" {
		t.Fatalf("unexpected ascii splice %q", rows[1])
	}
}

func TestOverlayClipsAtRightEdge(t *testing.T) {
	out := composeOverlayAt("界界界界", "abcdef", 8, 1, 0, 5)
	if out != "界界 abc" {
		t.Fatalf("unexpected clipped overlay %q", out)
	}
}
