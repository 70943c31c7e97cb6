package ui

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"termescape/internal/term"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/progress"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/harmonica"
	clog "github.com/charmbracelet/log"
	"github.com/charmbracelet/x/ansi"
)

const (
	toastWidth    = 40
	toastDuration = 3 * time.Second
)

type applyMsg struct {
	fn func(*Root)
}

type animateMsg time.Time

type toastExpireMsg struct{ id int }

type toast struct {
	id    int
	title string
	body  string
}

type gameKeyMap struct {
	Submit  key.Binding
	History key.Binding
	Help    key.Binding
	Hint    key.Binding
	Map     key.Binding
	Save    key.Binding
	Menu    key.Binding
	Quit    key.Binding
}

func (k gameKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.History, k.Help, k.Hint, k.Map, k.Save, k.Menu, k.Quit}
}

func (k gameKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Submit, k.History, k.Quit}, {k.Help, k.Hint, k.Map, k.Save, k.Menu}}
}

// setPlaying toggles the shortcuts that only make sense inside a level.
func (k *gameKeyMap) setPlaying(playing bool) {
	for _, b := range []*key.Binding{&k.Help, &k.Hint, &k.Map, &k.Save, &k.Menu} {
		b.SetEnabled(playing)
	}
}

// shortcuts maps in-game keys to the slash command they stand for.
func (k gameKeyMap) shortcuts() []struct {
	binding key.Binding
	line    string
} {
	return []struct {
		binding key.Binding
		line    string
	}{
		{k.Help, "/help"},
		{k.Hint, "/hint"},
		{k.Map, "/map"},
		{k.Save, "/save"},
		{k.Menu, "/menu"},
	}
}

// Root is the full-screen bubbletea view.
type Root struct {
	theme Theme
	ascii bool
	ctrl  Controller

	mu      sync.Mutex
	program *tea.Program
	running bool

	// calls holds controller callbacks not yet delivered, in key order.
	callMu   sync.Mutex
	calls    []func()
	draining bool

	layout LayoutMode
	cols   int
	rows   int

	frame       Frame
	statusFlash string

	input    textinput.Model
	history  *term.History
	help     help.Model
	keymap   gameKeyMap
	escape   progress.Model
	markdown *glamour.TermRenderer
	mdSource string
	mdOut    string
	logger   *clog.Logger

	toasts    []toast
	toast     *toast
	toastSeq  int
	toastPos  float64
	toastVel  float64
	toastShow bool
	spring    harmonica.Spring
	still     bool

	lastInputEvent string
}

type Options struct {
	ASCIIOnly bool
	Debug     bool
	Theme     string
	// ReducedMotion snaps toasts into place instead of sliding them.
	ReducedMotion bool
	History       *term.History
}

func New(opts Options) *Root {
	logger := clog.NewWithOptions(os.Stderr, clog.Options{Prefix: "termescape-ui", Level: clog.WarnLevel})
	if opts.Debug {
		logger.SetLevel(clog.DebugLevel)
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(78),
	)
	if err != nil {
		renderer = nil
	}

	h := help.New()
	h.Styles = help.DefaultDarkStyles()
	theme := ThemeForVariant(opts.Theme)
	spring := harmonica.NewSpring(harmonica.FPS(60), 10.0, 0.8)
	escape := progress.New(
		progress.WithWidth(20),
		progress.WithColors(lipgloss.Color("#5EC2FF"), lipgloss.Color("#79E6A6"), lipgloss.Color("#F2D16B")),
		progress.WithScaled(true),
	)

	in := textinput.New()
	in.Prompt = "> "
	in.Placeholder = "type a command"
	in.CharLimit = 256
	in.Focus()

	history := opts.History
	if history == nil {
		history = term.NewHistory(term.DefaultHistorySize)
	}

	r := &Root{
		theme:    theme,
		ascii:    opts.ASCIIOnly,
		layout:   LayoutWide,
		cols:     120,
		rows:     30,
		input:    in,
		history:  history,
		help:     h,
		escape:   escape,
		markdown: renderer,
		logger:   logger,
		spring:   spring,
		still:    opts.ReducedMotion,
	}
	r.keymap = gameKeyMap{
		Submit:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "run")),
		History: key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "history")),
		Help:    key.NewBinding(key.WithKeys("f1"), key.WithHelp("F1", "help")),
		Hint:    key.NewBinding(key.WithKeys("f2"), key.WithHelp("F2", "hint")),
		Map:     key.NewBinding(key.WithKeys("f3"), key.WithHelp("F3", "map")),
		Save:    key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
		Menu:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "menu")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "ctrl+q"), key.WithHelp("ctrl+q", "quit")),
	}
	r.keymap.setPlaying(false)
	return r
}

func (r *Root) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, r.nextToastCmd())
}

func (r *Root) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("update", rec, msg)
			model = r
			cmd = nil
		}
	}()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.cols = msg.Width
		r.rows = msg.Height
		r.layout = DetermineLayoutMode(r.cols, r.rows)
		r.input.SetWidth(max(10, r.cols-ansi.StringWidth(r.input.Prompt)-4))
		r.help.SetWidth(r.cols)
		return r, nil
	case applyMsg:
		if msg.fn != nil {
			msg.fn(r)
		}
		return r, r.nextToastCmd()
	case toastExpireMsg:
		if r.toast != nil && r.toast.id == msg.id {
			r.toastShow = false
			return r, r.animateCmd()
		}
		return r, nil
	case animateMsg:
		return r, r.stepToast()
	case tea.PasteMsg:
		r.recordInputEvent(fmt.Sprintf("paste:%d", len(msg.Content)))
		r.input.SetValue(r.input.Value() + strings.ReplaceAll(msg.Content, "\n", " "))
		r.input.CursorEnd()
		return r, nil
	case tea.KeyPressMsg:
		return r.handleKey(msg)
	}

	var inputCmd tea.Cmd
	r.input, inputCmd = r.input.Update(msg)
	return r, inputCmd
}

func (r *Root) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	r.recordInputEvent(fmt.Sprintf("key:%v mod:%v text:%q", msg.Code, msg.Mod, msg.Text))

	switch {
	case key.Matches(msg, r.keymap.Quit):
		r.dispatchController(func(c Controller) { c.OnQuit() })
		return r, nil
	case key.Matches(msg, r.keymap.Submit):
		line := r.input.Value()
		r.history.Add(line)
		r.input.Reset()
		r.dispatchController(func(c Controller) { c.OnSubmit(line) })
		return r, nil
	case msg.String() == "up":
		r.input.SetValue(r.history.Prev(r.input.Value()))
		r.input.CursorEnd()
		return r, nil
	case msg.String() == "down":
		r.input.SetValue(r.history.Next())
		r.input.CursorEnd()
		return r, nil
	}
	for _, s := range r.keymap.shortcuts() {
		if key.Matches(msg, s.binding) {
			line := s.line
			r.dispatchController(func(c Controller) { c.OnSubmit(line) })
			return r, nil
		}
	}

	var cmd tea.Cmd
	r.input, cmd = r.input.Update(msg)
	return r, cmd
}

func (r *Root) View() (view tea.View) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("view", rec, nil)
			width := max(1, r.cols)
			msg := "UI recovered from a rendering panic. Check logs."
			if r.statusFlash == "" {
				r.statusFlash = "Recovered UI panic"
			}
			view = tea.NewView(r.theme.Fail.Width(width).Render(trimForWidth(msg, max(1, width-1))))
		}
	}()

	if r.cols < 1 {
		r.cols = 120
	}
	if r.rows < 1 {
		r.rows = 30
	}

	var base string
	if r.layout == LayoutTooSmall {
		base = r.renderTooSmall()
	} else {
		base = r.renderScreen()
	}
	if r.toast != nil && r.toastPos > 0.01 {
		base = r.composeToast(base)
	}
	v := tea.NewView(base)
	v.AltScreen = true
	v.WindowTitle = "Terminal Escape"
	return v
}

func (r *Root) Run() error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	p := tea.NewProgram(r)
	r.program = p
	r.running = true
	r.mu.Unlock()

	_, err := p.Run()

	r.mu.Lock()
	r.program = nil
	r.running = false
	r.mu.Unlock()
	return err
}

func (r *Root) Stop() {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p != nil {
		p.Quit()
	}
}

func (r *Root) SetController(c Controller) {
	r.ctrl = c
}

func (r *Root) SetFrame(f Frame) {
	r.apply(func(m *Root) {
		m.frame = f
		m.statusFlash = ""
		m.keymap.setPlaying(f.Playing)
		prompt := f.Prompt
		if prompt == "" {
			prompt = "> "
		}
		m.input.Prompt = prompt
	})
}

func (r *Root) FlashStatus(msg string) {
	r.apply(func(m *Root) {
		m.statusFlash = msg
	})
}

// Toast queues a transient notice in the top-right corner.
func (r *Root) Toast(title, body string) {
	r.apply(func(m *Root) {
		m.toastSeq++
		m.toasts = append(m.toasts, toast{id: m.toastSeq, title: title, body: body})
	})
}

func (r *Root) SetHistoryOwner(player string) {
	r.apply(func(m *Root) {
		m.history.Switch(player)
	})
}

func (r *Root) apply(fn func(*Root)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	p := r.program
	running := r.running
	if !running || p == nil {
		fn(r)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	p.Send(applyMsg{fn: fn})
}

func (r *Root) dispatchController(fn func(Controller)) {
	if fn == nil || r.ctrl == nil {
		return
	}
	ctrl := r.ctrl
	r.callMu.Lock()
	r.calls = append(r.calls, func() { fn(ctrl) })
	if r.draining {
		r.callMu.Unlock()
		return
	}
	r.draining = true
	r.callMu.Unlock()
	go r.drainCalls()
}

// drainCalls runs queued controller callbacks one at a time so the
// controller sees submissions in the order they were typed.
func (r *Root) drainCalls() {
	for {
		r.callMu.Lock()
		if len(r.calls) == 0 {
			r.draining = false
			r.callMu.Unlock()
			return
		}
		call := r.calls[0]
		r.calls = r.calls[1:]
		r.callMu.Unlock()
		r.runCall(call)
	}
}

func (r *Root) runCall(call func()) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("ui.controller_panic", "panic", fmt.Sprintf("%v", rec), "stack", string(debug.Stack()))
		}
	}()
	call()
}

// nextToastCmd promotes the next queued toast when none is on screen.
func (r *Root) nextToastCmd() tea.Cmd {
	if r.toast != nil || len(r.toasts) == 0 {
		return nil
	}
	t := r.toasts[0]
	r.toasts = r.toasts[1:]
	r.toast = &t
	r.toastShow = true
	if r.still {
		r.toastPos, r.toastVel = 1, 0
	}
	id := t.id
	expire := tea.Tick(toastDuration, func(time.Time) tea.Msg { return toastExpireMsg{id: id} })
	return tea.Batch(expire, r.animateCmd())
}

func (r *Root) animateCmd() tea.Cmd {
	if r.still {
		return func() tea.Msg { return animateMsg(time.Now()) }
	}
	return animateTickCmd()
}

// stepToast advances the toast spring one frame.
func (r *Root) stepToast() tea.Cmd {
	if r.toast == nil {
		return nil
	}
	target := 0.0
	if r.toastShow {
		target = 1.0
	}
	if r.still {
		r.toastPos, r.toastVel = target, 0
	} else {
		r.toastPos, r.toastVel = r.spring.Update(r.toastPos, r.toastVel, target)
	}
	if r.shouldAnimate(target) {
		return animateTickCmd()
	}
	r.toastPos, r.toastVel = target, 0
	if target == 0 {
		r.toast = nil
		return r.nextToastCmd()
	}
	return nil
}

func (r *Root) shouldAnimate(target float64) bool {
	if r.still {
		return false
	}
	if target > 0 {
		return r.toastPos < 0.999 || abs(r.toastVel) > 0.001
	}
	return r.toastPos > 0.001 || abs(r.toastVel) > 0.001
}

func (r *Root) renderTooSmall() string {
	msg := fmt.Sprintf("Terminal too small: need at least %dx%d, have %dx%d.", minCols, minRows, r.cols, r.rows)
	return r.theme.Fail.Render(trimForWidth(msg, max(1, r.cols)))
}

func (r *Root) renderScreen() string {
	f := r.frame
	width := r.cols

	header := r.theme.Header.Width(width).Render(trimForWidth(firstNonEmptyStr(f.Title, "Terminal Escape"), max(1, width-2)))
	input := r.theme.Prompt.Render(r.input.View())
	footer := []string{}
	if f.Total > 0 {
		footer = append(footer, r.escapeBar(width))
	}
	footer = append(footer, input, r.help.View(r.keymap))
	status := firstNonEmptyStr(r.statusFlash, f.Status)
	footer = append(footer, r.theme.Status.Width(width).Render(trimForWidth(status, max(1, width-2))))

	avail := max(3, r.rows-1-len(footer))
	var panels string
	if r.layout == LayoutWide && len(f.Messages) > 0 {
		left := width * 3 / 5
		body := r.drawPanel(f.Title, r.bodyLines(left-2), left, avail, false)
		out := r.drawPanel("Output", WrapLines(f.Messages, width-left-2), width-left, avail, true)
		panels = lipgloss.JoinHorizontal(lipgloss.Top, body, out)
	} else {
		bodyLines := r.bodyLines(width - 2)
		msgLines := WrapLines(f.Messages, width-2)
		msgH := 0
		if len(msgLines) > 0 {
			msgH = min(len(msgLines)+2, max(3, avail/2))
		}
		bodyH := max(3, avail-msgH)
		parts := []string{r.drawPanel(f.Title, bodyLines, width, bodyH, false)}
		if msgH > 0 {
			parts = append(parts, r.drawPanel("Output", msgLines, width, msgH, true))
		}
		panels = lipgloss.JoinVertical(lipgloss.Left, parts...)
	}
	return strings.Join(append([]string{header, panels}, footer...), "\n")
}

func (r *Root) bodyLines(width int) []string {
	lines := WrapLines(r.frame.Body, width)
	if md := r.renderMarkdown(r.frame.Markdown); md != "" {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, WrapLines(strings.Split(md, "\n"), width)...)
	}
	return lines
}

func (r *Root) renderMarkdown(src string) string {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}
	if src == r.mdSource {
		return r.mdOut
	}
	out := src
	if r.markdown != nil {
		if rendered, err := r.markdown.Render(src); err == nil {
			out = strings.Trim(rendered, "\n")
		} else {
			r.logger.Debug("ui.markdown_failed", "error", err)
		}
	}
	r.mdSource, r.mdOut = src, out
	return out
}

// drawPanel boxes lines into a width x height panel. When tail is set the
// last lines are kept instead of the first.
func (r *Root) drawPanel(title string, lines []string, width, height int, tail bool) string {
	width = max(4, width)
	height = max(3, height)
	innerW := width - 2
	innerH := height - 2
	b := borders(r.ascii)

	if len(lines) > innerH {
		if tail {
			lines = lines[len(lines)-innerH:]
		} else {
			lines = lines[:innerH]
		}
	}
	style := r.theme.PanelBody
	if tail {
		style = r.theme.Messages
	}

	out := make([]string, 0, height)
	out = append(out, r.theme.PanelBorder.Render(topBorder(b, trimForWidth(title, max(1, innerW-4)), innerW)))
	for row := 0; row < innerH; row++ {
		line := ""
		if row < len(lines) {
			line = lines[row]
		}
		out = append(out, r.theme.PanelBorder.Render(b.v)+style.Render(padRune(line, innerW))+r.theme.PanelBorder.Render(b.v))
	}
	out = append(out, r.theme.PanelBorder.Render(b.bl+strings.Repeat(b.h, innerW)+b.br))
	return strings.Join(out, "\n")
}

func (r *Root) escapeBar(width int) string {
	label := fmt.Sprintf("Escape %d/%d ", r.frame.Completed, r.frame.Total)
	m := r.escape
	m.SetWidth(max(8, min(40, width-len(label)-2)))
	return label + m.ViewAs(r.frame.Ratio())
}

func (r *Root) composeToast(base string) string {
	t := r.toast
	w := min(toastWidth, max(10, r.cols-2))
	lines := Box("Achievement unlocked", []string{t.title, t.body}, w, r.ascii)
	shown := int(r.toastPos*float64(w) + 0.5)
	return composeOverlayAt(base, strings.Join(lines, "\n"), r.cols, r.rows, 1, r.cols-shown)
}

func animateTickCmd() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return animateMsg(t) })
}

func firstNonEmptyStr(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// composeOverlayAt paints overlay over base with its top-left corner at
// (startRow, startCol). Columns are terminal cells, so wide glyphs keep
// their place; one cut in half by the overlay edge becomes a space.
// Styling of base is dropped.
func composeOverlayAt(base, overlay string, cols, rows, startRow, startCol int) string {
	if cols <= 0 || rows <= 0 {
		return base
	}
	base = ansi.Strip(base)
	overlay = ansi.Strip(overlay)
	baseLines := strings.Split(base, "\n")
	if len(baseLines) < rows {
		pad := make([]string, rows-len(baseLines))
		baseLines = append(baseLines, pad...)
	}
	for i := 0; i < rows; i++ {
		baseLines[i] = padRune(baseLines[i], cols)
	}
	if startRow < 0 {
		startRow = 0
	}
	if startCol < 0 {
		startCol = 0
	}

	for i, line := range strings.Split(strings.TrimRight(overlay, "\n"), "\n") {
		row := startRow + i
		if row >= rows {
			break
		}
		baseLines[row] = spliceCells(baseLines[row], line, cols, startCol)
	}
	return strings.Join(baseLines[:rows], "\n")
}

// spliceCells writes over onto line, which is exactly cols cells wide,
// starting at cell col.
func spliceCells(line, over string, cols, col int) string {
	if col >= cols {
		return line
	}
	over = ansi.Truncate(over, cols-col, "")
	end := col + ansi.StringWidth(over)
	left := padRune(ansi.Truncate(line, col, ""), col)
	right := ""
	if end < cols {
		right = ansi.TruncateLeft(line, end, "")
		if ansi.StringWidth(right) > cols-end {
			right = " " + ansi.TruncateLeft(line, end+1, "")
		}
	}
	return left + over + right
}

func (r *Root) recordInputEvent(event string) {
	r.lastInputEvent = trimForWidth(strings.TrimSpace(event), 160)
}

func (r *Root) onModelPanic(where string, recovered any, msg tea.Msg) {
	if r.statusFlash == "" {
		r.statusFlash = "Recovered UI panic"
	}

	msgType := ""
	if msg != nil {
		msgType = fmt.Sprintf("%T", msg)
	}
	r.logger.Error("ui.panic_recovered",
		"where", where,
		"panic", fmt.Sprintf("%v", recovered),
		"message_type", msgType,
		"layout", r.layout,
		"cols", r.cols,
		"rows", r.rows,
		"last_input", r.lastInputEvent,
		"stack", string(debug.Stack()),
	)
}

var _ tea.Model = (*Root)(nil)
var _ View = (*Root)(nil)
