package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"termescape/internal/term"
)

// Plain is a line-oriented view for pipes and dumb terminals. Every frame
// is printed in full, followed by the prompt.
type Plain struct {
	out   io.Writer
	in    term.Prompter
	width int
	ascii bool
	ctrl  Controller

	mu      sync.Mutex
	frame   Frame
	flash   string
	toasts  []string
	cancel  context.CancelFunc
	stopped bool
}

type PlainOptions struct {
	Width     int
	ASCIIOnly bool
}

func NewPlain(in term.Prompter, out io.Writer, opts PlainOptions) *Plain {
	width := opts.Width
	if width <= 0 {
		width = plainWidth
	}
	return &Plain{out: out, in: in, width: width, ascii: opts.ASCIIOnly}
}

func (p *Plain) SetController(c Controller) { p.ctrl = c }

func (p *Plain) SetFrame(f Frame) {
	p.mu.Lock()
	p.frame = f
	p.flash = ""
	p.mu.Unlock()
}

func (p *Plain) FlashStatus(msg string) {
	p.mu.Lock()
	p.flash = msg
	p.mu.Unlock()
}

func (p *Plain) Toast(title, body string) {
	line := "*** " + title + " ***"
	if body != "" {
		line += " " + body
	}
	p.mu.Lock()
	p.toasts = append(p.toasts, line)
	p.mu.Unlock()
}

// SetHistoryOwner switches the prompt's history when it keeps one.
func (p *Plain) SetHistoryOwner(player string) {
	if h, ok := p.in.(interface{ History() *term.History }); ok {
		h.History().Switch(player)
	}
}

// Run draws, reads a line, hands it to the controller and repeats until
// Stop is called or input ends. End of input counts as quitting.
func (p *Plain) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		cancel()
		return nil
	}
	p.cancel = cancel
	p.mu.Unlock()
	defer cancel()

	for {
		prompt := p.draw()
		line, err := p.in.ReadLine(ctx, prompt)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(p.out)
				if p.ctrl != nil {
					p.ctrl.OnQuit()
				}
				return nil
			}
			return err
		}
		if p.ctrl != nil {
			p.ctrl.OnSubmit(line)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

func (p *Plain) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
	if p.cancel != nil {
		p.cancel()
	}
}

// draw prints the pending toasts and the current frame and returns the
// prompt to read with.
func (p *Plain) draw() string {
	p.mu.Lock()
	f := p.frame
	if p.flash != "" {
		f.Status = p.flash
	}
	toasts := p.toasts
	p.toasts = nil
	p.mu.Unlock()

	var b strings.Builder
	for _, t := range toasts {
		b.WriteString(t)
		b.WriteByte('\n')
	}
	for _, line := range Layout(f, p.width, p.ascii) {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	fmt.Fprint(p.out, b.String())

	if f.Prompt == "" {
		return "> "
	}
	return f.Prompt
}

var _ View = (*Plain)(nil)
