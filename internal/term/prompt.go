package term

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// LinePrompt reads newline-terminated input from a plain stream. It is used
// when stdin is not a terminal.
type LinePrompt struct {
	out     io.Writer
	lines   chan string
	err     error
	history *History
}

func NewLinePrompt(in io.Reader, out io.Writer) *LinePrompt {
	p := &LinePrompt{
		out:     out,
		lines:   make(chan string),
		history: NewHistory(DefaultHistorySize),
	}
	go p.scan(in)
	return p
}

func (p *LinePrompt) scan(in io.Reader) {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		p.lines <- sc.Text()
	}
	p.err = sc.Err()
	if p.err == nil {
		p.err = io.EOF
	}
	close(p.lines)
}

// ReadLine prints prompt and waits for a line, end of input, or ctx.
func (p *LinePrompt) ReadLine(ctx context.Context, prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(p.out, prompt)
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-p.lines:
		if !ok {
			return "", p.err
		}
		line = strings.TrimRight(line, "\r")
		p.history.Add(line)
		return line, nil
	}
}

func (p *LinePrompt) History() *History { return p.history }
