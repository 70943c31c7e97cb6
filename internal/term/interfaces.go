package term

import "context"

// Prompter reads one line of input per call.
type Prompter interface {
	ReadLine(ctx context.Context, prompt string) (string, error)
}
