package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ErrQuit is returned when the user asks to leave.
var ErrQuit = errors.New("quit")

type readResult struct {
	line string
	err  error
}

// Prompter reads one trimmed line per prompt. Input is read on a separate
// goroutine so a cancelled context interrupts a pending prompt.
type Prompter struct {
	scanner *bufio.Scanner
	out     io.Writer

	start sync.Once
	lines chan readResult
}

// NewPrompter wraps in and writes prompts to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		scanner: bufio.NewScanner(in),
		out:     out,
		lines:   make(chan readResult),
	}
}

// Ask prints prompt and returns the next line. "q" and end of input are
// ErrQuit; a done ctx returns its error and no line is consumed for it.
func (p *Prompter) Ask(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(p.out, prompt)
	p.start.Do(func() { go p.read() })

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r, ok := <-p.lines:
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if !ok {
			return "", ErrQuit
		}
		if r.err != nil {
			return "", r.err
		}

		line := strings.TrimSpace(r.line)
		if strings.EqualFold(line, "q") {
			return "", ErrQuit
		}
		return line, nil
	}
}

func (p *Prompter) read() {
	defer close(p.lines)
	for p.scanner.Scan() {
		p.lines <- readResult{line: p.scanner.Text()}
	}
	if err := p.scanner.Err(); err != nil {
		p.lines <- readResult{err: fmt.Errorf("read input: %w", err)}
	}
}
