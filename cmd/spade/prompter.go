// cmd/spade/prompter.go
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// TerminalPrompter answers guardrail prompts from line-oriented input.
type TerminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewTerminalPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{in: bufio.NewReader(in), out: out}
}

func (p *TerminalPrompter) Confirm(ctx context.Context, prompt string) (bool, error) {
	fmt.Fprintf(p.out, "%s [y/N]: ", prompt)
	line, err := p.readLine(ctx)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(line) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Clarify accepts either free text or the number of a listed option. An
// empty line or end of input dismisses the question.
func (p *TerminalPrompter) Clarify(ctx context.Context, question string, options []string) (string, bool, error) {
	fmt.Fprintln(p.out, question)
	for i, opt := range options {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, opt)
	}
	fmt.Fprint(p.out, "> ")

	line, err := p.readLine(ctx)
	if err != nil {
		return "", false, err
	}
	if line == "" {
		return "", false, nil
	}
	if n, convErr := strconv.Atoi(line); convErr == nil && n >= 1 && n <= len(options) {
		return options[n-1], true, nil
	}
	return line, true, nil
}

// readLine returns "" at end of input.
func (p *TerminalPrompter) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
