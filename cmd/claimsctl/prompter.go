package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/goliatone/go-claims/transition"
)

// terminalPrompter collects confirmation and reason text from stdin. The
// --yes and --reason flags pre-answer the prompts for scripted use.
type terminalPrompter struct {
	reader       *bufio.Reader
	assumeYes    bool
	presetReason string
}

func newTerminalPrompter(assumeYes bool, presetReason string) *terminalPrompter {
	return &terminalPrompter{
		reader:       bufio.NewReader(os.Stdin),
		assumeYes:    assumeYes,
		presetReason: presetReason,
	}
}

func (p *terminalPrompter) Confirm(ctx context.Context, prompt transition.Prompt) (bool, error) {
	if p.assumeYes {
		return true, nil
	}
	fmt.Printf("Move claim %s from %s to %s? [y/N]: ",
		prompt.ClaimID, prompt.From.Label(), prompt.To.Label())
	line, err := p.readLine(ctx)
	if err != nil {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func (p *terminalPrompter) Reason(ctx context.Context, prompt transition.Prompt) (string, bool, error) {
	if p.presetReason != "" {
		reason := p.presetReason
		// A preset reason answers only the first prompt; a rejection
		// afterwards falls back to interactive input.
		p.presetReason = ""
		return reason, true, nil
	}

	fmt.Printf("Moving claim %s from %s to %s requires a reason.\n",
		prompt.ClaimID, prompt.From.Label(), prompt.To.Label())
	if prompt.Draft != "" {
		fmt.Printf("Previous entry: %s\n", prompt.Draft)
	}
	fmt.Print("Reason (empty to cancel): ")

	line, err := p.readLine(ctx)
	if err != nil {
		return "", false, err
	}
	reason := strings.TrimSpace(line)
	if reason == "" {
		return "", false, nil
	}
	return reason, true, nil
}

func (p *terminalPrompter) readLine(ctx context.Context) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := p.reader.ReadString('\n')
		ch <- result{line: line, err: err}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.err != nil && res.line == "" {
			return "", res.err
		}
		return res.line, nil
	}
}
