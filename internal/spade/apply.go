// internal/spade/apply.go
package spade

import (
	"context"
	"fmt"
	"strings"
)

// Prompter asks a human for input. Implementations may block on a terminal,
// a websocket round trip or a channel; ctx bounds the wait.
type Prompter interface {
	// Confirm returns the user's yes/no acknowledgment.
	Confirm(ctx context.Context, prompt string) (bool, error)
	// Clarify returns the user's free-text answer; ok is false when the user
	// dismissed the question.
	Clarify(ctx context.Context, question string, options []string) (answer string, ok bool, err error)
}

// Guardrail runs the policy application loop against a Prompter.
type Guardrail struct {
	prompter  Prompter
	maxRounds int
}

type Option func(*Guardrail)

// WithMaxClarificationRounds bounds how many clarification answers are
// accepted before giving up.
func WithMaxClarificationRounds(n int) Option {
	return func(g *Guardrail) {
		if n > 0 {
			g.maxRounds = n
		}
	}
}

func NewGuardrail(prompter Prompter, opts ...Option) *Guardrail {
	g := &Guardrail{prompter: prompter, maxRounds: DefaultMaxClarificationRounds}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Apply evaluates req and consults the prompter until the action is allowed,
// refused or the clarification budget is spent.
func (g *Guardrail) Apply(ctx context.Context, req ActionRequest) (bool, error) {
	if err := req.Validate(); err != nil {
		return false, err
	}

	for round := 0; ; round++ {
		decision := Evaluate(req)

		switch {
		case decision.Proceed:
			return true, nil

		case decision.NeedsConfirmation:
			ok, err := g.prompter.Confirm(ctx, ConfirmationPrompt(req, decision))
			if err != nil {
				return false, fmt.Errorf("confirm %s: %w", req.Action, err)
			}
			return ok, nil

		default:
			if round >= g.maxRounds {
				return false, nil
			}
			answer, ok, err := g.prompter.Clarify(ctx, decision.Question, decision.Options)
			if err != nil {
				return false, fmt.Errorf("clarify %s: %w", req.Action, err)
			}
			if !ok || strings.TrimSpace(answer) == "" {
				return false, nil
			}
			req.Confidence = boost(req.Confidence)
			req.UserIntent = strings.TrimSpace(answer)
		}
	}
}
