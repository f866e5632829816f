// internal/spade/prompter.go
package spade

import "context"

// PromptKind distinguishes confirmation from clarification requests.
type PromptKind string

const (
	PromptConfirm PromptKind = "confirm"
	PromptClarify PromptKind = "clarify"
)

// PromptRequest is delivered to the UI side of a ChannelPrompter.
type PromptRequest struct {
	Kind    PromptKind
	Text    string
	Options []string
	Reply   chan<- PromptReply
}

// PromptReply carries the user's answer back. For confirmations Answer is
// ignored and OK is the acknowledgment.
type PromptReply struct {
	Answer string
	OK     bool
}

// ChannelPrompter bridges Apply to a message-passing UI: each prompt is sent
// on Requests and the loop waits for the reply or ctx.
type ChannelPrompter struct {
	Requests chan PromptRequest
}

func NewChannelPrompter(buffer int) *ChannelPrompter {
	return &ChannelPrompter{Requests: make(chan PromptRequest, buffer)}
}

func (p *ChannelPrompter) Confirm(ctx context.Context, prompt string) (bool, error) {
	reply, err := p.ask(ctx, PromptRequest{Kind: PromptConfirm, Text: prompt})
	if err != nil {
		return false, err
	}
	return reply.OK, nil
}

func (p *ChannelPrompter) Clarify(ctx context.Context, question string, options []string) (string, bool, error) {
	reply, err := p.ask(ctx, PromptRequest{Kind: PromptClarify, Text: question, Options: options})
	if err != nil {
		return "", false, err
	}
	return reply.Answer, reply.OK, nil
}

func (p *ChannelPrompter) ask(ctx context.Context, req PromptRequest) (PromptReply, error) {
	replyCh := make(chan PromptReply, 1)
	req.Reply = replyCh

	select {
	case p.Requests <- req:
	case <-ctx.Done():
		return PromptReply{}, ctx.Err()
	}

	select {
	case reply := <-replyCh:
		return reply, nil
	case <-ctx.Done():
		return PromptReply{}, ctx.Err()
	}
}
