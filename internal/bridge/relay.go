package bridge

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nghyane/oc-bridge/internal/backend"
)

// countText is sent by clients that only want a token count.
const countText = "count"

// noopReply answers when no user message is worth forwarding.
const noopReply = "OK"

// MessageSender posts a turn into a backend session.
type MessageSender interface {
	SendMessage(ctx context.Context, sessionID string, msg backend.MessageRequest) (*backend.Reply, error)
}

// RelayResult is the flattened backend reply.
type RelayResult struct {
	Text string
	// Tokens is the backend-measured total, 0 when not reported.
	Tokens int64
	// Forwarded is false when nothing was sent to the backend.
	Forwarded bool
}

// Relay forwards the newest meaningful user turn of a conversation.
type Relay struct {
	sender MessageSender
}

// NewRelay creates a Relay over sender.
func NewRelay(sender MessageSender) *Relay {
	return &Relay{sender: sender}
}

// SelectPrompt scans from newest to oldest for a user message whose text is
// longer than two characters and is not the count text.
func SelectPrompt(messages []Message) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		m := messages[i]
		if m.Role != "user" {
			continue
		}
		text := ExtractText(m.Content)
		if utf8.RuneCountInString(text) <= 2 || text == countText {
			continue
		}
		return text, true
	}
	return "", false
}

// Relay sends the selected prompt into sessionID. When model has the
// "provider/model" form the backend is told to route to it.
func (r *Relay) Relay(ctx context.Context, sessionID, model string, messages []Message) (RelayResult, error) {
	prompt, ok := SelectPrompt(messages)
	if !ok {
		return RelayResult{Text: noopReply}, nil
	}

	req := backend.MessageRequest{
		Parts: []backend.Part{{Type: "text", Text: prompt}},
	}
	if providerID, modelID, found := strings.Cut(model, "/"); found && providerID != "" && modelID != "" {
		req.ProviderID = providerID
		req.ModelID = modelID
	}

	reply, err := r.sender.SendMessage(ctx, sessionID, req)
	if err != nil {
		return RelayResult{}, fmt.Errorf("%w: %w", ErrRelayFailed, err)
	}

	res := RelayResult{Forwarded: true}
	if reply == nil {
		return res, nil
	}
	var sb strings.Builder
	for _, p := range reply.Parts {
		if p.Type == "text" {
			sb.WriteString(p.Text)
		}
	}
	res.Text = sb.String()
	if reply.Info != nil && reply.Info.Tokens != nil {
		res.Tokens = reply.Info.Tokens.Total
	}
	return res, nil
}
