package bridge

import (
	"context"
	"errors"
	"testing"

	"github.com/nghyane/oc-bridge/internal/backend"
)

var backendReplyNoTokens = backend.Reply{
	Parts: []backend.Part{
		{Type: "text", Text: "a"},
		{Type: "reasoning", Text: "thinking"},
		{Type: "tool"},
		{Type: "text", Text: "b"},
	},
}

func TestRelay_CountProbeIsNotForwarded(t *testing.T) {
	fb := &fakeBackend{reply: helloReply()}
	r := NewRelay(fb)

	res, err := r.Relay(context.Background(), "ses_1", "opencode/grok-code", []Message{NewMessage("user", "count")})
	if err != nil {
		t.Fatalf("Relay: %v", err)
	}
	if res.Text != "OK" || res.Tokens != 0 || res.Forwarded {
		t.Errorf("res = %+v, want OK with 0 tokens", res)
	}
	if _, sent := fb.counts(); sent != 0 {
		t.Errorf("sent = %d, want 0", sent)
	}
}

func TestRelay_ForwardsNewestUserMessage(t *testing.T) {
	fb := &fakeBackend{reply: helloReply()}
	r := NewRelay(fb)

	msgs := []Message{
		NewMessage("user", "first question"),
		NewMessage("assistant", "an answer"),
		{Role: "user", Content: ContentFromRaw(`[{"type":"text","text":"hi "},"there"]`)},
		NewMessage("user", "ok"),
		NewMessage("assistant", "trailing"),
	}
	res, err := r.Relay(context.Background(), "ses_1", "opencode/grok-code", msgs)
	if err != nil {
		t.Fatalf("Relay: %v", err)
	}
	if res.Text != "hello" || res.Tokens != 7 {
		t.Errorf("res = %+v, want hello/7", res)
	}

	if fb.lastSession != "ses_1" {
		t.Errorf("session = %q", fb.lastSession)
	}
	if len(fb.lastMessage.Parts) != 1 || fb.lastMessage.Parts[0].Text != "hi there" || fb.lastMessage.Parts[0].Type != "text" {
		t.Errorf("parts = %+v", fb.lastMessage.Parts)
	}
	if fb.lastMessage.ProviderID != "opencode" || fb.lastMessage.ModelID != "grok-code" {
		t.Errorf("routing = %q/%q", fb.lastMessage.ProviderID, fb.lastMessage.ModelID)
	}
}

func TestRelay_PlainModelIDIsNotSplit(t *testing.T) {
	fb := &fakeBackend{reply: helloReply()}
	r := NewRelay(fb)

	if _, err := r.Relay(context.Background(), "ses_1", "grok-code", []Message{NewMessage("user", "hi there")}); err != nil {
		t.Fatalf("Relay: %v", err)
	}
	if fb.lastMessage.ProviderID != "" || fb.lastMessage.ModelID != "" {
		t.Errorf("unexpected routing %q/%q", fb.lastMessage.ProviderID, fb.lastMessage.ModelID)
	}
}

func TestRelay_ReplyParsing(t *testing.T) {
	fb := &fakeBackend{reply: &backendReplyNoTokens}
	r := NewRelay(fb)

	res, err := r.Relay(context.Background(), "ses_1", "", []Message{NewMessage("user", "hi there")})
	if err != nil {
		t.Fatalf("Relay: %v", err)
	}
	if res.Text != "ab" || res.Tokens != 0 {
		t.Errorf("res = %+v, want ab/0", res)
	}
}

func TestRelay_FailureWrapsSentinel(t *testing.T) {
	fb := &fakeBackend{sendErr: errors.New("502 bad gateway")}
	r := NewRelay(fb)

	_, err := r.Relay(context.Background(), "ses_1", "", []Message{NewMessage("user", "hi there")})
	if !errors.Is(err, ErrRelayFailed) {
		t.Fatalf("err = %v, want ErrRelayFailed", err)
	}
	if _, sent := fb.counts(); sent != 1 {
		t.Errorf("sent = %d, want exactly one attempt", sent)
	}
}

func TestSelectPrompt(t *testing.T) {
	cases := []struct {
		name string
		msgs []Message
		want string
		ok   bool
	}{
		{"empty", nil, "", false},
		{"only assistant", []Message{NewMessage("assistant", "hello there")}, "", false},
		{"too short", []Message{NewMessage("user", "hi")}, "", false},
		{"count text skipped", []Message{NewMessage("user", "real task"), NewMessage("user", "count")}, "real task", true},
		{"three chars", []Message{NewMessage("user", "abc")}, "abc", true},
		{"null content", []Message{{Role: "user", Content: ContentFromRaw("null")}}, "", false},
	}
	for _, tc := range cases {
		got, ok := SelectPrompt(tc.msgs)
		if got != tc.want || ok != tc.ok {
			t.Errorf("%s: SelectPrompt = %q, %v; want %q, %v", tc.name, got, ok, tc.want, tc.ok)
		}
	}
}
