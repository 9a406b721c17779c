package bridge

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func chatRequest(t *testing.T, body string) *ChatRequest {
	t.Helper()
	req, err := ParseChatRequest([]byte(body))
	if err != nil {
		t.Fatalf("ParseChatRequest: %v", err)
	}
	return req
}

func TestHandleChat_CountOnlyTouchesNothing(t *testing.T) {
	fb := &fakeBackend{reply: helloReply()}
	tr := newTestTranslator(fb)

	req := chatRequest(t, `{"messages":[{"role":"user","content":"abcde"},{"role":"assistant","content":[{"text":"abcd"}]}]}`)
	res, err := tr.HandleChat(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleChat: %v", err)
	}
	if res.Count == nil || res.Message != nil {
		t.Fatalf("expected count-only result, got %+v", res)
	}
	if res.Count.Tokens != 3 {
		t.Errorf("tokens = %d, want 3", res.Count.Tokens)
	}
	if created, sent := fb.counts(); created != 0 || sent != 0 {
		t.Errorf("backend calls: created=%d sent=%d, want none", created, sent)
	}
	if tr.State().Sessions.Active() {
		t.Error("count-only request must not open a session")
	}
}

func TestHandleChat_RelaysAndCounts(t *testing.T) {
	fb := &fakeBackend{reply: helloReply()}
	tr := newTestTranslator(fb)

	body := `{"model":"claude","max_tokens":1024,"messages":[{"role":"user","content":"hi there"}]}`
	res, err := tr.HandleChat(context.Background(), chatRequest(t, body))
	if err != nil {
		t.Fatalf("HandleChat: %v", err)
	}
	msg := res.Message
	if msg == nil {
		t.Fatal("expected a message response")
	}
	if !strings.HasPrefix(msg.ID, "msg_") {
		t.Errorf("id = %q", msg.ID)
	}
	if msg.Type != "message" || msg.Role != "assistant" || msg.StopReason != "end_turn" || msg.StopSequence != nil {
		t.Errorf("envelope = %+v", msg)
	}
	if msg.Model != "opencode/grok-code" {
		t.Errorf("model = %q, want current model", msg.Model)
	}
	if len(msg.Content) != 1 || msg.Content[0].Type != "text" || msg.Content[0].Text != "hello" {
		t.Errorf("content = %+v", msg.Content)
	}

	serialized := `[{"role":"user","content":"hi there"}]`
	if msg.Usage.InputTokens != EstimateTokens(serialized) {
		t.Errorf("input_tokens = %d, want %d", msg.Usage.InputTokens, EstimateTokens(serialized))
	}
	if msg.Usage.OutputTokens != EstimateTokens("hello") {
		t.Errorf("output_tokens = %d, want %d", msg.Usage.OutputTokens, EstimateTokens("hello"))
	}

	st := tr.Status()
	if st.TotalRequests != 1 || st.TotalTokensUsed != 7 {
		t.Errorf("counters = %d/%d, want 1/7", st.TotalRequests, st.TotalTokensUsed)
	}
	if st.SessionID != "active" {
		t.Errorf("sessionId = %q, want active", st.SessionID)
	}
}

func TestHandleChat_ReusesSession(t *testing.T) {
	fb := &fakeBackend{reply: helloReply()}
	tr := newTestTranslator(fb)
	body := `{"max_tokens":10,"messages":[{"role":"user","content":"hi there"}]}`

	for i := 0; i < 3; i++ {
		if _, err := tr.HandleChat(context.Background(), chatRequest(t, body)); err != nil {
			t.Fatalf("HandleChat: %v", err)
		}
	}
	if created, sent := fb.counts(); created != 1 || sent != 3 {
		t.Errorf("created=%d sent=%d, want 1 and 3", created, sent)
	}
}

func TestHandleChat_BackendUnavailable(t *testing.T) {
	fb := &fakeBackend{createErr: errors.New("dial tcp: connection refused")}
	tr := newTestTranslator(fb)

	_, err := tr.HandleChat(context.Background(), chatRequest(t, `{"max_tokens":10,"messages":[{"role":"user","content":"hi there"}]}`))
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("err = %v, want ErrBackendUnavailable", err)
	}
	if st := tr.Status(); st.TotalRequests != 0 || st.SessionID != "inactive" {
		t.Errorf("status after failure = %+v", st)
	}
}

func TestHandleChat_RelayFailureLeavesCounters(t *testing.T) {
	fb := &fakeBackend{sendErr: errors.New("boom")}
	tr := newTestTranslator(fb)

	_, err := tr.HandleChat(context.Background(), chatRequest(t, `{"max_tokens":10,"messages":[{"role":"user","content":"hi there"}]}`))
	if !errors.Is(err, ErrRelayFailed) {
		t.Fatalf("err = %v, want ErrRelayFailed", err)
	}
	if st := tr.Status(); st.TotalRequests != 0 || st.TotalTokensUsed != 0 {
		t.Errorf("counters = %+v, want zero", st)
	}
}

func TestHandleChat_MissingMessages(t *testing.T) {
	tr := newTestTranslator(&fakeBackend{})
	if _, err := tr.HandleChat(context.Background(), chatRequest(t, `{"max_tokens":10}`)); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestSelectModel_Unknown(t *testing.T) {
	fb := &fakeBackend{reply: helloReply()}
	tr := newTestTranslator(fb)
	if _, err := tr.State().Sessions.Ensure(context.Background()); err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	held := tr.State().Sessions.ID()

	if err := tr.SelectModel("nope/missing"); !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("err = %v, want ErrUnknownModel", err)
	}
	if tr.CurrentModel() != "opencode/grok-code" {
		t.Errorf("current model changed to %q", tr.CurrentModel())
	}
	if tr.State().Sessions.ID() != held {
		t.Error("session must be untouched by a failed selection")
	}
}

func TestSelectModel_ClearsSession(t *testing.T) {
	fb := &fakeBackend{reply: helloReply()}
	tr := newTestTranslator(fb)
	body := `{"max_tokens":10,"messages":[{"role":"user","content":"hi there"}]}`

	if _, err := tr.HandleChat(context.Background(), chatRequest(t, body)); err != nil {
		t.Fatalf("HandleChat: %v", err)
	}
	if err := tr.SelectModel("opencode/big-pickle"); err != nil {
		t.Fatalf("SelectModel: %v", err)
	}
	if tr.State().Sessions.Active() {
		t.Error("selecting a model should clear the session")
	}
	if tr.CurrentModel() != "opencode/big-pickle" {
		t.Errorf("current model = %q", tr.CurrentModel())
	}

	if _, err := tr.HandleChat(context.Background(), chatRequest(t, body)); err != nil {
		t.Fatalf("HandleChat: %v", err)
	}
	if created, _ := fb.counts(); created != 2 {
		t.Errorf("created = %d, want a second session after model change", created)
	}
	if fb.lastMessage.ModelID != "big-pickle" {
		t.Errorf("routed to %q, want big-pickle", fb.lastMessage.ModelID)
	}
}

func TestResetStats_Idempotent(t *testing.T) {
	fb := &fakeBackend{reply: helloReply()}
	tr := newTestTranslator(fb)
	if _, err := tr.HandleChat(context.Background(), chatRequest(t, `{"max_tokens":1,"messages":[{"role":"user","content":"hi there"}]}`)); err != nil {
		t.Fatalf("HandleChat: %v", err)
	}

	for i := 0; i < 2; i++ {
		tr.ResetStats()
		if st := tr.Status(); st.TotalRequests != 0 || st.TotalTokensUsed != 0 {
			t.Errorf("reset %d: counters = %d/%d", i, st.TotalRequests, st.TotalTokensUsed)
		}
	}
}

func TestResetSession_DistinctIDs(t *testing.T) {
	tr := newTestTranslator(&fakeBackend{})
	a, err := tr.ResetSession(context.Background())
	if err != nil {
		t.Fatalf("ResetSession: %v", err)
	}
	b, err := tr.ResetSession(context.Background())
	if err != nil {
		t.Fatalf("ResetSession: %v", err)
	}
	if a == b {
		t.Errorf("expected distinct ids, got %q twice", a)
	}
}

func TestRefreshModels(t *testing.T) {
	fb := &fakeBackend{}
	tr := newTestTranslator(fb)
	fb.providers = append(fb.providers, testCatalog()[0])
	fb.providers[1].ID = "zen"

	if err := tr.RefreshModels(context.Background()); err != nil {
		t.Fatalf("RefreshModels: %v", err)
	}
	if got := len(tr.Models()); got != 4 {
		t.Errorf("models = %d, want 4", got)
	}
}
