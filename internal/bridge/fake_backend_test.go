package bridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/nghyane/oc-bridge/internal/backend"
	"github.com/nghyane/oc-bridge/internal/registry"
)

type fakeBackend struct {
	mu          sync.Mutex
	created     int
	sent        int
	lastSession string
	lastMessage backend.MessageRequest

	reply     *backend.Reply
	createErr error
	sendErr   error
	// createGate, when set, blocks CreateSession until it is closed.
	createGate chan struct{}
	providers  []backend.Provider
}

func (f *fakeBackend) CreateSession(ctx context.Context, workspace, mode string) (*backend.Session, error) {
	f.mu.Lock()
	f.created++
	n := f.created
	gate := f.createGate
	err := f.createErr
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return &backend.Session{ID: fmt.Sprintf("ses_%d", n)}, nil
}

func (f *fakeBackend) SendMessage(ctx context.Context, sessionID string, msg backend.MessageRequest) (*backend.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent++
	f.lastSession = sessionID
	f.lastMessage = msg
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return f.reply, nil
}

func (f *fakeBackend) Providers(context.Context) ([]backend.Provider, error) {
	return f.providers, nil
}

func (f *fakeBackend) counts() (created, sent int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created, f.sent
}

func helloReply() *backend.Reply {
	return &backend.Reply{
		Parts: []backend.Part{{Type: "text", Text: "hello"}},
		Info:  &backend.ReplyInfo{Tokens: &backend.TokenInfo{Total: 7}},
	}
}

func testCatalog() []backend.Provider {
	return []backend.Provider{
		{ID: "opencode", Name: "OpenCode", Models: []backend.ProviderModel{
			{ID: "grok-code", Name: "Grok Code"},
			{ID: "big-pickle", Name: "Big Pickle"},
		}},
	}
}

func newTestTranslator(fb *fakeBackend) *Translator {
	if fb.providers == nil {
		fb.providers = testCatalog()
	}
	models := registry.NewModelRegistry()
	models.Replace(registry.FromProviders(fb.providers))
	state := NewBridgeState("opencode/grok-code", NewSessionManager(fb, "/work"), nil)
	return NewTranslator(state, fb, models, nil)
}
