package backend

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/nghyane/oc-bridge/internal/resilience"
	"github.com/tidwall/gjson"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, password string) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(Options{BaseURL: srv.URL, Username: "opencode", Password: password, HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return c
}

func TestNewClient_RejectsBadURL(t *testing.T) {
	if _, err := NewClient(Options{BaseURL: "localhost"}); err == nil {
		t.Fatal("expected error for url without scheme")
	}
}

func TestCreateSession_SendsWorkspaceModeAndAuth(t *testing.T) {
	var gotBody []byte
	var gotUser, gotPass string
	var gotAuth bool
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/session" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotUser, gotPass, gotAuth = r.BasicAuth()
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"id":"ses_123","title":"x"}`))
	}, "secret")

	sess, err := c.CreateSession(context.Background(), "/work", ModeAgent)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if sess.ID != "ses_123" {
		t.Errorf("expected ses_123, got %s", sess.ID)
	}
	if gjson.GetBytes(gotBody, "workspace").String() != "/work" {
		t.Errorf("expected workspace in body, got %s", gotBody)
	}
	if gjson.GetBytes(gotBody, "mode").String() != "agent" {
		t.Errorf("expected mode agent, got %s", gotBody)
	}
	if !gotAuth || gotUser != "opencode" || gotPass != "secret" {
		t.Errorf("expected basic auth opencode:secret, got %v %q %q", gotAuth, gotUser, gotPass)
	}
}

func TestCreateSession_NoAuthWithoutPassword(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if _, _, ok := r.BasicAuth(); ok {
			t.Error("expected no basic auth header")
		}
		_, _ = w.Write([]byte(`{"id":"ses_1"}`))
	}, "")
	if _, err := c.CreateSession(context.Background(), "", ModeAgent); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
}

func TestCreateSession_StatusError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}, "")
	_, err := c.CreateSession(context.Background(), "", ModeAgent)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", statusErr.StatusCode)
	}
}

func TestCreateSession_MissingID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}, "")
	if _, err := c.CreateSession(context.Background(), "", ModeAgent); err == nil {
		t.Fatal("expected error for reply without id")
	}
}

func TestSendMessage_ParsesPartsAndTokens(t *testing.T) {
	var gotBody []byte
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/session/ses_9/message" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotBody, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"parts":[{"type":"step-start"},{"type":"text","text":"hel"},{"type":"tool","tool":"bash"},{"type":"text","text":"lo"}],"info":{"tokens":{"total":7,"input":5,"output":2}}}`))
	}, "")

	reply, err := c.SendMessage(context.Background(), "ses_9", MessageRequest{
		Parts:      []Part{{Type: "text", Text: "hi there"}},
		ProviderID: "anthropic",
		ModelID:    "claude-sonnet-4",
	})
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if len(reply.Parts) != 4 {
		t.Fatalf("expected 4 parts, got %d", len(reply.Parts))
	}
	if reply.Info == nil || reply.Info.Tokens == nil || reply.Info.Tokens.Total != 7 {
		t.Errorf("expected total tokens 7, got %+v", reply.Info)
	}
	if gjson.GetBytes(gotBody, "parts.0.text").String() != "hi there" {
		t.Errorf("unexpected body %s", gotBody)
	}
	if gjson.GetBytes(gotBody, "providerID").String() != "anthropic" || gjson.GetBytes(gotBody, "modelID").String() != "claude-sonnet-4" {
		t.Errorf("expected provider/model in body, got %s", gotBody)
	}
}

func TestSendMessage_NoInfo(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"parts":[{"type":"text","text":"x"}]}`))
	}, "")
	reply, err := c.SendMessage(context.Background(), "s", MessageRequest{})
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if reply.Info != nil {
		t.Errorf("expected nil info, got %+v", reply.Info)
	}
}

func TestSendMessage_EmptySessionID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend should not be called")
	}, "")
	if _, err := c.SendMessage(context.Background(), "", MessageRequest{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestSendMessage_DecodesCompressedBodies(t *testing.T) {
	payload := []byte(`{"parts":[{"type":"text","text":"zip"}]}`)

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, _ = gw.Write(payload)
	_ = gw.Close()

	var br bytes.Buffer
	bw := brotli.NewWriter(&br)
	_, _ = bw.Write(payload)
	_ = bw.Close()

	for encoding, body := range map[string][]byte{"gzip": gz.Bytes(), "br": br.Bytes()} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Encoding", encoding)
			_, _ = w.Write(body)
		}, "")
		reply, err := c.SendMessage(context.Background(), "s", MessageRequest{})
		if err != nil {
			t.Fatalf("%s: SendMessage failed: %v", encoding, err)
		}
		if len(reply.Parts) != 1 || reply.Parts[0].Text != "zip" {
			t.Errorf("%s: unexpected parts %+v", encoding, reply.Parts)
		}
	}
}

func TestProviders_ObjectForm(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/provider" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"all":{"opencode":{"name":"OpenCode","source":"api","models":{"grok-code":{"name":"Grok Code","cost":{"input":0,"output":0}}}}}}`))
	}, "")
	providers, err := c.Providers(context.Background())
	if err != nil {
		t.Fatalf("Providers failed: %v", err)
	}
	if len(providers) != 1 || providers[0].ID != "opencode" || providers[0].Source != "api" {
		t.Fatalf("unexpected providers %+v", providers)
	}
	m := providers[0].Models
	if len(m) != 1 || m[0].ID != "grok-code" || m[0].Name != "Grok Code" || !m[0].HasCostInfo {
		t.Errorf("unexpected models %+v", m)
	}
}

func TestProviders_ArrayForm(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"all":[{"id":"anthropic","name":"Anthropic","models":{"claude-sonnet-4":{"id":"claude-sonnet-4","name":"Sonnet","cost":{"input":3,"output":15}}}}]}`))
	}, "")
	providers, err := c.Providers(context.Background())
	if err != nil {
		t.Fatalf("Providers failed: %v", err)
	}
	if len(providers) != 1 || providers[0].ID != "anthropic" {
		t.Fatalf("unexpected providers %+v", providers)
	}
	if providers[0].Models[0].InputCost != 3 {
		t.Errorf("expected input cost 3, got %v", providers[0].Models[0].InputCost)
	}
}

func TestProviders_MissingAll(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"providers":[]}`))
	}, "")
	if _, err := c.Providers(context.Background()); err == nil {
		t.Fatal("expected error when all is missing")
	}
}

func TestHealth_NoBreaker(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {}, "")
	if got := c.Health(); got.Breaker != "disabled" || got.BreakerName != "" {
		t.Errorf("Health = %+v, want disabled", got)
	}
}

func TestHealth_BreakerOpensAfterFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(Options{
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
		Breaker: &resilience.BreakerConfig{
			Name:             "backend",
			MaxRequests:      1,
			Timeout:          time.Minute,
			FailureThreshold: 1,
			MinRequests:      100,
		},
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	if got := c.Health(); got.Breaker != "closed" || got.BreakerName != "backend" {
		t.Fatalf("initial Health = %+v", got)
	}
	if _, err := c.CreateSession(context.Background(), "", ModeAgent); err == nil {
		t.Fatal("expected CreateSession to fail")
	}
	if got := c.Health(); got.Breaker != "open" {
		t.Errorf("Health after failure = %+v, want open", got)
	}
}
