// Package backend is the HTTP client for the local agent server the bridge
// forwards to. It knows the server's session, message and provider
// endpoints and nothing about the inbound API shape.
package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nghyane/oc-bridge/internal/json"
	log "github.com/nghyane/oc-bridge/internal/logging"
	"github.com/nghyane/oc-bridge/internal/resilience"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Options configures a Client.
type Options struct {
	BaseURL  string
	Username string
	Password string
	ProxyURL string
	// Timeout bounds each call; 0 leaves calls bounded only by ctx.
	Timeout time.Duration
	Retry   resilience.RetryConfig
	Breaker *resilience.BreakerConfig
	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// Client talks to the backend.
type Client struct {
	baseURL  *url.URL
	username string
	password string
	timeout  time.Duration
	http     *http.Client
	exec     *resilience.Executor[[]byte]
}

// NewClient validates opts and builds a client.
func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q", opts.BaseURL)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient, err = resilience.NewHTTPClient(opts.ProxyURL, 0)
		if err != nil {
			return nil, err
		}
	}
	return &Client{
		baseURL:  base,
		username: opts.Username,
		password: opts.Password,
		timeout:  opts.Timeout,
		http:     httpClient,
		exec:     resilience.NewExecutor[[]byte](opts.Retry, opts.Breaker),
	}, nil
}

// BaseURL returns the backend root the client is bound to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Health reports the circuit breaker state for the current interval.
func (c *Client) Health() Health {
	cb := c.exec.CircuitBreaker()
	if cb == nil {
		return Health{Breaker: "disabled"}
	}
	counts := cb.Counts()
	return Health{
		Breaker:             cb.State().String(),
		BreakerName:         cb.Name(),
		Requests:            counts.Requests,
		ConsecutiveFailures: counts.ConsecutiveFailures,
	}
}

// CreateSession asks the backend for a new conversation session.
func (c *Client) CreateSession(ctx context.Context, workspace, mode string) (*Session, error) {
	body, _ := sjson.SetBytes([]byte(`{}`), "workspace", workspace)
	body, _ = sjson.SetBytes(body, "mode", mode)

	data, err := c.do(ctx, http.MethodPost, "/session", body)
	if err != nil {
		return nil, err
	}
	id := gjson.GetBytes(data, "id").String()
	if id == "" {
		return nil, fmt.Errorf("backend POST /session: response has no session id")
	}
	log.Debugf("backend session created: %s", id)
	return &Session{ID: id}, nil
}

// SendMessage posts one user turn to a session and waits for the reply.
func (c *Client) SendMessage(ctx context.Context, sessionID string, msg MessageRequest) (*Reply, error) {
	if sessionID == "" {
		return nil, errors.New("backend: empty session id")
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	data, err := c.do(ctx, http.MethodPost, "/session/"+sessionID+"/message", body)
	if err != nil {
		return nil, err
	}
	return parseReply(data)
}

// parseReply reads the parts and token info from a message reply.
func parseReply(data []byte) (*Reply, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("backend message reply is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	reply := &Reply{}
	root.Get("parts").ForEach(func(_, part gjson.Result) bool {
		reply.Parts = append(reply.Parts, Part{
			Type: part.Get("type").String(),
			Text: part.Get("text").String(),
		})
		return true
	})
	if total := root.Get("info.tokens.total"); total.Exists() {
		reply.Info = &ReplyInfo{Tokens: &TokenInfo{
			Total:     total.Int(),
			Input:     root.Get("info.tokens.input").Int(),
			Output:    root.Get("info.tokens.output").Int(),
			Reasoning: root.Get("info.tokens.reasoning").Int(),
		}}
	}
	return reply, nil
}

// Providers fetches the backend's provider catalog.
func (c *Client) Providers(ctx context.Context) ([]Provider, error) {
	data, err := c.do(ctx, http.MethodGet, "/provider", nil)
	if err != nil {
		return nil, err
	}
	return parseProviders(data)
}

// parseProviders accepts "all" as either an object keyed by provider id or
// an array of providers carrying their own id. Models follow the same rule.
func parseProviders(data []byte) ([]Provider, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("backend provider list is not valid JSON")
	}
	all := gjson.GetBytes(data, "all")
	if !all.Exists() {
		return nil, fmt.Errorf("backend provider list has no \"all\" field")
	}
	var providers []Provider
	all.ForEach(func(key, value gjson.Result) bool {
		id := value.Get("id").String()
		if id == "" {
			id = key.String()
		}
		if id == "" {
			return true
		}
		p := Provider{
			ID:     id,
			Name:   value.Get("name").String(),
			Source: value.Get("source").String(),
		}
		value.Get("models").ForEach(func(mkey, m gjson.Result) bool {
			mid := m.Get("id").String()
			if mid == "" {
				mid = mkey.String()
			}
			if mid == "" {
				return true
			}
			cost := m.Get("cost")
			p.Models = append(p.Models, ProviderModel{
				ID:          mid,
				Name:        m.Get("name").String(),
				InputCost:   cost.Get("input").Float(),
				OutputCost:  cost.Get("output").Float(),
				HasCostInfo: cost.Exists(),
			})
			return true
		})
		providers = append(providers, p)
		return true
	})
	return providers, nil
}

// do sends one request through the resilience executor and returns the
// decoded body of a 2xx response.
func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.exec.Execute(ctx, func() ([]byte, error) {
		return c.roundTrip(ctx, method, path, body)
	})
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	endpoint := c.baseURL.JoinPath(path)
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("build backend request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", acceptEncoding)
	if c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("backend %s %s: read body: %w", method, path, err)
	}
	log.WithFields(log.Fields{
		"method":  method,
		"path":    path,
		"status":  resp.StatusCode,
		"latency": time.Since(start).String(),
	}).Debug("backend call")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}
