package bridge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nghyane/oc-bridge/internal/backend"
	log "github.com/nghyane/oc-bridge/internal/logging"
	"github.com/nghyane/oc-bridge/internal/registry"
	"github.com/nghyane/oc-bridge/internal/usage"
)

// Backend is everything the translator needs from the agent server.
type Backend interface {
	SessionCreator
	MessageSender
	registry.CatalogSource
}

// TextBlock is a content block of a Messages API response.
type TextBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Usage is the token usage block of a Messages API response.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// MessageResponse is the Messages API envelope returned for a chat call.
type MessageResponse struct {
	ID           string      `json:"id"`
	Type         string      `json:"type"`
	Role         string      `json:"role"`
	Content      []TextBlock `json:"content"`
	Model        string      `json:"model"`
	StopReason   string      `json:"stop_reason"`
	StopSequence *string     `json:"stop_sequence"`
	Usage        Usage       `json:"usage"`
}

// CountResult answers a token-count request.
type CountResult struct {
	Tokens int `json:"tokens"`
}

// ChatResult is either a count-only answer or a full message.
type ChatResult struct {
	Count   *CountResult
	Message *MessageResponse
}

// Status is the dashboard summary.
type Status struct {
	CurrentModel    string `json:"currentModel"`
	TotalRequests   int64  `json:"totalRequests"`
	TotalTokensUsed int64  `json:"totalTokensUsed"`
	SessionID       string `json:"sessionId"`
}

const (
	sessionActive   = "active"
	sessionInactive = "inactive"
)

// Translator is the entry point shared by the HTTP and stdio front ends.
type Translator struct {
	state   *BridgeState
	backend Backend
	relay   *Relay
	models  *registry.ModelRegistry
	counter Counter
}

// NewTranslator wires the façade. A nil counter selects the heuristic.
func NewTranslator(state *BridgeState, be Backend, models *registry.ModelRegistry, counter Counter) *Translator {
	if counter == nil {
		counter = HeuristicCounter{}
	}
	return &Translator{
		state:   state,
		backend: be,
		relay:   NewRelay(be),
		models:  models,
		counter: counter,
	}
}

// State exposes the shared bridge state.
func (t *Translator) State() *BridgeState {
	return t.state
}

// HandleChat serves a /v1/messages call. Count-only requests never touch the
// session or the backend.
func (t *Translator) HandleChat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	if req.CountOnly() {
		res := t.HandleCountTokens(req)
		return &ChatResult{Count: &res}, nil
	}
	if !req.HasMessages {
		return nil, fmt.Errorf("%w: messages is required", ErrInvalidRequest)
	}

	model := t.state.CurrentModel()
	started := time.Now()
	record := usage.UsageRecord{
		Model:       model,
		Provider:    providerOf(model),
		Source:      req.Source,
		RequestedAt: started,
	}

	sessionID, err := t.state.Sessions.Ensure(ctx)
	if err != nil {
		record.Latency = time.Since(started)
		t.state.Usage.Failure(record)
		return nil, err
	}
	record.SessionID = sessionID

	res, err := t.relay.Relay(ctx, sessionID, model, req.Messages)
	record.Latency = time.Since(started)
	if err != nil {
		t.state.Usage.Failure(record)
		return nil, err
	}

	input := t.counter.Count(serializeMessages(req.Messages))
	output := t.counter.Count(res.Text)

	record.InputTokens = int64(input)
	record.OutputTokens = int64(output)
	record.MeasuredTokens = res.Tokens
	t.state.Usage.Success(record)

	if res.Forwarded {
		log.WithFields(log.Fields{
			"session":  sessionID,
			"model":    model,
			"tokens":   res.Tokens,
			"duration": record.Latency.String(),
		}).Debug("chat relayed")
	}

	return &ChatResult{Message: &MessageResponse{
		ID:         "msg_" + uuid.NewString(),
		Type:       "message",
		Role:       "assistant",
		Content:    []TextBlock{{Type: "text", Text: res.Text}},
		Model:      model,
		StopReason: "end_turn",
		Usage: Usage{
			InputTokens:  input,
			OutputTokens: output,
		},
	}}, nil
}

// HandleCountTokens sums the estimate over each message's extracted text.
func (t *Translator) HandleCountTokens(req *ChatRequest) CountResult {
	return CountResult{Tokens: CountMessageTokens(t.counter, req.Messages)}
}

// SelectModel switches the current model and drops the held session.
// Unknown ids leave all state untouched.
func (t *Translator) SelectModel(id string) error {
	if !t.models.Has(id) {
		return fmt.Errorf("%w: %s", ErrUnknownModel, id)
	}
	t.state.setCurrentModel(id)
	t.state.Sessions.Invalidate()
	log.Infof("model selected: %s", id)
	return nil
}

// ResetSession replaces the held session with a freshly created one.
func (t *Translator) ResetSession(ctx context.Context) (string, error) {
	id, err := t.state.Sessions.Reset(ctx)
	if err != nil {
		return "", err
	}
	log.Infof("session reset: %s", id)
	return id, nil
}

// ResetStats zeroes the request and token counters.
func (t *Translator) ResetStats() {
	t.state.Usage.Counters().Reset()
}

// Status reports the current model, counters and whether a session is held.
func (t *Translator) Status() Status {
	snap := t.state.Usage.Counters().Snapshot()
	session := sessionInactive
	if t.state.Sessions.Active() {
		session = sessionActive
	}
	return Status{
		CurrentModel:    t.state.CurrentModel(),
		TotalRequests:   snap.TotalRequests,
		TotalTokensUsed: snap.TotalTokensUsed,
		SessionID:       session,
	}
}

// CurrentModel returns the selected model id.
func (t *Translator) CurrentModel() string {
	return t.state.CurrentModel()
}

// Models lists the registry contents.
func (t *Translator) Models() []registry.Model {
	return t.models.List()
}

// Providers lists the provider ids in the registry, sorted.
func (t *Translator) Providers() []string {
	return t.models.Providers()
}

// ModelsByProvider lists one provider's models.
func (t *Translator) ModelsByProvider(providerID string) []registry.Model {
	return t.models.ByProvider(providerID)
}

// BackendHealth reports the backend client's health when the backend
// exposes it.
func (t *Translator) BackendHealth() (backend.Health, bool) {
	hr, ok := t.backend.(interface{ Health() backend.Health })
	if !ok {
		return backend.Health{}, false
	}
	return hr.Health(), true
}

// ModelsUpdatedAt reports when the registry was last replaced.
func (t *Translator) ModelsUpdatedAt() time.Time {
	return t.models.UpdatedAt()
}

// RefreshModels reloads the registry from the backend catalog.
func (t *Translator) RefreshModels(ctx context.Context) error {
	return t.models.Refresh(ctx, t.backend)
}

// Usage returns the persisted usage summary since since.
func (t *Translator) Usage(ctx context.Context, since time.Time) (*usage.Summary, error) {
	return t.state.Usage.Summary(ctx, since)
}

func providerOf(model string) string {
	provider, _, found := strings.Cut(model, "/")
	if !found {
		return ""
	}
	return provider
}
