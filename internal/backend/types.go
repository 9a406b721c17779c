package backend

// ModeAgent is the session mode the bridge always requests.
const ModeAgent = "agent"

// Session is the backend's reply to session creation.
type Session struct {
	ID string `json:"id"`
}

// MessageRequest is one user turn sent into a session.
type MessageRequest struct {
	Parts      []Part `json:"parts"`
	ProviderID string `json:"providerID,omitempty"`
	ModelID    string `json:"modelID,omitempty"`
}

// Part is a single reply or request part. Only text parts carry Text.
type Part struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Reply is the backend's structured answer to a message.
type Reply struct {
	Parts []Part     `json:"parts"`
	Info  *ReplyInfo `json:"info,omitempty"`
}

// ReplyInfo carries the measured token usage when the backend reports it.
type ReplyInfo struct {
	Tokens *TokenInfo `json:"tokens,omitempty"`
}

// TokenInfo mirrors the backend's token block.
type TokenInfo struct {
	Total     int64 `json:"total"`
	Input     int64 `json:"input,omitempty"`
	Output    int64 `json:"output,omitempty"`
	Reasoning int64 `json:"reasoning,omitempty"`
}

// Provider is one entry of the backend's provider catalog.
type Provider struct {
	ID     string
	Name   string
	Source string
	Models []ProviderModel
}

// ProviderModel is a model offered by a provider.
type ProviderModel struct {
	ID          string
	Name        string
	InputCost   float64
	OutputCost  float64
	HasCostInfo bool
}

// Health describes the client's view of the backend. Breaker is "disabled"
// when no circuit breaker is configured, otherwise the gobreaker state.
type Health struct {
	Breaker             string `json:"breaker"`
	BreakerName         string `json:"breakerName,omitempty"`
	Requests            uint32 `json:"requests"`
	ConsecutiveFailures uint32 `json:"consecutiveFailures"`
}
