package usage

import "time"

// Source names the front end a request came through.
const (
	SourceHTTP  = "http"
	SourceStdio = "stdio"
)

// UsageRecord is one chat translation as persisted in the usage history.
type UsageRecord struct {
	Provider    string
	Model       string
	SessionID   string
	Source      string
	RequestedAt time.Time
	Latency     time.Duration
	Failed      bool
	// InputTokens and OutputTokens are the estimates returned to the client.
	InputTokens  int64
	OutputTokens int64
	// MeasuredTokens is the backend-reported total, 0 when absent.
	MeasuredTokens int64
}

// AggregatedStats summarises the history since a point in time.
type AggregatedStats struct {
	TotalRequests  int64 `json:"total_requests"`
	SuccessCount   int64 `json:"success_count"`
	FailureCount   int64 `json:"failure_count"`
	InputTokens    int64 `json:"input_tokens"`
	OutputTokens   int64 `json:"output_tokens"`
	MeasuredTokens int64 `json:"measured_tokens"`
}

// DailyStats represents aggregated metrics for a single day.
type DailyStats struct {
	Day      string `json:"day"` // Format: "2006-01-02"
	Requests int64  `json:"requests"`
	Tokens   int64  `json:"tokens"`
}

// ModelStats represents aggregated metrics per model.
type ModelStats struct {
	Model          string `json:"model"`
	Provider       string `json:"provider"`
	Requests       int64  `json:"requests"`
	FailureCount   int64  `json:"failure_count"`
	MeasuredTokens int64  `json:"measured_tokens"`
}

// Summary is the GET /api/usage payload.
type Summary struct {
	Since   time.Time        `json:"since"`
	Global  *AggregatedStats `json:"global"`
	ByDay   []DailyStats     `json:"by_day"`
	ByModel []ModelStats     `json:"by_model"`
}
