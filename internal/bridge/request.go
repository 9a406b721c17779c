package bridge

import (
	"fmt"
	"strings"

	"github.com/nghyane/oc-bridge/internal/json"
	"github.com/tidwall/gjson"
)

// Message is one entry of the inbound messages array.
type Message struct {
	Role    string  `json:"role"`
	Content Content `json:"content"`

	// raw keeps the entry exactly as received, extra fields included.
	raw string
}

func (m Message) MarshalJSON() ([]byte, error) {
	if m.raw != "" {
		return []byte(m.raw), nil
	}
	type plain Message
	return json.Marshal(plain(m))
}

// ChatRequest is the part of a /v1/messages body the bridge reads.
type ChatRequest struct {
	Messages []Message
	// HasMessages is false when the body carries no messages field at all.
	HasMessages bool
	// HasMaxTokens reports whether max_tokens was present.
	HasMaxTokens bool
	MaxTokens    int64
	Model        string
	// Source names the front end that produced the request.
	Source string
}

// CountOnly reports whether the request is a token-count request: messages
// present and max_tokens absent.
func (r *ChatRequest) CountOnly() bool {
	return r.HasMessages && !r.HasMaxTokens
}

// ParseChatRequest reads a Messages API body. A messages field that is not
// an array is treated as empty.
func ParseChatRequest(body []byte) (*ChatRequest, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: body is not valid JSON", ErrInvalidRequest)
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: body must be a JSON object", ErrInvalidRequest)
	}

	req := &ChatRequest{Model: root.Get("model").String()}

	if mt := root.Get("max_tokens"); mt.Exists() {
		req.HasMaxTokens = true
		req.MaxTokens = mt.Int()
	}

	msgs := root.Get("messages")
	if !msgs.Exists() {
		return req, nil
	}
	req.HasMessages = true
	req.Messages = parseMessages(msgs)
	return req, nil
}

func parseMessages(v gjson.Result) []Message {
	if !v.IsArray() {
		return []Message{}
	}
	out := make([]Message, 0, len(v.Array()))
	v.ForEach(func(_, elem gjson.Result) bool {
		out = append(out, Message{
			Role:    elem.Get("role").String(),
			Content: Content{raw: elem.Get("content").Raw},
			raw:     elem.Raw,
		})
		return true
	})
	return out
}

// serializeMessages renders the array compactly, the form input usage is
// measured on. Strings are re-encoded so an escaped "\u00e9" and a literal
// "é" count the same; object key order is kept as received.
func serializeMessages(messages []Message) string {
	var sb strings.Builder
	sb.WriteByte('[')
	n := 0
	for _, m := range messages {
		data, err := m.MarshalJSON()
		if err != nil || !gjson.ValidBytes(data) {
			continue
		}
		if n > 0 {
			sb.WriteByte(',')
		}
		writeCompact(&sb, gjson.ParseBytes(data))
		n++
	}
	sb.WriteByte(']')
	return sb.String()
}

func writeCompact(sb *strings.Builder, v gjson.Result) {
	switch {
	case v.IsObject():
		sb.WriteByte('{')
		first := true
		v.ForEach(func(key, value gjson.Result) bool {
			if !first {
				sb.WriteByte(',')
			}
			first = false
			writeString(sb, key.String())
			sb.WriteByte(':')
			writeCompact(sb, value)
			return true
		})
		sb.WriteByte('}')
	case v.IsArray():
		sb.WriteByte('[')
		first := true
		v.ForEach(func(_, value gjson.Result) bool {
			if !first {
				sb.WriteByte(',')
			}
			first = false
			writeCompact(sb, value)
			return true
		})
		sb.WriteByte(']')
	case v.Type == gjson.String:
		writeString(sb, v.String())
	default:
		sb.WriteString(strings.TrimSpace(v.Raw))
	}
}

func writeString(sb *strings.Builder, s string) {
	data, err := json.MarshalString(s)
	if err != nil {
		sb.WriteString(`""`)
		return
	}
	sb.Write(data)
}

// NewMessage builds a message from a role and plain text.
func NewMessage(role, text string) Message {
	return Message{Role: role, Content: NewTextContent(text)}
}
