// Package bridge translates Anthropic Messages requests into calls against an
// opencode-style agent backend: it extracts text from message content, holds
// the single backend session, relays the newest user turn and reshapes the
// reply.
package bridge

import (
	"strings"

	"github.com/nghyane/oc-bridge/internal/json"
	"github.com/tidwall/gjson"
)

// Content is a message content value as received: a plain string, an array
// of strings and typed parts, or anything else. The raw JSON is kept so the
// message list can be re-serialized unchanged.
type Content struct {
	raw string
}

// NewTextContent returns Content holding a single JSON string.
func NewTextContent(text string) Content {
	raw, _ := json.Marshal(text)
	return Content{raw: string(raw)}
}

// ContentFromRaw wraps an already-encoded JSON value.
func ContentFromRaw(raw string) Content {
	return Content{raw: raw}
}

// Raw returns the JSON the content was decoded from.
func (c Content) Raw() string {
	return c.raw
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.raw == "" {
		return []byte("null"), nil
	}
	return []byte(c.raw), nil
}

func (c *Content) UnmarshalJSON(data []byte) error {
	c.raw = string(data)
	return nil
}

// ExtractText flattens content into plain text. Strings are returned as is.
// Arrays concatenate their string elements and the text field of their
// object elements, in order and without separator. Every other shape yields "".
func ExtractText(c Content) string {
	v := gjson.Parse(c.raw)
	switch {
	case v.Type == gjson.String:
		return v.String()
	case v.IsArray():
		var sb strings.Builder
		v.ForEach(func(_, elem gjson.Result) bool {
			sb.WriteString(partText(elem))
			return true
		})
		return sb.String()
	default:
		return ""
	}
}

func partText(elem gjson.Result) string {
	switch {
	case elem.Type == gjson.String:
		return elem.String()
	case elem.IsObject():
		if t := elem.Get("text"); t.Type == gjson.String {
			return t.String()
		}
	}
	return ""
}
