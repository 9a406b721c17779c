// Package json is the single JSON codec used across oc-bridge.
// It wraps bytedance/sonic with the standard-library compatible configuration
// so call sites read exactly like encoding/json.
package json

import (
	"io"

	"github.com/bytedance/sonic"
)

var (
	api = sonic.ConfigStd
	// raw leaves <, > and & alone.
	raw = sonic.ConfigDefault
)

// Marshal returns the JSON encoding of v.
func Marshal(v any) ([]byte, error) {
	return api.Marshal(v)
}

// MarshalString encodes s as a JSON string without HTML escaping.
func MarshalString(s string) ([]byte, error) {
	return raw.Marshal(s)
}

// MarshalIndent is like Marshal but applies indentation.
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return api.MarshalIndent(v, prefix, indent)
}

// Unmarshal parses JSON-encoded data into v.
func Unmarshal(data []byte, v any) error {
	return api.Unmarshal(data, v)
}

// Valid reports whether data is a valid JSON encoding.
func Valid(data []byte) bool {
	return api.Valid(data)
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader) sonic.Decoder {
	return api.NewDecoder(r)
}

// NewEncoder returns an encoder writing to w.
func NewEncoder(w io.Writer) sonic.Encoder {
	return api.NewEncoder(w)
}
