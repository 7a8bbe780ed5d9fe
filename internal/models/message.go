package models

import (
	"bytes"
	"encoding/json"
)

// SampleInputText is analyzed when a request carries no input at all.
const SampleInputText = "sample input"

// Context is the client-maintained conversation state. Values stay raw so
// keys the relay does not own are passed on byte for byte.
type Context map[string]json.RawMessage

// Clone returns a shallow copy that is safe to add keys to.
func (c Context) Clone() Context {
	out := make(Context, len(c)+3)
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Has reports whether key is present with a non-null value.
func (c Context) Has(key string) bool {
	v, ok := c[key]
	return ok && !isNull(v)
}

// Decode unmarshals the value at key into dst. It reports false when the key
// is absent, null, or does not fit dst.
func (c Context) Decode(key string, dst interface{}) bool {
	if !c.Has(key) {
		return false
	}
	return json.Unmarshal(c[key], dst) == nil
}

// Set marshals value under key.
func (c Context) Set(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c[key] = raw
	return nil
}

// MessageRequest is the body of POST /api/message. Input may be any JSON
// value; it is forwarded untouched.
type MessageRequest struct {
	Input   json.RawMessage `json:"input,omitempty"`
	Context Context         `json:"context,omitempty"`
}

// HasInput reports whether the client sent an input that is not null, false,
// zero or the empty string.
func (r *MessageRequest) HasInput() bool {
	return len(r.Input) > 0 && !isFalsy(r.Input)
}

// AnalyzerText is the text sent to the analyzer: SampleInputText when no input
// was sent, otherwise input.text. A missing or non-string text, or an input
// that is not an object, yields the empty string.
func (r *MessageRequest) AnalyzerText() string {
	if !r.HasInput() {
		return SampleInputText
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(r.Input, &fields); err != nil {
		return ""
	}
	var text string
	if err := json.Unmarshal(fields["text"], &text); err != nil {
		return ""
	}
	return text
}

// DialogInput is the input forwarded to the dialog engine, {} when absent.
func (r *MessageRequest) DialogInput() json.RawMessage {
	if !r.HasInput() {
		return json.RawMessage(`{}`)
	}
	return r.Input
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func isFalsy(raw json.RawMessage) bool {
	switch v := bytes.TrimSpace(raw); {
	case isNull(v), bytes.Equal(v, []byte("false")), bytes.Equal(v, []byte(`""`)):
		return true
	case len(v) > 0 && (v[0] == '-' || (v[0] >= '0' && v[0] <= '9')):
		var n float64
		return json.Unmarshal(v, &n) == nil && n == 0
	}
	return false
}
