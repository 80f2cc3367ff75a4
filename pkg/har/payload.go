package har

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Payload holds a response body in exactly one of two forms: the raw text as
// captured, or the structured JSON it decodes to.
type Payload struct {
	raw     string
	decoded json.RawMessage
}

// Raw wraps captured text that has not been decoded yet.
func Raw(text string) Payload {
	return Payload{raw: text}
}

// DecodedJSON wraps an already decoded JSON value. data must be valid JSON.
func DecodedJSON(data []byte) Payload {
	cp := make(json.RawMessage, len(data))
	copy(cp, data)
	return Payload{decoded: cp}
}

func (p Payload) IsDecoded() bool {
	return p.decoded != nil
}

// Text returns the raw text. It is empty for decoded payloads.
func (p Payload) Text() string {
	return p.raw
}

// JSON returns the decoded value, or nil when the payload is still raw.
func (p Payload) JSON() json.RawMessage {
	return p.decoded
}

func (p Payload) String() string {
	if p.IsDecoded() {
		return string(p.decoded)
	}
	return p.raw
}

func (p Payload) MarshalJSON() ([]byte, error) {
	if p.IsDecoded() {
		return p.decoded, nil
	}
	return json.Marshal(p.raw)
}

// UnmarshalJSON maps a JSON string to the raw form and any other value to
// the decoded form. null is treated as empty raw text.
func (p *Payload) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		*p = Payload{}
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return fmt.Errorf("har: response text: %w", err)
		}
		*p = Raw(s)
	default:
		*p = DecodedJSON(trimmed)
	}
	return nil
}
