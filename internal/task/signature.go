package task

import "encoding/json"

// Signature identifies which handler to run and with what arguments.
// It is never stored separately; it lives inside a Task's Payload
// (spec §3).
type Signature struct {
	Name   string                 `json:"name"`
	Args   []any                  `json:"args"`
	Kwargs map[string]interface{} `json:"kwargs"`
}

// NewSignature builds a Signature, defaulting nil Args/Kwargs to empty
// collections so callers never have to guard against a nil map.
func NewSignature(name string, args []any, kwargs map[string]interface{}) Signature {
	if args == nil {
		args = []any{}
	}
	if kwargs == nil {
		kwargs = map[string]interface{}{}
	}
	return Signature{Name: name, Args: args, Kwargs: kwargs}
}

// ToBytes serializes the signature, the canonical Task.Payload contents.
func (s Signature) ToBytes() ([]byte, error) {
	return json.Marshal(s)
}

// SignatureFromBytes deserializes a Signature out of a Task's Payload.
func SignatureFromBytes(data []byte) (Signature, error) {
	var s Signature
	if err := json.Unmarshal(data, &s); err != nil {
		return Signature{}, err
	}
	return s, nil
}
