package blob

import (
	json "github.com/goccy/go-json"
)

type jsonSerializer struct{}

// JSON returns the JSON serializer. Struct fields are emitted in declaration
// order, which keeps the output stable.
func JSON() Serializer { return jsonSerializer{} }

func (jsonSerializer) Name() string                       { return "json" }
func (jsonSerializer) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonSerializer) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
