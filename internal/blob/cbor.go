package blob

import (
	cbor "github.com/fxamacker/cbor/v2"
)

type cborSerializer struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// CBOR returns a canonical CBOR serializer (RFC 8949 core deterministic
// encoding).
func CBOR() (Serializer, error) {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, err
	}
	dm, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		return nil, err
	}
	return cborSerializer{enc: em, dec: dm}, nil
}

func (c cborSerializer) Name() string                       { return "cbor" }
func (c cborSerializer) Marshal(v any) ([]byte, error)      { return c.enc.Marshal(v) }
func (c cborSerializer) Unmarshal(data []byte, v any) error { return c.dec.Unmarshal(data, v) }
