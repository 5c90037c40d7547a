package blob

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/mesh-intelligence/datafields/pkg/types"
)

// payloadLink tags envelopes that carry a link value.
const (
	payloadLink    = "link"
	envelopeFormat = 1
)

// ErrNotLink is returned by Decode when the blob is well-formed but carries
// something other than a link.
var ErrNotLink = errors.New("blob does not hold a link")

// envelope is the outer storage record. Every attribute is written, empty
// ones included, so that decode(encode(v)) reproduces v.
type envelope struct {
	Type    string      `json:"type"`
	Version int         `json:"version"`
	Link    *linkRecord `json:"link"`
}

// linkRecord mirrors types.Link minus the derived path and the owner.
type linkRecord struct {
	Text         string `json:"text"`
	LinkType     string `json:"linktype"`
	InternalType string `json:"internalType"`
	Internal     int64  `json:"internal"`
	Direct       string `json:"direct"`
	Title        string `json:"title"`
	Class        string `json:"class"`
	Target       string `json:"target"`
	AccessKey    string `json:"accesskey"`
	Rel          string `json:"rel"`
	TabIndex     string `json:"tabindex"`
	Parameters   string `json:"parameters"`
	Anchor       string `json:"anchor"`
}

func toRecord(l *types.Link) *linkRecord {
	return &linkRecord{
		Text:         l.Text,
		LinkType:     string(l.LinkType),
		InternalType: string(l.InternalType),
		Internal:     l.Internal,
		Direct:       l.Direct,
		Title:        l.Title,
		Class:        l.Class,
		Target:       l.Target,
		AccessKey:    l.AccessKey,
		Rel:          l.Rel,
		TabIndex:     l.TabIndex,
		Parameters:   l.Parameters,
		Anchor:       l.Anchor,
	}
}

func (r *linkRecord) toLink() *types.Link {
	return &types.Link{
		Text:         r.Text,
		LinkType:     types.LinkType(r.LinkType),
		InternalType: types.ElementType(r.InternalType),
		Internal:     r.Internal,
		Direct:       r.Direct,
		Title:        r.Title,
		Class:        r.Class,
		Target:       r.Target,
		AccessKey:    r.AccessKey,
		Rel:          r.Rel,
		TabIndex:     r.TabIndex,
		Parameters:   r.Parameters,
		Anchor:       r.Anchor,
	}
}

// strings returns every text attribute of r keyed by its wire name.
func (r *linkRecord) strings() map[string]string {
	return map[string]string{
		"text":         r.Text,
		"linktype":     r.LinkType,
		"internalType": r.InternalType,
		"direct":       r.Direct,
		"title":        r.Title,
		"class":        r.Class,
		"target":       r.Target,
		"accesskey":    r.AccessKey,
		"rel":          r.Rel,
		"tabindex":     r.TabIndex,
		"parameters":   r.Parameters,
		"anchor":       r.Anchor,
	}
}

// Encode serializes l into a blob. The owner back-reference and the derived
// path are not written.
// Returns types.ErrInvalidData when an attribute is not valid UTF-8, which
// neither serializer reads back unchanged.
func Encode(s Serializer, l *types.Link) ([]byte, error) {
	if l == nil {
		return nil, nil
	}
	rec := toRecord(l)
	for key, v := range rec.strings() {
		if !utf8.ValidString(v) {
			return nil, fmt.Errorf("%w: %s is not valid UTF-8", types.ErrInvalidData, key)
		}
	}
	b, err := s.Marshal(envelope{Type: payloadLink, Version: envelopeFormat, Link: rec})
	if err != nil {
		return nil, fmt.Errorf("encoding link blob: %w", err)
	}
	return b, nil
}

// Decode parses a blob produced by Encode.
// Returns types.ErrInvalidBlob for undecodable bytes and ErrNotLink for a
// decodable envelope with another payload type.
func Decode(s Serializer, data []byte) (*types.Link, error) {
	var env envelope
	if err := s.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidBlob, err)
	}
	if env.Type != payloadLink || env.Link == nil {
		return nil, ErrNotLink
	}
	if env.Version > envelopeFormat {
		return nil, fmt.Errorf("%w: unsupported envelope version %d", types.ErrInvalidBlob, env.Version)
	}
	return env.Link.toLink(), nil
}
