// Package linkfield implements the field codec of the "link" attribute type:
// conversion between the storage, query, editor, grid, CSV and web-service
// representations of a link, reference validation, dependency and cache
// tag extraction, and id remapping for migrations.
//
// A Codec holds configuration only. It is safe for concurrent use; the
// operations that must not touch the caller's value work on a clone.
package linkfield

import (
	"go.uber.org/zap"

	"github.com/mesh-intelligence/datafields/internal/blob"
	"github.com/mesh-intelligence/datafields/pkg/types"
)

// Codec converts link values between representations.
type Codec struct {
	resolver   types.Resolver
	serializer blob.Serializer
	validated  map[types.ElementType]bool
	mandatory  bool
	logger     *zap.Logger
}

// Option configures a Codec.
type Option func(*Codec)

// WithSerializer selects the blob serializer. The default is JSON.
func WithSerializer(s blob.Serializer) Option {
	return func(c *Codec) { c.serializer = s }
}

// WithValidatedTypes sets the element types whose references Validate
// checks against the resolver. The default is document and asset;
// references of other types pass unchecked.
func WithValidatedTypes(ts ...types.ElementType) Option {
	return func(c *Codec) {
		c.validated = make(map[types.ElementType]bool, len(ts))
		for _, t := range ts {
			c.validated[t] = true
		}
	}
}

// WithMandatory marks the field as mandatory: Validate rejects empty values
// unless the mandatory check is omitted.
func WithMandatory(mandatory bool) Option {
	return func(c *Codec) { c.mandatory = mandatory }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Codec) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a codec that resolves references through r. A nil resolver
// resolves nothing.
func New(r types.Resolver, opts ...Option) *Codec {
	if r == nil {
		r = nothingResolver{}
	}
	c := &Codec{
		resolver:   r,
		serializer: blob.JSON(),
		logger:     zap.NewNop(),
	}
	WithValidatedTypes(types.ElementTypeDocument, types.ElementTypeAsset)(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig creates a codec with the blob format and validated types
// taken from cfg.
func NewFromConfig(r types.Resolver, cfg types.Config, logger *zap.Logger) (*Codec, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s, err := blob.ForFormat(cfg.GetBlobFormat())
	if err != nil {
		return nil, err
	}
	return New(r,
		WithSerializer(s),
		WithValidatedTypes(cfg.GetValidateTypes()...),
		WithLogger(logger),
	), nil
}

// Descriptor returns the storage layout of the link field type.
func (c *Codec) Descriptor() types.FieldDescriptor {
	return types.LinkFieldDescriptor
}

// DisplayPath derives the path shown for l: the referenced element's full
// path for resolvable internal links, the URL for direct links, and the
// stored path otherwise.
func (c *Codec) DisplayPath(l *types.Link) string {
	if l == nil {
		return ""
	}
	switch l.LinkType {
	case types.LinkTypeInternal:
		if l.HasInternalReference() {
			if el, err := c.resolver.Resolve(l.InternalType, l.Internal); err == nil {
				return el.FullPath()
			}
		}
	case types.LinkTypeDirect:
		if l.Direct != "" {
			return l.Direct
		}
	}
	return l.Path
}

// resolve looks up the element l references.
func (c *Codec) resolve(l *types.Link) (types.Element, error) {
	return c.resolver.Resolve(l.InternalType, l.Internal)
}

type nothingResolver struct{}

func (nothingResolver) Resolve(types.ElementType, int64) (types.Element, error) {
	return nil, types.ErrNotFound
}
