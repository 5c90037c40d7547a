package linkfield

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/datafields/pkg/types"
)

// ErrMandatory is returned by Validate for an empty value of a mandatory
// field.
var ErrMandatory = errors.New("empty mandatory field")

// Validate checks that l's internal reference resolves. Only references of
// the codec's validated element types are checked. The mandatory check is
// skipped when omitMandatoryCheck is set.
// Returns a *types.ValidationError for a missing element.
func (c *Codec) Validate(l *types.Link, omitMandatoryCheck bool) error {
	if c.mandatory && !omitMandatoryCheck && (l == nil || l.IsEmpty()) {
		return fmt.Errorf("%w: %w", types.ErrValidation, ErrMandatory)
	}
	if l == nil || l.Internal <= 0 {
		return nil
	}
	if !c.validated[l.InternalType] {
		return nil
	}
	_, err := c.resolve(l)
	if errors.Is(err, types.ErrNotFound) {
		return &types.ValidationError{Type: l.InternalType, ID: l.Internal}
	}
	if err != nil {
		return fmt.Errorf("resolving %s: %w", types.ElementKey(l.InternalType, l.Internal), err)
	}
	return nil
}

// Sanitize validates l without failing: when the reference does not
// validate it returns a copy of l with the reference cleared and
// downgraded set. Otherwise l itself is returned.
func (c *Codec) Sanitize(l *types.Link) (result *types.Link, downgraded bool) {
	if l == nil {
		return nil, false
	}
	err := c.Validate(l, true)
	if err == nil {
		return l, false
	}
	c.logger.Debug("dropping invalid internal link reference",
		zap.String("internal_type", string(l.InternalType)),
		zap.Int64("internal", l.Internal),
		zap.Error(err),
	)
	out := l.Clone()
	out.ClearInternal()
	return out, true
}
