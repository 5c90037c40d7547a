package linkfield

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/datafields/pkg/types"
)

func TestValidate(t *testing.T) {
	c, _ := newTestCodec(t)

	tests := []struct {
		name    string
		link    *types.Link
		wantErr string
	}{
		{"nil", nil, ""},
		{"no internal id", &types.Link{Text: "x"}, ""},
		{"existing document", internalLink(types.ElementTypeDocument, 42), ""},
		{"existing asset", internalLink(types.ElementTypeAsset, 7), ""},
		{"missing document", internalLink(types.ElementTypeDocument, 5), "invalid internal link, referenced document with id [5] does not exist"},
		{"missing asset", internalLink(types.ElementTypeAsset, 8), "invalid internal link, referenced asset with id [8] does not exist"},
		{"object is not checked", internalLink(types.ElementTypeObject, 404), ""},
		{"id without type is not checked", &types.Link{Internal: 5}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Validate(tt.link, false)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.EqualError(t, err, tt.wantErr)
			assert.True(t, errors.Is(err, types.ErrValidation))
		})
	}
}

func TestValidateConfiguredTypes(t *testing.T) {
	c, _ := newTestCodec(t, WithValidatedTypes(types.ElementTypeObject))

	assert.NoError(t, c.Validate(internalLink(types.ElementTypeDocument, 5), false), "document checks were turned off")
	assert.NoError(t, c.Validate(internalLink(types.ElementTypeObject, 3), false))

	err := c.Validate(internalLink(types.ElementTypeObject, 4), false)
	var verr *types.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, types.ElementTypeObject, verr.Type)
	assert.Equal(t, int64(4), verr.ID)
}

func TestValidateMandatory(t *testing.T) {
	c, _ := newTestCodec(t, WithMandatory(true))

	err := c.Validate(nil, false)
	assert.True(t, errors.Is(err, ErrMandatory))
	assert.True(t, errors.Is(err, types.ErrValidation))

	assert.NoError(t, c.Validate(nil, true), "mandatory check omitted")
	assert.NoError(t, c.Validate(&types.Link{Text: "x"}, false))
}

func TestValidateResolverFailure(t *testing.T) {
	c := New(failingResolver{err: errors.New("database is locked")})

	err := c.Validate(internalLink(types.ElementTypeDocument, 42), false)
	require.Error(t, err)
	assert.False(t, errors.Is(err, types.ErrValidation))
	assert.Contains(t, err.Error(), "document_42")

	out, downgraded := c.Sanitize(internalLink(types.ElementTypeDocument, 42))
	assert.True(t, downgraded, "any validation failure downgrades")
	assert.Zero(t, out.Internal)
}

func TestSanitize(t *testing.T) {
	c, _ := newTestCodec(t)

	out, downgraded := c.Sanitize(nil)
	assert.Nil(t, out)
	assert.False(t, downgraded)

	valid := internalLink(types.ElementTypeDocument, 42)
	out, downgraded = c.Sanitize(valid)
	assert.False(t, downgraded)
	assert.Same(t, valid, out)

	dangling := internalLink(types.ElementTypeAsset, 99)
	out, downgraded = c.Sanitize(dangling)
	assert.True(t, downgraded)
	assert.Equal(t, types.ElementTypeNone, out.InternalType)
	assert.Zero(t, out.Internal)
	assert.Equal(t, types.LinkTypeInternal, out.LinkType)
	assert.Equal(t, int64(99), dangling.Internal, "input is not modified")
}
