package linkfield

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/datafields/pkg/types"
)

func TestToCSV(t *testing.T) {
	c := New(nil)

	cell, err := c.ToCSV(nil)
	require.NoError(t, err)
	assert.Equal(t, "", cell)

	// CSV export is a raw snapshot: a dangling reference is kept.
	in := internalLink(types.ElementTypeDocument, 404)
	cell, err = c.ToCSV(in)
	require.NoError(t, err)
	out, err := c.FromCSV(cell)
	require.NoError(t, err)
	assert.True(t, in.Equal(out))

	_, err = c.ToCSV(&types.Link{Title: "\xc3\x28"})
	assert.ErrorIs(t, err, types.ErrInvalidData)
}

func TestFromCSV(t *testing.T) {
	c := New(nil)

	tests := []struct {
		name    string
		cell    string
		wantNil bool
		wantErr bool
	}{
		{name: "empty", cell: "", wantNil: true},
		{name: "blank", cell: "   ", wantNil: true},
		{name: "other payload", cell: base64.StdEncoding.EncodeToString([]byte(`{"type":"image","version":1}`)), wantNil: true},
		{name: "not base64", cell: "a", wantErr: true},
		{name: "base64 of garbage", cell: base64.StdEncoding.EncodeToString([]byte("garbage")), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.FromCSV(tt.cell)
			if tt.wantErr {
				require.Error(t, err)
				var terr *types.TransportError
				assert.True(t, errors.As(err, &terr))
				assert.True(t, errors.Is(err, types.ErrInvalidData))
				assert.Contains(t, err.Error(), "cannot get values from CSV import")
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, got)
			}
		})
	}
}
