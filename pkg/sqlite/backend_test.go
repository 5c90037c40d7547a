package sqlite_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/datafields/pkg/sqlite"
	"github.com/mesh-intelligence/datafields/pkg/types"
)

func TestNewBackend(t *testing.T) {
	b := sqlite.NewBackend(nil)
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	defer b.Detach()

	elements, err := b.Elements()
	require.NoError(t, err)
	require.NoError(t, elements.Set(&types.ElementRecord{Type: types.ElementTypeAsset, ID: 7, Path: "/img/logo.png"}))

	var resolver types.Resolver = elements
	el, err := resolver.Resolve(types.ElementTypeAsset, 7)
	require.NoError(t, err)
	assert.Equal(t, "/img/logo.png", el.FullPath())
}
