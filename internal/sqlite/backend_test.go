package sqlite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/datafields/internal/linkfield"
	"github.com/mesh-intelligence/datafields/pkg/types"
)

func testConfig(dir string) types.Config {
	return types.Config{Backend: types.BackendSQLite, DataDir: dir}
}

// attachTest attaches a backend to dir and detaches it at cleanup.
func attachTest(t *testing.T, dir string) *Backend {
	t.Helper()
	b := NewBackend()
	require.NoError(t, b.Attach(testConfig(dir)))
	t.Cleanup(func() { _ = b.Detach() })
	return b
}

// stores returns the element store and an object store whose codec
// validates against it.
func stores(t *testing.T, b *Backend, opts ...linkfield.Option) (*ElementStore, *RecordStore) {
	t.Helper()
	elements, err := b.Elements()
	require.NoError(t, err)
	records, err := b.Records(linkfield.New(elements, opts...))
	require.NoError(t, err)
	return elements, records
}

func TestBackendAttach(t *testing.T) {
	dir := t.TempDir()
	b := NewBackend()
	require.NoError(t, b.Attach(testConfig(dir)))
	defer b.Detach()

	for _, name := range []string{dbFileName, elementsJSONL, recordLinksJSONL} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
	info, err := os.Stat(filepath.Join(dir, elementsJSONL))
	require.NoError(t, err)
	assert.Zero(t, info.Size())

	assert.ErrorIs(t, b.Attach(testConfig(dir)), types.ErrAlreadyAttached)
	assert.Equal(t, dir, b.Config().DataDir)
}

func TestBackendAttachCreatesDataDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	attachTest(t, dir)
	assert.DirExists(t, dir)
}

func TestBackendAttachInvalidConfig(t *testing.T) {
	b := NewBackend()
	assert.ErrorIs(t, b.Attach(types.Config{}), types.ErrBackendEmpty)
	assert.ErrorIs(t, b.Attach(types.Config{Backend: "postgres"}), types.ErrBackendUnknown)
}

func TestBackendDetach(t *testing.T) {
	b := NewBackend()
	require.NoError(t, b.Attach(testConfig(t.TempDir())))
	elements, err := b.Elements()
	require.NoError(t, err)

	require.NoError(t, b.Detach())
	require.NoError(t, b.Detach(), "detach is idempotent")

	_, err = b.Elements()
	assert.ErrorIs(t, err, types.ErrDetached)
	_, err = b.Records(linkfield.New(nil))
	assert.ErrorIs(t, err, types.ErrDetached)

	_, err = elements.Get(types.ElementTypeDocument, 1)
	assert.ErrorIs(t, err, types.ErrDetached)
	assert.ErrorIs(t, elements.Set(&types.ElementRecord{Type: types.ElementTypeDocument, ID: 1, Path: "/"}), types.ErrDetached)
}

func TestBackendReattachRebuildsFromJSONL(t *testing.T) {
	dir := t.TempDir()

	b := NewBackend()
	require.NoError(t, b.Attach(testConfig(dir)))
	elements, records := stores(t, b)
	require.NoError(t, elements.Set(&types.ElementRecord{Type: types.ElementTypeDocument, ID: 42, Path: "/en/home"}))
	owner, err := records.SaveLink(types.Owner{FieldName: "cta"}, &types.Link{
		Text: "Home", LinkType: types.LinkTypeInternal, InternalType: types.ElementTypeDocument, Internal: 42,
	})
	require.NoError(t, err)
	require.NoError(t, b.Detach())

	b = attachTest(t, dir)
	_, records = stores(t, b)
	l, err := records.LoadLink(owner)
	require.NoError(t, err)
	assert.Equal(t, int64(42), l.Internal)
	assert.Equal(t, types.ElementTypeDocument, l.InternalType)
}
