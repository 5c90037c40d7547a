package linkfield

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/mesh-intelligence/datafields/pkg/types"
)

// ToEditorForm returns the attributes of l as a flat map for the editor,
// with the derived display path filled in. Returns nil for a nil link.
func (c *Codec) ToEditorForm(l *types.Link) map[string]any {
	if l == nil {
		return nil
	}
	form := fieldMap(l)
	form[keyPath] = c.DisplayPath(l)
	return form
}

// ToGrid is ToEditorForm for grid cells.
func (c *Codec) ToGrid(l *types.Link) map[string]any {
	return c.ToEditorForm(l)
}

// FromEditorForm builds a link from a submitted editor form. Keys that name
// no link attribute are ignored. Returns nil if the submitted link is empty.
func (c *Codec) FromEditorForm(form map[string]any) (*types.Link, error) {
	l := &types.Link{}
	for _, key := range slices.Sorted(maps.Keys(form)) {
		err := assignField(l, key, form[key])
		if errors.Is(err, types.ErrUnknownField) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("editor form: %w", err)
		}
	}
	if l.IsEmpty() {
		return nil, nil
	}
	return l, nil
}

// FromGridEditor is FromEditorForm for grid edits.
func (c *Codec) FromGridEditor(form map[string]any) (*types.Link, error) {
	return c.FromEditorForm(form)
}

// VersionPreview renders l for the version history.
func (c *Codec) VersionPreview(l *types.Link) string {
	if l == nil {
		return ""
	}
	cp := l.Clone()
	cp.Path = c.DisplayPath(l)
	return cp.HTML()
}

// DiffPreview returns the text shown when comparing versions: the link
// text, else the direct URL. ok is false when neither is set.
func (c *Codec) DiffPreview(l *types.Link) (preview string, ok bool) {
	if l == nil {
		return "", false
	}
	if l.Text != "" {
		return l.Text, true
	}
	if l.Direct != "" {
		return l.Direct, true
	}
	return "", false
}

// IsDiffChangeAllowed reports whether the field may be edited in the
// version comparison view. Always true for links.
func (c *Codec) IsDiffChangeAllowed() bool {
	return true
}

// SearchIndex returns the text indexed for full-text search.
func (c *Codec) SearchIndex(l *types.Link) string {
	if l == nil {
		return ""
	}
	return l.Text
}
