package types

import (
	"fmt"
	"html"
	"strings"
)

// LinkType says what a link points at.
type LinkType string

// Link types. An empty LinkType means the link kind is unspecified.
const (
	LinkTypeInternal LinkType = "internal" // reference to a managed element
	LinkTypeDirect   LinkType = "direct"   // literal URL
	LinkTypeNone     LinkType = ""
)

// Owner identifies the record field a link value belongs to. It is context
// for editors only and never influences persistence.
type Owner struct {
	RecordID  string
	FieldName string
	Language  string
}

// IsZero reports whether the owner identifies no record.
func (o Owner) IsZero() bool {
	return o.RecordID == ""
}

// Link is the in-memory value of one link field instance.
type Link struct {
	// Path is the resolved display path. It is derived from the referenced
	// element or the direct URL and is not part of the stored blob.
	Path string

	// Text is the display label.
	Text string

	// LinkType is internal, direct or unspecified.
	LinkType LinkType

	// InternalType and Internal identify the referenced element when
	// LinkType is internal. Internal is zero when unset.
	InternalType ElementType
	Internal     int64

	// Direct is the literal URL when LinkType is direct.
	Direct string

	// Presentation attributes, carried opaquely.
	Title      string
	Class      string
	Target     string // target window, e.g. "_blank"
	AccessKey  string
	Rel        string
	TabIndex   string
	Parameters string
	Anchor     string

	owner *Owner
}

// IsEmpty reports whether none of text, path, direct or internal is set.
func (l *Link) IsEmpty() bool {
	return l.Text == "" && l.Path == "" && l.Direct == "" && l.Internal == 0
}

// HasInternalReference reports whether the link carries a usable element
// reference: a positive id and a known element type.
func (l *Link) HasInternalReference() bool {
	return l.Internal > 0 && l.InternalType != ElementTypeNone
}

// SetOwner attaches the editor back-reference. A zero owner detaches it.
func (l *Link) SetOwner(o Owner) {
	if o.IsZero() {
		l.owner = nil
		return
	}
	cp := o
	l.owner = &cp
}

// Owner returns the attached back-reference, if any.
func (l *Link) Owner() (Owner, bool) {
	if l.owner == nil {
		return Owner{}, false
	}
	return *l.owner, true
}

// ClearInternal drops the element reference, leaving the rest untouched.
func (l *Link) ClearInternal() {
	l.InternalType = ElementTypeNone
	l.Internal = 0
}

// Clone returns an independent copy of the link, owner included.
func (l *Link) Clone() *Link {
	cp := *l
	if l.owner != nil {
		o := *l.owner
		cp.owner = &o
	}
	return &cp
}

// Equal reports whether two links carry the same attributes. The owner
// back-reference is not compared.
func (l *Link) Equal(other *Link) bool {
	if l == nil || other == nil {
		return l == other
	}
	a, b := *l, *other
	a.owner, b.owner = nil, nil
	return a == b
}

// Href composes the path with the query parameters and anchor.
func (l *Link) Href() string {
	href := l.Path
	if params := strings.TrimPrefix(l.Parameters, "?"); params != "" {
		sep := "?"
		if strings.Contains(href, "?") {
			sep = "&"
		}
		href += sep + params
	}
	if anchor := strings.TrimPrefix(l.Anchor, "#"); anchor != "" {
		href += "#" + anchor
	}
	return href
}

// HTML renders the link as an anchor element. Empty attributes are omitted.
func (l *Link) HTML() string {
	var b strings.Builder
	b.WriteString("<a href=\"")
	b.WriteString(html.EscapeString(l.Href()))
	b.WriteString("\"")
	attrs := []struct{ name, value string }{
		{"title", l.Title},
		{"class", l.Class},
		{"target", l.Target},
		{"accesskey", l.AccessKey},
		{"rel", l.Rel},
		{"tabindex", l.TabIndex},
	}
	for _, a := range attrs {
		if a.value == "" {
			continue
		}
		fmt.Fprintf(&b, " %s=\"%s\"", a.name, html.EscapeString(a.value))
	}
	b.WriteString(">")
	text := l.Text
	if text == "" {
		text = l.Href()
	}
	b.WriteString(html.EscapeString(text))
	b.WriteString("</a>")
	return b.String()
}

// String returns the HTML form of the link.
func (l *Link) String() string {
	return l.HTML()
}
