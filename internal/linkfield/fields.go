package linkfield

import (
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/mesh-intelligence/datafields/pkg/types"
)

// Wire keys of the editor form and the web-service mapping.
const (
	keyText         = "text"
	keyPath         = "path"
	keyLinkType     = "linktype"
	keyInternalType = "internalType"
	keyInternal     = "internal"
	keyDirect       = "direct"
	keyTarget       = "target"
	keyTitle        = "title"
	keyClass        = "class"
	keyAccessKey    = "accesskey"
	keyRel          = "rel"
	keyTabIndex     = "tabindex"
	keyParameters   = "parameters"
	keyAnchor       = "anchor"
)

// number matches decoded JSON number literals (json.Number of either the
// standard library or go-json).
type number interface {
	String() string
	Int64() (int64, error)
	Float64() (float64, error)
}

// fieldKeys lists every assignable attribute in export order.
var fieldKeys = []string{
	keyText, keyPath, keyLinkType, keyInternalType, keyInternal, keyDirect,
	keyTarget, keyTitle, keyClass, keyAccessKey, keyRel, keyTabIndex,
	keyParameters, keyAnchor,
}

// fieldMap returns every attribute of l keyed by its wire name.
func fieldMap(l *types.Link) map[string]any {
	return map[string]any{
		keyText:         l.Text,
		keyPath:         l.Path,
		keyLinkType:     string(l.LinkType),
		keyInternalType: string(l.InternalType),
		keyInternal:     l.Internal,
		keyDirect:       l.Direct,
		keyTarget:       l.Target,
		keyTitle:        l.Title,
		keyClass:        l.Class,
		keyAccessKey:    l.AccessKey,
		keyRel:          l.Rel,
		keyTabIndex:     l.TabIndex,
		keyParameters:   l.Parameters,
		keyAnchor:       l.Anchor,
	}
}

// assignField sets the attribute named key.
// Returns types.ErrUnknownField for keys that name no attribute.
func assignField(l *types.Link, key string, v any) error {
	switch key {
	case keyText:
		return setString(&l.Text, key, v)
	case keyPath:
		return setString(&l.Path, key, v)
	case keyLinkType:
		var s string
		if err := setString(&s, key, v); err != nil {
			return err
		}
		lt := types.LinkType(s)
		if lt != types.LinkTypeInternal && lt != types.LinkTypeDirect && lt != types.LinkTypeNone {
			return fmt.Errorf("%w: %s %q", types.ErrInvalidData, key, s)
		}
		l.LinkType = lt
		return nil
	case keyInternalType:
		var s string
		if err := setString(&s, key, v); err != nil {
			return err
		}
		if s == "" {
			l.InternalType = types.ElementTypeNone
			return nil
		}
		t, err := types.ParseElementType(s)
		if err != nil {
			return err
		}
		l.InternalType = t
		return nil
	case keyInternal:
		id, err := toInt64(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", types.ErrTypeMismatch, key, err)
		}
		if id < 0 {
			return fmt.Errorf("%w: %s must not be negative", types.ErrInvalidData, key)
		}
		l.Internal = id
		return nil
	case keyDirect:
		return setString(&l.Direct, key, v)
	case keyTarget:
		return setString(&l.Target, key, v)
	case keyTitle:
		return setString(&l.Title, key, v)
	case keyClass:
		return setString(&l.Class, key, v)
	case keyAccessKey:
		return setString(&l.AccessKey, key, v)
	case keyRel:
		return setString(&l.Rel, key, v)
	case keyTabIndex:
		return setString(&l.TabIndex, key, v)
	case keyParameters:
		return setString(&l.Parameters, key, v)
	case keyAnchor:
		return setString(&l.Anchor, key, v)
	default:
		return types.ErrUnknownField
	}
}

func setString(dst *string, key string, v any) error {
	s, err := toString(v)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", types.ErrTypeMismatch, key, err)
	}
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: %s is not valid UTF-8", types.ErrInvalidData, key)
	}
	*dst = s
	return nil
}

// toString accepts strings and numbers; numbers come through when editors
// post numeric attributes such as tabindex.
func toString(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case number:
		return x.String(), nil
	case int:
		return strconv.Itoa(x), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("want string, got %T", v)
	}
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint32:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows int64", x)
		}
		return int64(x), nil
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("%v is not an integer", x)
		}
		return int64(x), nil
	case number:
		return x.Int64()
	case string:
		if x == "" {
			return 0, nil
		}
		return strconv.ParseInt(x, 10, 64)
	default:
		return 0, fmt.Errorf("want integer, got %T", v)
	}
}

// isBlank reports whether an input value counts as absent: nil, the empty
// string, "0", zero numbers, false and empty collections.
func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == "" || x == "0"
	case bool:
		return !x
	case number:
		f, err := x.Float64()
		return err == nil && f == 0
	case map[string]any:
		return len(x) == 0
	case []any:
		return len(x) == 0
	}
	n, err := toInt64(v)
	return err == nil && n == 0
}
