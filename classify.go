package drafts

import (
	"reflect"

	"github.com/goliatone/go-drafts/collections"
)

// KindOf classifies a value into one of the draftable kinds. Drafts classify
// as the kind of their base value.
func KindOf(v any) Kind {
	switch val := v.(type) {
	case nil:
		return KindOpaque
	case map[string]any:
		return KindRecord
	case []any:
		return KindSequence
	case *collections.Map:
		if val == nil {
			return KindOpaque
		}
		return KindMap
	case *collections.Set:
		if val == nil {
			return KindOpaque
		}
		return KindSet
	case *Draft:
		if val == nil || val.s == nil {
			return KindOpaque
		}
		return val.s.kind
	}
	if isTaggedStruct(v) {
		return KindRecord
	}
	return KindOpaque
}

// IsDraftable reports whether a value can be wrapped in a draft.
func IsDraftable(v any) bool {
	return KindOf(v) != KindOpaque
}

// isTaggedStruct reports whether v is a non-nil pointer to a struct whose
// type carries the Draftable marker.
func isTaggedStruct(v any) bool {
	if _, ok := v.(Draftable); !ok {
		return false
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Elem().Kind() == reflect.Struct
}

// isContainerShaped reports whether v looks like a container even though it
// failed the draftable check. Produce rejects such bases instead of running
// the recipe on them directly.
func isContainerShaped(v any) bool {
	if v == nil {
		return false
	}
	t := reflect.TypeOf(v)
	switch t.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return true
	case reflect.Pointer:
		return t.Elem().Kind() == reflect.Struct
	default:
		return false
	}
}

// shallowCopy produces a same-kind mutable one-level copy of a draftable
// value. The mode only affects struct records.
func shallowCopy(v any, mode CopyMode) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for key, value := range val {
			out[key] = value
		}
		return out
	case []any:
		out := make([]any, len(val))
		copy(out, val)
		return out
	case *collections.Map:
		return val.Clone()
	case *collections.Set:
		return val.Clone()
	}
	return copyStructRecord(v, mode)
}

// copyStructRecord duplicates a tagged struct pointer. In strict modes the
// copy goes field by field so computed fields materialize once, read through
// the base and never through a draft; types may take over entirely via
// ShallowCopier.
func copyStructRecord(v any, mode CopyMode) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return v
	}
	if mode != CopyModeNever {
		if copier, ok := v.(ShallowCopier); ok {
			return copier.ShallowCopy()
		}
	}
	clone := reflect.New(rv.Elem().Type())
	if mode == CopyModeNever {
		clone.Elem().Set(rv.Elem())
		return clone.Interface()
	}
	src := rv.Elem()
	dst := clone.Elem()
	for i := 0; i < src.NumField(); i++ {
		field := dst.Field(i)
		if field.CanSet() {
			field.Set(src.Field(i))
		}
	}
	return clone.Interface()
}
