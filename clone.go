package drafts

import (
	"reflect"

	"github.com/goliatone/go-drafts/collections"
)

// deepClone returns an independent copy of v preserving kind and struct
// type. Drafts are resolved to their current snapshot first so a held clone
// cannot feed back into a live draft tree. Opaque values pass through.
func deepClone(v any) any {
	if d, ok := v.(*Draft); ok {
		return deepClone(currentValue(d))
	}
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for key, value := range val {
			out[key] = deepClone(value)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, value := range val {
			out[i] = deepClone(value)
		}
		return out
	case *collections.Map:
		out := collections.NewMap()
		val.Range(func(key, value any) bool {
			_ = out.Set(key, deepClone(value))
			return true
		})
		return out
	case *collections.Set:
		out := collections.NewSet()
		val.Range(func(value any) bool {
			_ = out.Add(deepClone(value))
			return true
		})
		return out
	}
	if isTaggedStruct(v) {
		return reflectClone(reflect.ValueOf(v)).Interface()
	}
	return v
}

// reflectClone recursively duplicates a value through reflection.
func reflectClone(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.New(v.Type().Elem())
		clone.Elem().Set(reflectClone(v.Elem()))
		return clone
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		elem := reflectClone(v.Elem())
		if !elem.IsValid() {
			return reflect.Zero(v.Type())
		}
		return elem.Convert(v.Type())
	case reflect.Struct:
		clone := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			field := clone.Field(i)
			if !field.CanSet() {
				continue
			}
			field.Set(reflectClone(v.Field(i)))
		}
		return clone
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			clone.SetMapIndex(iter.Key(), reflectClone(iter.Value()))
		}
		return clone
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(reflectClone(v.Index(i)))
		}
		return clone
	case reflect.Array:
		clone := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(reflectClone(v.Index(i)))
		}
		return clone
	default:
		return reflect.ValueOf(v.Interface())
	}
}
