package collections

import (
	"math"
	"reflect"
)

// Identical reports whether two values are the same element. Comparable
// values compare by value with NaN equal to itself and +0/-0 distinguished;
// maps, slices, pointers, channels and functions compare by reference.
func Identical(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	av := reflect.ValueOf(a)
	bv := reflect.ValueOf(b)
	if av.Type() != bv.Type() {
		return false
	}
	switch av.Kind() {
	case reflect.Float32, reflect.Float64:
		return sameFloat(av.Float(), bv.Float())
	case reflect.Slice:
		if av.Len() != bv.Len() {
			return false
		}
		if av.Len() == 0 {
			return av.IsNil() == bv.IsNil()
		}
		return av.Pointer() == bv.Pointer()
	case reflect.Map, reflect.Func, reflect.Chan, reflect.Pointer, reflect.UnsafePointer:
		return av.Pointer() == bv.Pointer()
	default:
		if !av.Type().Comparable() {
			return false
		}
		return a == b
	}
}

func sameFloat(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	if a == 0 && b == 0 {
		return math.Signbit(a) == math.Signbit(b)
	}
	return a == b
}
