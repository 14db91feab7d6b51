package reactive

import (
	"math"
	"reflect"
)

// SameValue reports whether a write of b over a is a no-op.
//
// Floats, including named float types, follow same-value rules: NaN
// equals NaN, and +0 differs from -0. Other comparable values use ==, so
// pointers compare by identity. Slices, maps and funcs fall back to
// reflect.DeepEqual.
//
// The float rules apply only when T itself is a float. Floats nested in
// structs, arrays or interfaces compare with == (or DeepEqual), where NaN
// never equals itself and -0 equals +0. Use WithEquals for such types.
func SameValue[T any](a, b T) bool {
	ai, bi := any(a), any(b)

	switch av := ai.(type) {
	case float64:
		bv, ok := bi.(float64)
		return ok && sameFloat(av, bv)
	case float32:
		bv, ok := bi.(float32)
		return ok && sameFloat(float64(av), float64(bv))
	}

	if ai == nil || bi == nil {
		return ai == nil && bi == nil
	}
	ta := reflect.TypeOf(ai)
	if ta != reflect.TypeOf(bi) {
		return false
	}
	switch ta.Kind() {
	case reflect.Float32, reflect.Float64:
		return sameFloat(reflect.ValueOf(ai).Float(), reflect.ValueOf(bi).Float())
	}
	if ta.Comparable() {
		return comparableEqual(ai, bi)
	}
	return reflect.DeepEqual(ai, bi)
}

func sameFloat(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	if a == 0 && b == 0 {
		return math.Signbit(a) == math.Signbit(b)
	}
	return a == b
}

// comparableEqual compares with ==, which panics when a comparable type
// holds a non-comparable dynamic value in an interface field.
func comparableEqual(a, b any) (equal bool) {
	defer func() {
		if recover() != nil {
			equal = reflect.DeepEqual(a, b)
		}
	}()
	return a == b
}
