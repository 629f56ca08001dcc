package hook

import "fmt"

// Map1 adapts a typed one-argument function into a Combinator.
//
//	info, _ := hook.Computed(s, hook.Map1(strconv.Itoa), "views")
//
// An absent value is passed as the zero value of A. A value of another type
// makes the combinator panic, which the binding reports as H052.
func Map1[A, R any](fn func(A) R) Combinator {
	return func(values ...any) any {
		return fn(arg[A](values, 0))
	}
}

// Map2 adapts a typed two-argument function, like Map1.
func Map2[A, B, R any](fn func(A, B) R) Combinator {
	return func(values ...any) any {
		return fn(arg[A](values, 0), arg[B](values, 1))
	}
}

// Map3 adapts a typed three-argument function, like Map1.
func Map3[A, B, C, R any](fn func(A, B, C) R) Combinator {
	return func(values ...any) any {
		return fn(arg[A](values, 0), arg[B](values, 1), arg[C](values, 2))
	}
}

func arg[T any](values []any, idx int) T {
	var zero T
	if idx >= len(values) {
		panic(fmt.Sprintf("combinator wants argument %d, got %d values", idx+1, len(values)))
	}
	if values[idx] == nil {
		return zero
	}
	v, ok := values[idx].(T)
	if !ok {
		panic(fmt.Sprintf("value %v (%T) is not a %T", values[idx], values[idx], zero))
	}
	return v
}
