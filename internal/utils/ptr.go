package utils

func Ptr[T any](v T) *T {
	return &v
}

// OrZero dereferences v, or returns the zero value when v is nil.
func OrZero[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}

// Is reports whether v is set and equal to want.
func Is[T comparable](v *T, want T) bool {
	return v != nil && *v == want
}
