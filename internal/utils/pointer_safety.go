// Package utils holds small generic helpers shared across packages.
package utils

// Value dereferences v, substituting the zero value for nil.
func Value[T any](v *T) T {
	if v == nil {
		return *new(T)
	}
	return *v
}

// Ptr returns a pointer to v, for populating optional request fields.
func Ptr[T any](v T) *T {
	return &v
}
