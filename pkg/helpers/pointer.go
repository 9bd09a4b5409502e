package helpers

// ToPtr returns a pointer to a copy of v.
func ToPtr[T any](v T) *T {
	return &v
}

// Deref returns the pointed-to value, or def when p is nil.
func Deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
