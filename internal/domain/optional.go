package domain

// Optional distinguishes a field the caller left out from one the caller
// explicitly set, including explicitly set to nothing.
//
//	Optional[T]{}                       field omitted: keep the stored value
//	Optional[T]{Set: true}              explicitly cleared
//	Optional[T]{Set: true, Value: &v}   explicitly set to v
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some returns an Optional explicitly set to v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null returns an Optional explicitly cleared.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

// Or resolves the optional against the currently stored value.
func (o Optional[T]) Or(current *T) *T {
	if !o.Set {
		return current
	}
	return o.Value
}
