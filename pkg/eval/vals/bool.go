package vals

// Booler wraps the Bool method.
type Booler interface {
	// Bool computes the truth value of the receiver.
	Bool() bool
}

// Bool converts a value to bool. Only null and false are false; everything
// else is true, unless the value defines its own truth through the Booler
// interface.
func Bool(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case Booler:
		return v.Bool()
	}
	return true
}
