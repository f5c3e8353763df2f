package vals

// Lener wraps the Len method.
type Lener interface {
	// Len computes the length of the receiver.
	Len() int
}

// Len returns the length of the value, or -1 if the value does not have a
// well-defined length. It is implemented for strings (in bytes), binary
// data, and types satisfying the Lener interface (lists and records do).
func Len(v any) int {
	switch v := v.(type) {
	case string:
		return len(v)
	case []byte:
		return len(v)
	case Lener:
		return v.Len()
	}
	return -1
}
