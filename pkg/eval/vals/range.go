package vals

import (
	"src.elv.sh/pkg/persistent/hash"
)

// Range is a numeric range: From..To, possibly exclusive of To, possibly
// unbounded upwards. Iteration is lazy; an unbounded range iterates until the
// consumer stops.
type Range struct {
	From      int64
	To        int64
	Exclusive bool
	Unbounded bool
}

// Kind returns "range".
func (*Range) Kind() string { return "range" }

// Equal compares all fields.
func (r *Range) Equal(other any) bool {
	q, ok := other.(*Range)
	return ok && *r == *q
}

// Hash returns the hash of the range.
func (r *Range) Hash() uint32 {
	h := hash.DJB(hash.UInt64(uint64(r.From)), hash.UInt64(uint64(r.To)))
	if r.Exclusive {
		h = hash.DJBCombine(h, 1)
	}
	if r.Unbounded {
		h = hash.DJBCombine(h, 2)
	}
	return h
}

// Repr returns the range literal syntax.
func (r *Range) Repr(int) string {
	from := Repr(r.From, NoPretty)
	if r.Unbounded {
		return from + ".."
	}
	op := ".."
	if r.Exclusive {
		op = "..<"
	}
	return from + op + Repr(r.To, NoPretty)
}

// Iterate iterates the range lazily. The step is 1 for ascending and -1 for
// descending bounded ranges; unbounded ranges ascend.
func (r *Range) Iterate(f func(any) bool) {
	if r.Unbounded {
		for i := r.From; ; i++ {
			if !f(i) {
				return
			}
			if i+1 < i {
				return
			}
		}
	}
	if r.From <= r.To {
		end := r.To
		if r.Exclusive {
			end--
		}
		for i := r.From; i <= end; i++ {
			if !f(i) {
				return
			}
		}
	} else {
		end := r.To
		if r.Exclusive {
			end++
		}
		for i := r.From; i >= end; i-- {
			if !f(i) {
				return
			}
		}
	}
}

// Len returns the number of elements, or -1 for an unbounded range.
func (r *Range) Len() int {
	if r.Unbounded {
		return -1
	}
	n := r.To - r.From
	if n < 0 {
		n = -n
	}
	if !r.Exclusive {
		n++
	} else if n == 0 {
		return 0
	}
	return int(n)
}
