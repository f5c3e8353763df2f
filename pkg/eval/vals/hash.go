package vals

import (
	"math"
	"time"
	"unsafe"

	"src.elv.sh/pkg/persistent/hash"
)

// Hasher wraps the Hash method.
type Hasher interface {
	// Hash computes the hash code of the receiver.
	Hash() uint32
}

// Hash returns the 32-bit hash of a value. It is implemented for the builtin
// types listed in the package doc and for types satisfying the Hasher
// interface. For other types it returns 0 (a valid hash code, only a slow
// one).
//
// The hash of two Equal values is always the same.
func Hash(v any) uint32 {
	switch v := v.(type) {
	case nil:
		return 0
	case bool:
		if v {
			return 1
		}
		return 0
	case int64:
		return hash.UInt64(uint64(v))
	case float64:
		return hash.UInt64(math.Float64bits(v))
	case string:
		return hash.String(v)
	case []byte:
		h := hash.DJBInit
		for _, b := range v {
			h = hash.DJBCombine(h, uint32(b))
		}
		return h
	case time.Time:
		return hash.UInt64(uint64(v.UnixNano()))
	case time.Duration:
		return hash.UInt64(uint64(v))
	case Filesize:
		return hash.UInt64(uint64(v))
	case List:
		h := hash.DJBInit
		for it := v.Iterator(); it.HasElem(); it.Next() {
			h = hash.DJBCombine(h, Hash(it.Elem()))
		}
		return h
	case Hasher:
		return v.Hash()
	default:
		return 0
	}
}

// PointerHash hashes the identity of a pointer, for values that compare by
// identity.
func PointerHash[T any](p *T) uint32 {
	return hash.Pointer(unsafe.Pointer(p))
}
