package vals

import (
	"strconv"

	"src.sylph.sh/pkg/eval/errs"
)

// Indexer wraps the Index method.
type Indexer interface {
	// Index retrieves the value corresponding to the specified key in the
	// container. It returns the value (if any) and whether it exists.
	Index(k any) (any, bool)
}

type noSuchKeyError struct {
	key any
}

// NoSuchKey returns an error indicating that a key is not found in a
// record-like value.
func NoSuchKey(k any) error {
	return noSuchKeyError{k}
}

func (err noSuchKeyError) Error() string {
	return "no such key: " + ReprPlain(err.key)
}

// Index indexes a value with the given key. Lists and strings index with
// ints (negative ints count from the end); records and types satisfying the
// Indexer interface index with their own keys. For other types it returns an
// error.
func Index(a, k any) (any, error) {
	switch a := a.(type) {
	case string:
		return indexString(a, k)
	case List:
		return indexList(a, k)
	case Indexer:
		v, ok := a.Index(k)
		if !ok {
			return nil, NoSuchKey(k)
		}
		return v, nil
	default:
		return nil, errs.TypeMismatch{What: "value being indexed",
			Valid: "list, record or string", Actual: Kind(a)}
	}
}

func indexList(l List, k any) (any, error) {
	i, ok := k.(int64)
	if !ok {
		return nil, errs.TypeMismatch{What: "list index",
			Valid: "int", Actual: Kind(k)}
	}
	j, err := normalizeIndex(i, int64(l.Len()), "list index")
	if err != nil {
		return nil, err
	}
	v, _ := l.Index(int(j))
	return v, nil
}

func indexString(s string, k any) (any, error) {
	i, ok := k.(int64)
	if !ok {
		return nil, errs.TypeMismatch{What: "string index",
			Valid: "int", Actual: Kind(k)}
	}
	rs := []rune(s)
	j, err := normalizeIndex(i, int64(len(rs)), "string index")
	if err != nil {
		return nil, err
	}
	return string(rs[j]), nil
}

// normalizeIndex resolves negative indices and checks bounds.
func normalizeIndex(i, n int64, what string) (int64, error) {
	j := i
	if j < 0 {
		j += n
	}
	if j < 0 || j >= n {
		return 0, errs.OutOfRange{What: what,
			ValidLow: 0, ValidHigh: n - 1, Actual: strconv.FormatInt(i, 10)}
	}
	return j, nil
}
