package vals

// Filesize is a size in bytes. It is a distinct kind from int: filesizes add
// and subtract with each other and multiply with ints, and render in the
// largest unit that divides them exactly.
type Filesize int64
