package parse

// Source describes a piece of source code.
type Source struct {
	Name   string
	Code   string
	IsFile bool
}

// SourceForTest returns a Source used by tests.
func SourceForTest(code string) Source {
	return Source{Name: "[test]", Code: code}
}
