package eval

import (
	"bufio"
	"io"
	"strings"

	"src.sylph.sh/pkg/diag"
	"src.sylph.sh/pkg/eval/errs"
	"src.sylph.sh/pkg/eval/vals"
	"src.sylph.sh/pkg/strutil"
)

// PipelineData is the data flowing between two pipeline stages: either a
// single materialized value, or a lazy stream of values or bytes. Streams are
// destructive: draining one consumes it, and it cannot be restarted. The
// explicit variants let a stage test what it received without forcing a
// stream.
type PipelineData interface {
	// Close releases any resources held by the data without draining it.
	// Closing a stream backed by an external process terminates the process.
	Close() error

	pipelineData()
}

// Empty is the PipelineData of a stage with no input or no output.
var Empty PipelineData = emptyData{}

type emptyData struct{}

func (emptyData) pipelineData() {}

// Close does nothing.
func (emptyData) Close() error { return nil }

// Value is a single materialized value.
type Value struct {
	V any
}

func (Value) pipelineData() {}

// Close does nothing: a materialized value holds no resources.
func (Value) Close() error { return nil }

// ListStream is a lazily produced sequence of values, possibly infinite.
type ListStream struct {
	pull    func() (any, bool, error)
	onClose func() error
	done    bool
}

// NewListStream creates a ListStream from a pull function and an optional
// close function. The pull function returns the next value, whether a value
// was produced, and an error; returning (nil, false, nil) ends the stream.
func NewListStream(pull func() (any, bool, error), onClose func() error) *ListStream {
	return &ListStream{pull: pull, onClose: onClose}
}

// ListStreamOf creates a ListStream over the given values.
func ListStreamOf(vs ...any) *ListStream {
	i := 0
	return NewListStream(func() (any, bool, error) {
		if i >= len(vs) {
			return nil, false, nil
		}
		v := vs[i]
		i++
		return v, true, nil
	}, nil)
}

func (s *ListStream) pipelineData() {}

// Next pulls the next value. After the stream ends or is closed, it reports
// errs.ReaderGone.
func (s *ListStream) Next() (any, bool, error) {
	if s.done {
		return nil, false, errs.ReaderGone{}
	}
	v, ok, err := s.pull()
	if !ok {
		s.done = true
		if closeErr := s.close(); err == nil {
			err = closeErr
		}
	}
	return v, ok, err
}

// Close stops the stream early, releasing its resources.
func (s *ListStream) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	return s.close()
}

func (s *ListStream) close() error {
	if s.onClose == nil {
		return nil
	}
	f := s.onClose
	s.onClose = nil
	return f()
}

// ByteStream is a lazily read stream of bytes, typically the output of an
// external process. Reading is consumer-paced; the producing process is
// never buffered beyond the OS pipe.
type ByteStream struct {
	r  io.Reader
	br *bufio.Reader
	// wait reaps the producing process once the stream ends, returning its
	// exit status as an error. Nil for streams not backed by a process.
	wait func() error
	// kill terminates the producing process when the stream is closed before
	// its end. Nil for streams not backed by a process.
	kill func()
	// span is the source range of the producer, for provenance.
	span diag.Ranging

	done bool
	err  error
}

// NewByteStream creates a ByteStream over a reader. The wait and kill
// functions may be nil.
func NewByteStream(r io.Reader, wait func() error, kill func(), span diag.Ranging) *ByteStream {
	return &ByteStream{r: r, br: bufio.NewReader(r), wait: wait, kill: kill, span: span}
}

func (s *ByteStream) pipelineData() {}

// Span returns the source range of the stream's producer.
func (s *ByteStream) Span() diag.Ranging { return s.span }

// ReadLine reads the next line, without the trailing newline. At the end of
// the stream it returns io.EOF, after surfacing the producer's exit status
// (if any) exactly once as the error.
func (s *ByteStream) ReadLine() (string, error) {
	if s.done {
		return "", errs.ReaderGone{}
	}
	line, err := s.br.ReadString('\n')
	if err == nil {
		return strutil.ChopLineEnding(line), nil
	}
	if err == io.EOF && line != "" {
		return line, nil
	}
	s.done = true
	if err == io.EOF {
		if exitErr := s.reap(); exitErr != nil {
			return "", exitErr
		}
	}
	return "", err
}

// ReadAll drains the rest of the stream. The producer's exit status (if any)
// is returned as the error, with the bytes read so far still returned.
func (s *ByteStream) ReadAll() ([]byte, error) {
	if s.done {
		return nil, errs.ReaderGone{}
	}
	b, err := io.ReadAll(s.br)
	s.done = true
	if err == nil {
		err = s.reap()
	}
	return b, err
}

// Close stops the stream early. A producing process is terminated and reaped
// without surfacing its exit status: the consumer chose to stop, so the exit
// status is not an error.
func (s *ByteStream) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	if s.kill != nil {
		s.kill()
	}
	if s.wait != nil {
		s.wait()
	}
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *ByteStream) reap() error {
	if s.wait == nil {
		return nil
	}
	w := s.wait
	s.wait = nil
	s.kill = nil
	return w()
}

// Collect materializes pipeline data into a single value: nil for Empty, the
// value itself for Value, a list for ListStream, and a string (with one
// trailing newline chopped) for ByteStream. The producer's end-of-stream
// error, if any, is returned alongside the values collected before it.
func Collect(pd PipelineData) (any, error) {
	switch pd := pd.(type) {
	case emptyData:
		return nil, nil
	case Value:
		return pd.V, nil
	case *ListStream:
		l := vals.EmptyList
		for {
			v, ok, err := pd.Next()
			if err != nil {
				return l, err
			}
			if !ok {
				return l, nil
			}
			l = l.Conj(v)
		}
	case *ByteStream:
		b, err := pd.ReadAll()
		return strutil.ChopLineEnding(string(b)), err
	default:
		return nil, errs.BadValue{What: "pipeline data",
			Valid: "value or stream", Actual: "unknown"}
	}
}

// Elements iterates the elements of pipeline data: nothing for Empty, the
// value's elements for an iterable Value (one element for a scalar), the
// stream's values for ListStream, and lines for ByteStream. The function can
// return false to stop early; stopping closes the stream.
func Elements(pd PipelineData, f func(any) bool) error {
	switch pd := pd.(type) {
	case emptyData:
		return nil
	case Value:
		if vals.CanIterate(pd.V) {
			if _, isString := pd.V.(string); !isString {
				return vals.Iterate(pd.V, f)
			}
		}
		if pd.V != nil {
			f(pd.V)
		}
		return nil
	case *ListStream:
		for {
			v, ok, err := pd.Next()
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			if !f(v) {
				return pd.Close()
			}
		}
	case *ByteStream:
		for {
			line, err := pd.ReadLine()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			if !f(line) {
				return pd.Close()
			}
		}
	default:
		return errs.BadValue{What: "pipeline data",
			Valid: "value or stream", Actual: "unknown"}
	}
}

// reader exposes pipeline data as a byte stream for an external command's
// standard input. Values serialize to their plain-text form, with list
// elements and stream values newline-joined. A ByteStream is returned
// as-is so the caller can splice the underlying pipe directly.
func reader(pd PipelineData) io.Reader {
	switch pd := pd.(type) {
	case emptyData:
		return nil
	case Value:
		s := vals.ToString(pd.V)
		if s == "" {
			return nil
		}
		return strings.NewReader(s + "\n")
	case *ListStream:
		return &listStreamReader{s: pd}
	case *ByteStream:
		return pd
	default:
		return nil
	}
}

// Read implements io.Reader. The producer's exit status surfaces as the
// error of the read that hits the end of the stream.
func (s *ByteStream) Read(p []byte) (int, error) {
	if s.done {
		return 0, io.EOF
	}
	n, err := s.br.Read(p)
	if err == io.EOF {
		s.done = true
		if exitErr := s.reap(); exitErr != nil {
			return n, exitErr
		}
	}
	return n, err
}

type listStreamReader struct {
	s   *ListStream
	buf []byte
}

func (r *listStreamReader) Read(p []byte) (int, error) {
	for len(r.buf) == 0 {
		v, ok, err := r.s.Next()
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, io.EOF
		}
		r.buf = append([]byte(vals.ToString(v)), '\n')
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}
