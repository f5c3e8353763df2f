package eval

import (
	"bytes"
	"fmt"
	"unsafe"

	"src.elv.sh/pkg/persistent/hash"
	"src.sylph.sh/pkg/diag"
	"src.sylph.sh/pkg/eval/vals"
)

// Exception represents a runtime error. It is both a value accessible to
// sylph code and the error type returned by (*Evaler).Eval: a reason plus a
// stack trace of source contexts.
type Exception struct {
	Reason    error
	Traceback *StackTrace
}

// StackTrace is a stack trace, represented as a linked list of diag.Context.
// The head is the innermost frame.
type StackTrace struct {
	Head *diag.Context
	Next *StackTrace
}

// Reason returns the Reason field if err is an *Exception, and err itself
// otherwise.
func Reason(err error) error {
	if exc, ok := err.(*Exception); ok {
		return exc.Reason
	}
	return err
}

// Error returns the message of the exception's reason.
func (exc *Exception) Error() string { return exc.Reason.Error() }

// Range returns the range of the innermost stack trace entry.
func (exc *Exception) Range() diag.Ranging {
	if exc.Traceback == nil {
		return diag.Ranging{From: -1, To: -1}
	}
	return exc.Traceback.Head.Range()
}

// Show shows the exception with its traceback.
func (exc *Exception) Show(indent string) string {
	buf := new(bytes.Buffer)

	var reasonDescription string
	if shower, ok := exc.Reason.(diag.Shower); ok {
		reasonDescription = shower.Show(indent)
	} else if exc.Reason == nil {
		reasonDescription = "ok"
	} else {
		reasonDescription = "\033[31;1m" + exc.Reason.Error() + "\033[m"
	}
	fmt.Fprintf(buf, "Exception: %s", reasonDescription)

	if exc.Traceback != nil {
		buf.WriteString("\n")
		if exc.Traceback.Next == nil {
			buf.WriteString(exc.Traceback.Head.ShowCompact(indent))
		} else {
			buf.WriteString(indent + "Traceback:")
			for tb := exc.Traceback; tb != nil; tb = tb.Next {
				buf.WriteString("\n" + indent + "  ")
				buf.WriteString(tb.Head.Show(indent + "    "))
			}
		}
	}
	return buf.String()
}

// Kind returns "error".
func (exc *Exception) Kind() string { return "error" }

// Repr returns a representation of the exception. It is lossy in that it
// does not preserve the traceback.
func (exc *Exception) Repr(indent int) string {
	if exc.Reason == nil {
		return "<ok>"
	}
	return "<error: " + exc.Reason.Error() + ">"
}

// Equal compares by identity.
func (exc *Exception) Equal(rhs any) bool { return exc == rhs }

// Hash returns the hash of the exception's address.
func (exc *Exception) Hash() uint32 {
	return hash.Pointer(unsafe.Pointer(exc))
}

// Bool returns whether the exception has a nil reason.
func (exc *Exception) Bool() bool { return exc.Reason == nil }

var _ vals.Kinder = (*Exception)(nil)

// Flow identifies a control flow signal.
type Flow uint

// Possible Flow values.
const (
	Return Flow = iota
	Break
	Continue
)

var flowNames = [...]string{"return", "break", "continue"}

func (f Flow) String() string {
	if int(f) < len(flowNames) {
		return flowNames[f]
	}
	return fmt.Sprintf("!(BAD FLOW: %d)", f)
}

// FlowError is a control flow signal: return, break or continue. It rides in
// the error channel so that it can unwind nested blocks, but it is not a
// failure: loops intercept Break and Continue, and command calls intercept
// Return. A FlowError that reaches a boundary that cannot handle it becomes
// a real error.
type FlowError struct {
	Flow Flow
	// Value is the value of an explicit return, nil otherwise.
	Value PipelineData
}

func (f *FlowError) Error() string {
	switch f.Flow {
	case Return:
		return "return used outside of a command"
	default:
		return f.Flow.String() + " used outside of a loop"
	}
}

// Show shows the flow signal.
func (f *FlowError) Show(string) string {
	return "\033[33;1m" + f.Flow.String() + "\033[m"
}
