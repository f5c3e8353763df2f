package evaltest

import (
	"fmt"
	"reflect"
	"strings"

	"src.sylph.sh/pkg/eval"
	"src.sylph.sh/pkg/parse"
)

type errorMatcher interface{ matchError(error) bool }

// parseError matches a parse error whose constituent messages are exactly
// the given ones, in source order.
type parseError struct {
	msgs []string
}

func (e parseError) Error() string {
	return fmt.Sprintf("parse errors with messages: %v", e.msgs)
}

func (e parseError) matchError(e2 error) bool {
	errs := parse.UnpackErrors(e2)
	if len(e.msgs) != len(errs) {
		return false
	}
	for i, msg := range e.msgs {
		if msg != errs[i].Message {
			return false
		}
	}
	return true
}

// AnyParseError can be passed to Case.DoesNotParse or Case.Throws to match
// any parse error.
var AnyParseError anyParseError

type anyParseError struct{}

func (anyParseError) Error() string           { return "any parse error" }
func (anyParseError) matchError(e error) bool { return parse.UnpackErrors(e) != nil }

// AnyError can be passed to Case.Throws to match any exception, regardless
// of its reason.
var AnyError anyError

type anyError struct{}

func (anyError) Error() string           { return "any error" }
func (anyError) matchError(e error) bool { return e != nil }

// exc matches an exception by reason and optionally by stack trace.
type exc struct {
	reason error
	stacks []string
}

func (e exc) Error() string {
	if len(e.stacks) == 0 {
		return fmt.Sprintf("exception with reason %v", e.reason)
	}
	return fmt.Sprintf("exception with reason %v and stacks %v", e.reason, e.stacks)
}

func (e exc) matchError(e2 error) bool {
	if e2, ok := e2.(*eval.Exception); ok {
		return matchErr(e.reason, e2.Reason) &&
			(len(e.stacks) == 0 ||
				reflect.DeepEqual(e.stacks, stackTexts(e2.Traceback)))
	}
	// Errors surfacing at the end of a stream, like an external command's
	// exit status, carry no traceback.
	return len(e.stacks) == 0 && matchErr(e.reason, e2)
}

// ErrorWithType returns an error that can be passed to Case.Throws to match
// any error with the same type as the argument.
func ErrorWithType(v error) error { return errWithType{v} }

type errWithType struct{ v error }

func (e errWithType) Error() string { return fmt.Sprintf("error with type %T", e.v) }

func (e errWithType) matchError(e2 error) bool {
	return reflect.TypeOf(e.v) == reflect.TypeOf(e2)
}

// ErrorWithMessage returns an error that can be passed to Case.Throws to
// match any error with the given message.
func ErrorWithMessage(msg string) error { return errWithMessage{msg} }

type errWithMessage struct{ msg string }

func (e errWithMessage) Error() string { return "error with message " + e.msg }

func (e errWithMessage) matchError(e2 error) bool {
	return e2 != nil && e.msg == e2.Error()
}

// ErrorWithMessageContaining returns an error that can be passed to
// Case.Throws to match any error whose message contains the given text.
func ErrorWithMessageContaining(msg string) error { return errWithMessageContaining{msg} }

type errWithMessageContaining struct{ msg string }

func (e errWithMessageContaining) Error() string {
	return "error with message containing " + e.msg
}

func (e errWithMessageContaining) matchError(e2 error) bool {
	return e2 != nil && strings.Contains(e2.Error(), e.msg)
}

// CmdExit returns an error that can be passed to Case.Throws to match an
// eval.ExternalCmdExit, ignoring the Pid field whose value cannot be known
// in advance.
func CmdExit(v eval.ExternalCmdExit) error { return errCmdExit{v} }

type errCmdExit struct{ v eval.ExternalCmdExit }

func (e errCmdExit) Error() string { return e.v.Error() }

func (e errCmdExit) matchError(gotErr error) bool {
	ge, ok := gotErr.(eval.ExternalCmdExit)
	if !ok {
		return false
	}
	return e.v.CmdName == ge.CmdName && e.v.Status == ge.Status &&
		e.v.Signal == ge.Signal
}

// OneOfErrors returns an error that can be passed to Case.Throws to match
// any of the given errors.
func OneOfErrors(errs ...error) error { return errOneOf{errs} }

type errOneOf struct{ errs []error }

func (e errOneOf) Error() string { return fmt.Sprint("one of ", e.errs) }

func (e errOneOf) matchError(gotError error) bool {
	for _, want := range e.errs {
		if matchErr(want, gotError) {
			return true
		}
	}
	return false
}
