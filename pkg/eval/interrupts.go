package eval

import "errors"

// ErrInterrupted is thrown when the evaluation is interrupted.
var ErrInterrupted = errors.New("interrupted")
