package pdfclean

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind classifies a failure.
type ErrorKind string

const (
	KindInput      ErrorKind = "input"
	KindExtraction ErrorKind = "extraction"
	KindRender     ErrorKind = "render"
	KindConfig     ErrorKind = "config"
	KindOutput     ErrorKind = "output"
)

// Error is a failure with a kind and, for input failures, the offending path.
type Error struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Cause lets errors.Cause walk through an *Error.
func (e *Error) Cause() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func wrapError(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

func inputError(path string, err error) error {
	return &Error{Kind: KindInput, Path: path, Err: err}
}

func configError(format string, args ...any) error {
	return &Error{Kind: KindConfig, Err: errors.Errorf(format, args...)}
}
