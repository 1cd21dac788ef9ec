package engine

import (
	"errors"
	"fmt"
)

// Kind classifies configuration errors by what the caller can do about them.
type Kind int

const (
	// KindIO is a document that could not be read. Retrying may succeed.
	KindIO Kind = iota + 1
	// KindCritical is a document that was read but could not be turned into
	// a configuration tree. The enclosing operation should stop.
	KindCritical
	// KindMustExist is a required value that is missing or empty.
	KindMustExist
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindCritical:
		return "critical"
	case KindMustExist:
		return "must-exist"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

var (
	// ErrIO matches every KindIO error.
	ErrIO = errors.New("configuration I/O error")

	// ErrCritical matches every KindCritical error.
	ErrCritical = errors.New("critical configuration error")

	// ErrMustExist matches every KindMustExist error.
	ErrMustExist = errors.New("required configuration value is missing")
)

const criticalHint = "check the configuration files for indentation mistakes or duplicated keys"

// Error is returned by Reload and by accessors called with mustExist.
type Error struct {
	Kind Kind
	// Path is the document path for KindIO and KindCritical and the dotted
	// configuration path for KindMustExist.
	Path string
	Hint string
	Err  error
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindIO:
		msg = fmt.Sprintf("%s: %s", ErrIO, e.Path)
	case KindCritical:
		msg = ErrCritical.Error()
		if e.Path != "" {
			msg += ": " + e.Path
		}
	case KindMustExist:
		msg = fmt.Sprintf("%s: %s", ErrMustExist, e.Path)
	default:
		msg = "configuration error"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for e's kind, so errors.Is(err, ErrIO) works
// without unwrapping by hand.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrIO:
		return e.Kind == KindIO
	case ErrCritical:
		return e.Kind == KindCritical
	case ErrMustExist:
		return e.Kind == KindMustExist
	}
	return false
}

// Retryable reports whether repeating the operation may succeed.
func (e *Error) Retryable() bool {
	return e.Kind == KindIO
}

func ioError(path string, err error) *Error {
	return &Error{Kind: KindIO, Path: path, Err: err}
}

func criticalError(path string, err error) *Error {
	return &Error{Kind: KindCritical, Path: path, Hint: criticalHint, Err: err}
}

func mustExistError(path string) *Error {
	return &Error{Kind: KindMustExist, Path: path}
}
