// Package fserr defines the structured failure taxonomy shared by the sandbox,
// the archive engine and the operation dispatcher.
//
// Every failure carries a machine-checkable Kind and a human-readable message.
// Sentinel values match by kind, so callers test with errors.Is:
//
//	if errors.Is(err, fserr.ErrNotUnique) {
//	    ...
//	}
package fserr

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// Kind classifies a failure.
type Kind string

const (
	KindPathRestricted  Kind = "path_restricted"
	KindNotFound        Kind = "not_found"
	KindAlreadyExists   Kind = "already_exists"
	KindNotUnique       Kind = "not_unique"
	KindInvalidArgument Kind = "invalid_argument"
	KindIO              Kind = "io_error"
)

// Sentinels for errors.Is. Only the Kind is compared.
var (
	ErrPathRestricted  = &Error{Kind: KindPathRestricted}
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrAlreadyExists   = &Error{Kind: KindAlreadyExists}
	ErrNotUnique       = &Error{Kind: KindNotUnique}
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
	ErrIO              = &Error{Kind: KindIO}
)

// Error is a structured operation failure.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Msg  string
	// Count is the number of matches for KindNotUnique.
	Count int
	Err   error
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.Op != "" {
		sb.WriteString(e.Op)
		sb.WriteString(": ")
	}
	switch {
	case e.Msg != "":
		sb.WriteString(e.Msg)
	case e.Err != nil:
		sb.WriteString(e.Err.Error())
	default:
		sb.WriteString(string(e.Kind))
	}
	if e.Path != "" {
		sb.WriteString(" (")
		sb.WriteString(e.Path)
		sb.WriteString(")")
	}
	if e.Msg != "" && e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// PathRestricted reports a path that escapes its root.
func PathRestricted(op, path, msg string) *Error {
	return &Error{Kind: KindPathRestricted, Op: op, Path: path, Msg: msg}
}

// NotFound reports a missing target.
func NotFound(op, path string, err error) *Error {
	return &Error{Kind: KindNotFound, Op: op, Path: path, Msg: "not found", Err: err}
}

// AlreadyExists reports a collision on an exclusive create.
func AlreadyExists(op, path string, err error) *Error {
	return &Error{Kind: KindAlreadyExists, Op: op, Path: path, Msg: "already exists", Err: err}
}

// NotUnique reports a pattern that matched more than once.
func NotUnique(op, path string, count int) *Error {
	return &Error{
		Kind:  KindNotUnique,
		Op:    op,
		Path:  path,
		Msg:   fmt.Sprintf("pattern matched %d times, expected exactly one", count),
		Count: count,
	}
}

// InvalidArgument reports malformed operation arguments.
func InvalidArgument(op, msg string) *Error {
	return &Error{Kind: KindInvalidArgument, Op: op, Msg: msg}
}

// IO wraps an unexpected filesystem or stream failure.
func IO(op, path string, err error) *Error {
	return &Error{Kind: KindIO, Op: op, Path: path, Err: err}
}

// FromOS maps an os/io error onto the taxonomy. Errors that already carry a
// kind pass through unchanged.
func FromOS(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var fe *Error
	if errors.As(err, &fe) {
		return err
	}
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return NotFound(op, path, err)
	case errors.Is(err, fs.ErrExist):
		return AlreadyExists(op, path, err)
	default:
		return IO(op, path, err)
	}
}

// KindOf extracts the kind of err, defaulting to KindIO for foreign errors.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindIO
}
