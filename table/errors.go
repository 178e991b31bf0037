package table

import (
	"github.com/cockroachdb/errors"
)

// Error classes. Every error returned by this package is marked with one of
// these, so callers can branch with errors.Is.
var (
	// ErrIO reports a failure to open, map, read or unmap the table file.
	ErrIO = errors.New("sstable: i/o error")
	// ErrFormat reports a file that is not a valid table: bad magic, an
	// unsupported compression type or malformed varints.
	ErrFormat = errors.New("sstable: invalid format")
	// ErrOutOfRange reports a block handle that points outside the file.
	ErrOutOfRange = errors.New("sstable: out of range")
	// ErrCorruption reports a checksum mismatch or undecodable block contents.
	ErrCorruption = errors.New("sstable: corruption")
	// ErrClosed is returned by reads on a closed table or file.
	ErrClosed = errors.New("sstable: closed")
	// ErrNotFound is returned by Get when the key is absent.
	ErrNotFound = errors.New("sstable: not found")
)

// classError attaches a class to err. The class is reachable through an Is
// method as well as the mark, so both the standard library and
// cockroachdb/errors report it.
type classError struct {
	class error
	cause error
}

func (e *classError) Error() string { return e.cause.Error() }

func (e *classError) Unwrap() error { return e.cause }

func (e *classError) Is(target error) bool { return target == e.class }

func withClass(err, class error) error {
	return errors.Mark(&classError{class: class, cause: err}, class)
}

func formatErrorf(format string, args ...interface{}) error {
	return withClass(errors.Newf(format, args...), ErrFormat)
}

func corruptionErrorf(format string, args ...interface{}) error {
	return withClass(errors.Newf(format, args...), ErrCorruption)
}

// wrapCorruption classes a codec failure as corruption.
func wrapCorruption(err error, msg string) error {
	return withClass(errors.Wrap(err, msg), ErrCorruption)
}

func outOfRangeErrorf(format string, args ...interface{}) error {
	return withClass(errors.Newf(format, args...), ErrOutOfRange)
}

func ioErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return withClass(errors.Newf(format, args...), ErrIO)
	}
	return withClass(errors.Wrapf(err, format, args...), ErrIO)
}

func closedErrorf(format string, args ...interface{}) error {
	return withClass(errors.Newf(format, args...), ErrClosed)
}

// errorKind names the class of err for metrics labels.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrCorruption):
		return "corruption"
	case errors.Is(err, ErrFormat):
		return "format"
	case errors.Is(err, ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, ErrClosed):
		return "closed"
	case errors.Is(err, ErrIO):
		return "io"
	default:
		return "other"
	}
}
