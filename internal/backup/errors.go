package backup

import (
	"github.com/pkg/errors"
)

type ErrorKind string

const (
	KindSourceMissing        ErrorKind = "source_missing"
	KindIOFailure            ErrorKind = "io_failure"
	KindRetentionScanFailure ErrorKind = "retention_scan_failure"
	KindRestorePrecondition  ErrorKind = "restore_precondition_failure"
	KindSafetyCopyFailure    ErrorKind = "safety_copy_failure"
	KindPostCopyFailure      ErrorKind = "post_copy_failure"
	KindInvalidArgument      ErrorKind = "invalid_argument"
	KindNotFound             ErrorKind = "not_found"
)

// Error is returned by every public operation of this package.
// SafetyCopy is set when a restore failed after its safety copy was written.
type Error struct {
	Kind       ErrorKind
	Op         string
	Path       string
	SafetyCopy string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Op + ": " + string(e.Kind)
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.SafetyCopy != "" {
		msg += "; safety copy kept at " + e.SafetyCopy
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// KindOf returns the kind of a backup error, or an empty kind when err did
// not originate in this package.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// SafetyCopyOf returns the safety copy location carried by err, if any.
func SafetyCopyOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.SafetyCopy
	}
	return ""
}
