package domain

import (
	"errors"
	"fmt"
)

// Kind classifies pipeline failures so the transport layer can map them
// to status codes without the core knowing any HTTP vocabulary.
type Kind string

const (
	KindInvalidFormat      Kind = "invalid_format"
	KindTooLarge           Kind = "too_large"
	KindDimensionsExceeded Kind = "dimensions_exceeded"
	KindDecodeFailure      Kind = "decode_failure"
	KindStorageFailure     Kind = "storage_failure"
	KindInvalidColorCode   Kind = "invalid_color_code"
	KindInvalidRegion      Kind = "invalid_region"
	KindInvalidArgument    Kind = "invalid_argument"
	KindNotFound           Kind = "not_found"
	KindInternal           Kind = "internal"
)

// Error is the structured error type used throughout the pipeline.
type Error struct {
	Kind Kind
	Op   string // operation name
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// E wraps err with a kind and operation name.
func E(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Ef builds an Error from a format string.
func Ef(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the Kind from err, or KindInternal when err carries none.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// IsKind reports whether err belongs to the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// ClientCaused reports whether err is an input error: reported
// synchronously, never retried, no artifacts left behind.
func ClientCaused(err error) bool {
	switch KindOf(err) {
	case KindInvalidFormat, KindTooLarge, KindDimensionsExceeded,
		KindInvalidColorCode, KindInvalidRegion, KindInvalidArgument,
		KindDecodeFailure:
		return true
	}
	return false
}
