// Package errs holds the sentinel error kinds surfaced by the query
// subsystem (spec.md §6/§7): InvalidArgument, NotSupported, IndexMissing
// (handled internally via fallback, rarely seen by callers) and Cancelled.
package errs

import "errors"

var (
	// ErrInvalidArgument marks a caller mistake: empty collection name,
	// wrong arity for a function that requires exact arguments, etc.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotSupported marks a parse-time or evaluation-time construct the
	// query subsystem deliberately does not implement (no joins, no
	// dynamic code emission, an unknown function name, ...).
	ErrNotSupported = errors.New("not supported")

	// ErrIndexMissing is returned by an IndexCatalog when an index named
	// in a plan is no longer present. The executor catches this and falls
	// back to a full table scan; it should not usually reach a caller.
	ErrIndexMissing = errors.New("index missing")

	// ErrCancelled is returned by a terminal operation when the caller's
	// cancellation flag fired between row deliveries.
	ErrCancelled = errors.New("cancelled")
)

// NotSupportedf wraps ErrNotSupported with a formatted reason, following
// the teacher's fmt.Errorf("...: %w", err) wrapping idiom.
func NotSupportedf(format string, args ...interface{}) error {
	return wrapf(ErrNotSupported, format, args...)
}

// InvalidArgumentf wraps ErrInvalidArgument with a formatted reason.
func InvalidArgumentf(format string, args ...interface{}) error {
	return wrapf(ErrInvalidArgument, format, args...)
}

// IndexMissingf wraps ErrIndexMissing with a formatted reason.
func IndexMissingf(format string, args ...interface{}) error {
	return wrapf(ErrIndexMissing, format, args...)
}

// Cancelledf wraps ErrCancelled with a formatted reason.
func Cancelledf(format string, args ...interface{}) error {
	return wrapf(ErrCancelled, format, args...)
}
