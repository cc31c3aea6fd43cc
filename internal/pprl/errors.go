// Package pprl implements the privacy-preserving record linkage core:
// feature extraction, Bloom-filter embedding, Soft Cosine Measure scoring,
// and one-to-one matching between two independently embedded datasets.
package pprl

import "fmt"

// ErrorKind identifies the taxonomy of errors the core can return. Callers
// should branch on Kind rather than on error message text.
type ErrorKind string

const (
	ErrInvalidConfig     ErrorKind = "InvalidConfig"
	ErrUnknownFeatureType ErrorKind = "UnknownFeatureType"
	ErrInvalidFieldValue ErrorKind = "InvalidFieldValue"
	ErrConfigMismatch    ErrorKind = "ConfigMismatch"
	ErrEmptyInput        ErrorKind = "EmptyInput"
	ErrSerialization     ErrorKind = "SerializationError"
)

// CoreError is the error type returned by every exported operation in this
// package. Wrap with fmt.Errorf("...: %w", err) at call sites that need to
// add context; Kind survives unwrapping via errors.As.
type CoreError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *CoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pprl: %s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("pprl: %s: %s", e.Kind, e.Msg)
}

func (e *CoreError) Unwrap() error { return e.Err }

// Is allows errors.Is(err, &CoreError{Kind: ErrConfigMismatch}) to match any
// CoreError with the same Kind, regardless of Msg/Err.
func (e *CoreError) Is(target error) bool {
	t, ok := target.(*CoreError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newErr(kind ErrorKind, msg string) error {
	return &CoreError{Kind: kind, Msg: msg}
}

func wrapErr(kind ErrorKind, msg string, err error) error {
	return &CoreError{Kind: kind, Msg: msg, Err: err}
}
