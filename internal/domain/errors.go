// Package domain defines the error taxonomy shared by every layer of the adapter.
package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a database failure.
type ErrorKind int

// Database error kinds. Unknown is the fallback for anything that cannot be
// classified from the engine message.
const (
	Unknown ErrorKind = iota
	UniqueViolation
	NotNullViolation
	ForeignKeyViolation
	CheckViolation
)

func (k ErrorKind) String() string {
	switch k {
	case UniqueViolation:
		return "unique_violation"
	case NotNullViolation:
		return "not_null_violation"
	case ForeignKeyViolation:
		return "foreign_key_violation"
	case CheckViolation:
		return "check_violation"
	default:
		return "unknown"
	}
}

// DatabaseError is a classified engine failure. Table, Column and Constraint
// are empty when the engine message does not name them.
type DatabaseError struct {
	Kind       ErrorKind
	Message    string
	Table      string
	Column     string
	Constraint string
	Position   *int
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// ConnectionError indicates the engine could not be opened.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("establish connection %q: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// SerializationError indicates a bind-time conversion failure.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string { return "serialize bind value: " + e.Err.Error() }

func (e *SerializationError) Unwrap() error { return e.Err }

// DeserializationError indicates a decode-time conversion or shape failure.
type DeserializationError struct {
	Err error
}

func (e *DeserializationError) Error() string { return "deserialize value: " + e.Err.Error() }

func (e *DeserializationError) Unwrap() error { return e.Err }

// ErrDatabase creates an unclassified DatabaseError with a formatted message.
func ErrDatabase(format string, args ...interface{}) *DatabaseError {
	return &DatabaseError{Kind: Unknown, Message: fmt.Sprintf(format, args...)}
}

// ErrSerialization creates a SerializationError with a formatted message.
func ErrSerialization(format string, args ...interface{}) *SerializationError {
	return &SerializationError{Err: fmt.Errorf(format, args...)}
}

// ErrDeserialization creates a DeserializationError with a formatted message.
func ErrDeserialization(format string, args ...interface{}) *DeserializationError {
	return &DeserializationError{Err: fmt.Errorf(format, args...)}
}

// KindOf reports the kind of the DatabaseError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var dbErr *DatabaseError
	if errors.As(err, &dbErr) {
		return dbErr.Kind, true
	}
	return Unknown, false
}

// IsKind reports whether err wraps a DatabaseError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// IsTaxonomy reports whether err already belongs to the adapter's error
// taxonomy and therefore must not be translated again.
func IsTaxonomy(err error) bool {
	var (
		dbErr   *DatabaseError
		connErr *ConnectionError
		serErr  *SerializationError
		deErr   *DeserializationError
	)
	return errors.As(err, &dbErr) || errors.As(err, &connErr) ||
		errors.As(err, &serErr) || errors.As(err, &deErr)
}
