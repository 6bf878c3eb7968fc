package pkgdb

import (
	"errors"
	"fmt"
)

// ==================== Sentinel Errors ====================
// These are simple error constants that can be checked with errors.Is()

var (
	// ErrDatabaseClosed is returned when using a database after Close
	ErrDatabaseClosed = fmt.Errorf("database closed")

	// ErrReadOnly is returned by write operations on a read-only handle
	ErrReadOnly = fmt.Errorf("database opened read-only")

	// ErrBucketNotFound is returned when a required database bucket doesn't exist
	ErrBucketNotFound = fmt.Errorf("database bucket not found")

	// ErrRecordNotFound is returned when a package record doesn't exist
	ErrRecordNotFound = fmt.Errorf("package record not found")

	// ErrCorruptedData is returned when database data cannot be parsed or is invalid
	ErrCorruptedData = fmt.Errorf("corrupted database data")

	// ErrSchemaVersion is returned when the database was written by an
	// incompatible release
	ErrSchemaVersion = fmt.Errorf("unsupported database schema version")

	// ErrEmptyName is returned when a package or set name is missing
	ErrEmptyName = fmt.Errorf("name cannot be empty")

	// ErrInvalidEntry is returned when a package entry fails validation
	ErrInvalidEntry = fmt.Errorf("invalid package entry")
)

// ==================== Structured Error Types ====================

// DatabaseError wraps database operation errors with context about the operation
// and bucket involved.
type DatabaseError struct {
	// Op is the operation that failed (e.g., "open", "create bucket", "import")
	Op string

	// Bucket is the bucket name involved in the operation (empty if not applicable)
	Bucket string

	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface
func (e *DatabaseError) Error() string {
	if e.Bucket != "" {
		return fmt.Sprintf("database %s [bucket: %s]: %v", e.Op, e.Bucket, e.Err)
	}
	return fmt.Sprintf("database %s: %v", e.Op, e.Err)
}

// Unwrap allows errors.Is() and errors.As() to work with wrapped errors
func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// RecordError wraps package record errors with the key of the record.
type RecordError struct {
	// Op is the operation that failed (e.g., "put", "get", "unmarshal")
	Op string

	// Key is the human readable record key (e.g., "app-misc/foo-1.0::gentoo")
	Key string

	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface
func (e *RecordError) Error() string {
	return fmt.Sprintf("package record %s [%s]: %v", e.Op, e.Key, e.Err)
}

// Unwrap allows errors.Is() and errors.As() to work with wrapped errors
func (e *RecordError) Unwrap() error {
	return e.Err
}

// ValidationError wraps input validation errors with context about which
// field failed validation and what the invalid value was.
type ValidationError struct {
	// Field is the name of the field that failed validation
	Field string

	// Value is the invalid value
	Value string

	// Err is the underlying sentinel error (e.g., ErrInvalidEntry)
	Err error
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("validation failed [%s=%s]: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("validation failed [%s]: %v", e.Field, e.Err)
}

// Unwrap allows errors.Is() and errors.As() to work with wrapped errors
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ==================== Error Inspection Helpers ====================

// IsValidationError checks if the error is a validation error.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsDatabaseError checks if the error is a database operation error.
func IsDatabaseError(err error) bool {
	var de *DatabaseError
	return errors.As(err, &de)
}

// IsRecordNotFound checks if the error indicates a package record was not found.
func IsRecordNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound)
}
