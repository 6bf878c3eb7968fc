package pkg

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors - simple error constants that can be checked with errors.Is()
var (
	// ErrMalformedIdentifier is returned when a package identifier does not
	// have the required field layout.
	ErrMalformedIdentifier = fmt.Errorf("malformed package identifier")

	// ErrPackageNotFound is returned when an identifier resolves neither in
	// the installed database nor in any repository.
	ErrPackageNotFound = fmt.Errorf("package not found")

	// ErrIncomparableVersions is returned when two identities of different
	// logical packages are compared.
	ErrIncomparableVersions = fmt.Errorf("incomparable versions")

	// ErrConflictingFilters is returned when mutually exclusive filters are combined.
	ErrConflictingFilters = fmt.Errorf("conflicting filters")

	// ErrInvalidFilter is returned for filter tokens outside the vocabulary.
	ErrInvalidFilter = fmt.Errorf("invalid filter")

	// ErrResolutionIncomplete is returned when the dependency graph could not
	// be completed.
	ErrResolutionIncomplete = fmt.Errorf("dependency resolution incomplete")

	// ErrStoreUnavailable is returned when the package database fails or
	// does not answer in time.
	ErrStoreUnavailable = fmt.Errorf("package store unavailable")

	// ErrDataIntegrity is returned when store data violates an invariant,
	// such as two installed versions in one slot.
	ErrDataIntegrity = fmt.Errorf("data integrity violation")

	// ErrInvalidLicense is returned for license expressions or accept lists
	// that cannot be parsed.
	ErrInvalidLicense = fmt.Errorf("invalid license expression")

	// ErrNotInstalled is returned by operations restricted to installed packages.
	ErrNotInstalled = fmt.Errorf("package is not installed")

	// ErrFilterNotSupported is returned when an operation cannot honour a filter.
	ErrFilterNotSupported = fmt.Errorf("filter not supported by operation")

	// ErrRepoNotFound is returned for unknown repositories.
	ErrRepoNotFound = fmt.Errorf("repository not found")

	// ErrCannotDisableRepo is returned when disabling the main tree.
	ErrCannotDisableRepo = fmt.Errorf("repository cannot be disabled")
)

// MalformedIdentifierError describes an identifier that failed to decode.
type MalformedIdentifierError struct {
	ID     string
	Reason string
}

func (e *MalformedIdentifierError) Error() string {
	return fmt.Sprintf("malformed package identifier %q: %s", e.ID, e.Reason)
}

// Unwrap allows errors.Is(err, ErrMalformedIdentifier) to work correctly
func (e *MalformedIdentifierError) Unwrap() error {
	return ErrMalformedIdentifier
}

// PackageNotFoundError carries the identifier that did not resolve and,
// when available, close matches for the name.
type PackageNotFoundError struct {
	ID          string
	Suggestions []string
}

func (e *PackageNotFoundError) Error() string {
	if len(e.Suggestions) > 0 {
		return fmt.Sprintf("package %s was not found (did you mean %s?)",
			e.ID, strings.Join(e.Suggestions, ", "))
	}
	return fmt.Sprintf("package %s was not found", e.ID)
}

// Unwrap allows errors.Is(err, ErrPackageNotFound) to work correctly
func (e *PackageNotFoundError) Unwrap() error {
	return ErrPackageNotFound
}

// IncomparableError reports a comparison across logical packages.
type IncomparableError struct {
	A, B Identity
}

func (e *IncomparableError) Error() string {
	return fmt.Sprintf("cannot compare %s with %s: different packages", e.A.CPV(), e.B.CPV())
}

// Unwrap allows errors.Is(err, ErrIncomparableVersions) to work correctly
func (e *IncomparableError) Unwrap() error {
	return ErrIncomparableVersions
}

// ConflictingFiltersError names the two filters that cannot be combined.
type ConflictingFiltersError struct {
	A, B Filter
}

func (e *ConflictingFiltersError) Error() string {
	return fmt.Sprintf("filters %s and %s are mutually exclusive", e.A, e.B)
}

// Unwrap allows errors.Is(err, ErrConflictingFilters) to work correctly
func (e *ConflictingFiltersError) Unwrap() error {
	return ErrConflictingFilters
}

// FilterError reports an unknown filter token.
type FilterError struct {
	Token string
}

func (e *FilterError) Error() string {
	return fmt.Sprintf("unknown filter %q", e.Token)
}

// Unwrap allows errors.Is(err, ErrInvalidFilter) to work correctly
func (e *FilterError) Unwrap() error {
	return ErrInvalidFilter
}

// ResolutionError is returned when the graph builder could not reach a
// complete state. No partial graph is ever returned alongside it.
type ResolutionError struct {
	Reason      string
	Unsatisfied []string // atoms that could not be satisfied, if known
	Err         error    // builder error, if any
}

func (e *ResolutionError) Error() string {
	msg := "dependency resolution incomplete: " + e.Reason
	if len(e.Unsatisfied) > 0 {
		msg += " (unsatisfied: " + strings.Join(e.Unsatisfied, " ") + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is allows errors.Is(err, ErrResolutionIncomplete) while keeping Err in the chain
func (e *ResolutionError) Is(target error) bool {
	return target == ErrResolutionIncomplete
}

// Unwrap returns the builder error
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// StoreError wraps a failed or timed out store call.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("package store %s: %v", e.Op, e.Err)
}

// Is allows errors.Is(err, ErrStoreUnavailable) while keeping Err in the chain
func (e *StoreError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

// Unwrap returns the underlying store error
func (e *StoreError) Unwrap() error {
	return e.Err
}

// IntegrityError reports more than one installed identity in a slot.
type IntegrityError struct {
	Name      string
	Slot      string
	Installed []Identity
}

func (e *IntegrityError) Error() string {
	cpvs := make([]string, len(e.Installed))
	for i, id := range e.Installed {
		cpvs[i] = id.CPV()
	}
	return fmt.Sprintf("%s: slot %s has %d installed versions: %s",
		e.Name, e.Slot, len(e.Installed), strings.Join(cpvs, ", "))
}

// Unwrap allows errors.Is(err, ErrDataIntegrity) to work correctly
func (e *IntegrityError) Unwrap() error {
	return ErrDataIntegrity
}

// OpError attaches an identifier to an operation-specific failure such as
// ErrNotInstalled or ErrFilterNotSupported.
type OpError struct {
	Op  string
	ID  string
	Err error
}

func (e *OpError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
}

// Unwrap allows errors.Is() and errors.As() to work with wrapped errors
func (e *OpError) Unwrap() error {
	return e.Err
}

// Backend error codes reported alongside per-item and fatal errors.
const (
	CodePackageNotFound      = "package-not-found"
	CodePackageIDInvalid     = "package-id-invalid"
	CodeFilterInvalid        = "filter-invalid"
	CodeInternalError        = "internal-error"
	CodeCannotGetRequires    = "cannot-get-requires"
	CodeCannotGetFilelist    = "cannot-get-filelist"
	CodeRepoNotFound         = "repo-not-found"
	CodeCannotDisableRepo    = "cannot-disable-repository"
	CodeDependencyResolution = "dep-resolution-failed"
	CodeStoreUnavailable     = "no-cache"
	CodeDataIntegrity        = "package-corrupt"
)

// ErrorCode maps an error to a backend error code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrPackageNotFound):
		return CodePackageNotFound
	case errors.Is(err, ErrMalformedIdentifier):
		return CodePackageIDInvalid
	case errors.Is(err, ErrConflictingFilters), errors.Is(err, ErrInvalidFilter):
		return CodeFilterInvalid
	case errors.Is(err, ErrResolutionIncomplete):
		return CodeDependencyResolution
	case errors.Is(err, ErrStoreUnavailable):
		return CodeStoreUnavailable
	case errors.Is(err, ErrDataIntegrity):
		return CodeDataIntegrity
	case errors.Is(err, ErrRepoNotFound):
		return CodeRepoNotFound
	case errors.Is(err, ErrCannotDisableRepo):
		return CodeCannotDisableRepo
	}

	var op *OpError
	if errors.As(err, &op) {
		switch op.Op {
		case "get-requires":
			return CodeCannotGetRequires
		case "get-files", "search-file":
			return CodeCannotGetFilelist
		}
	}
	return CodeInternalError
}
