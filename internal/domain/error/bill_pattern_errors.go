// Package error defines domain-specific errors for the bill pattern engine.
package error

import "errors"

// Bill pattern domain errors.
var (
	// ErrBillPatternNotFound is returned when a bill pattern does not exist or belongs to another user.
	ErrBillPatternNotFound = errors.New("bill pattern not found")

	// ErrTransactionNotFound is returned when a transaction does not exist or belongs to another user.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrOccurrenceNotFound is returned when an occurrence does not exist.
	ErrOccurrenceNotFound = errors.New("occurrence not found")

	// ErrInvalidFrequency is returned when the frequency is not one of the supported values.
	ErrInvalidFrequency = errors.New("invalid frequency")

	// ErrInvalidAmount is returned when an amount is missing or malformed.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidDate is returned when a date is missing or malformed.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidClassification is returned when a secondary type or source is unknown.
	ErrInvalidClassification = errors.New("invalid classification")

	// ErrEmptyCandidate is returned when a candidate carries no transactions.
	ErrEmptyCandidate = errors.New("candidate has no transactions")

	// ErrInvalidDeleteMode is returned when the delete mode is unknown or incomplete.
	ErrInvalidDeleteMode = errors.New("invalid delete mode")

	// ErrOccurrenceAlreadyLinked is returned when a date is already confirmed by another transaction.
	ErrOccurrenceAlreadyLinked = errors.New("occurrence already linked to another transaction")

	// ErrTransactionLinkedElsewhere is returned when a transaction already belongs to another pattern.
	ErrTransactionLinkedElsewhere = errors.New("transaction linked to another pattern")

	// ErrLowerPrioritySource is returned when a classification source may not override the current one.
	ErrLowerPrioritySource = errors.New("classification source has lower priority than the current one")

	// ErrLabelServiceUnavailable is returned when no label service is configured.
	ErrLabelServiceUnavailable = errors.New("label service unavailable")

	// ErrLinkedOccurrenceWouldBeDeleted is returned when an operation would remove confirmed data.
	ErrLinkedOccurrenceWouldBeDeleted = errors.New("operation would delete a linked occurrence")

	// ErrPatternHasLinkedOccurrences is returned when deleting a pattern that still has linked occurrences.
	ErrPatternHasLinkedOccurrences = errors.New("pattern has linked occurrences")
)

// ErrorKind groups errors by how callers must react to them.
type ErrorKind string

const (
	KindValidation         ErrorKind = "validation"
	KindConflict           ErrorKind = "conflict"
	KindNotFound           ErrorKind = "not_found"
	KindInvariantViolation ErrorKind = "invariant_violation"
	KindUnavailable        ErrorKind = "unavailable"
)

// BillPatternErrorCode defines error codes for bill pattern errors.
// Format: BPT-XXYYYY where XX is the kind and YYYY is the specific error.
type BillPatternErrorCode string

const (
	// Validation errors (01XXXX)
	ErrCodeInvalidFrequency      BillPatternErrorCode = "BPT-010001"
	ErrCodeInvalidAmount         BillPatternErrorCode = "BPT-010002"
	ErrCodeInvalidDate           BillPatternErrorCode = "BPT-010003"
	ErrCodeInvalidClassification BillPatternErrorCode = "BPT-010004"
	ErrCodeEmptyCandidate        BillPatternErrorCode = "BPT-010005"
	ErrCodeInvalidDeleteMode     BillPatternErrorCode = "BPT-010006"
	ErrCodeInvalidRequest        BillPatternErrorCode = "BPT-010007"

	// Conflict errors (02XXXX)
	ErrCodeOccurrenceAlreadyLinked    BillPatternErrorCode = "BPT-020001"
	ErrCodeTransactionLinkedElsewhere BillPatternErrorCode = "BPT-020002"
	ErrCodeLowerPrioritySource        BillPatternErrorCode = "BPT-020003"

	// Not found errors (03XXXX)
	ErrCodeBillPatternNotFound BillPatternErrorCode = "BPT-030001"
	ErrCodeTransactionNotFound BillPatternErrorCode = "BPT-030002"
	ErrCodeOccurrenceNotFound  BillPatternErrorCode = "BPT-030003"

	// Invariant violations (04XXXX)
	ErrCodeLinkedOccurrenceWouldBeDeleted BillPatternErrorCode = "BPT-040001"
	ErrCodePatternHasLinkedOccurrences    BillPatternErrorCode = "BPT-040002"

	// Unavailable collaborators (05XXXX)
	ErrCodeLabelServiceUnavailable BillPatternErrorCode = "BPT-050001"
)

// BillPatternError represents a bill pattern error with kind, code and message.
type BillPatternError struct {
	Code    BillPatternErrorCode
	Kind    ErrorKind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *BillPatternError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *BillPatternError) Unwrap() error {
	return e.Err
}

// NewBillPatternError creates a new BillPatternError.
func NewBillPatternError(kind ErrorKind, code BillPatternErrorCode, message string, err error) *BillPatternError {
	return &BillPatternError{
		Code:    code,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// NewValidationError creates a validation error.
func NewValidationError(code BillPatternErrorCode, message string, err error) *BillPatternError {
	return NewBillPatternError(KindValidation, code, message, err)
}

// NewConflictError creates a conflict error.
func NewConflictError(code BillPatternErrorCode, message string, err error) *BillPatternError {
	return NewBillPatternError(KindConflict, code, message, err)
}

// NewNotFoundError creates a not found error.
func NewNotFoundError(code BillPatternErrorCode, message string, err error) *BillPatternError {
	return NewBillPatternError(KindNotFound, code, message, err)
}

// NewInvariantViolation creates an invariant violation error.
func NewInvariantViolation(code BillPatternErrorCode, message string, err error) *BillPatternError {
	return NewBillPatternError(KindInvariantViolation, code, message, err)
}

// NewUnavailableError creates an error for a missing external collaborator.
func NewUnavailableError(code BillPatternErrorCode, message string, err error) *BillPatternError {
	return NewBillPatternError(KindUnavailable, code, message, err)
}

// KindOf returns the kind of a bill pattern error anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var bpErr *BillPatternError
	if errors.As(err, &bpErr) {
		return bpErr.Kind, true
	}
	return "", false
}

// IsConflict reports whether err is a conflict error.
func IsConflict(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindConflict
}

// IsNotFound reports whether err is a not found error.
func IsNotFound(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindNotFound
}

// IsInvariantViolation reports whether err is an invariant violation.
func IsInvariantViolation(err error) bool {
	kind, ok := KindOf(err)
	return ok && kind == KindInvariantViolation
}
