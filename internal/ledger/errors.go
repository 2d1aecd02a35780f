package ledger

import "fmt"

// ValidationError reports bad input shape or range, rejected before any write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

// NotFoundError reports an operation on a nonexistent record.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// InvalidOperationError reports an operation that is never legal on the
// target record, such as toggling a payment or an exempt due.
type InvalidOperationError struct {
	Operation string
	Reason    string
}

func (e *InvalidOperationError) Error() string {
	return fmt.Sprintf("invalid operation %s: %s", e.Operation, e.Reason)
}

// TransientWriteError wraps a storage-layer conflict or timeout that
// survived the retry budget.
type TransientWriteError struct {
	Err error
}

func (e *TransientWriteError) Error() string {
	return fmt.Sprintf("transient write failure: %v", e.Err)
}

func (e *TransientWriteError) Unwrap() error {
	return e.Err
}
