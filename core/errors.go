package core

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrUnauthenticated is returned when a request carries no caller identity.
	ErrUnauthenticated = errors.New("caller not authenticated")
	// ErrForbidden is returned when the caller's role does not allow the operation.
	ErrForbidden = errors.New("permission denied")
	// ErrNotFound is wrapped by each entity's own not found error.
	ErrNotFound = errors.New("not found")
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return "invalid input"
	}
	return err.Err.Error()
}

func (err ValidationError) Unwrap() error { return err.Err }

// StorageError reports a failure of the persistence layer.
// The cause is kept for logs and is never shown to untrusted callers.
type StorageError struct {
	Op  string
	Err error
}

func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

func (err *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", err.Op, err.Err)
}

func (err *StorageError) Unwrap() error { return err.Err }

// DeliveryError reports a failed notification to a single recipient.
type DeliveryError struct {
	Recipient string
	Err       error
}

func NewDeliveryError(recipient string, err error) error {
	if err == nil {
		return nil
	}
	return &DeliveryError{Recipient: recipient, Err: err}
}

func (err *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %s: %v", err.Recipient, err.Err)
}

func (err *DeliveryError) Unwrap() error { return err.Err }

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsStorage(err error) bool {
	var sErr *StorageError
	return errors.As(err, &sErr)
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	var sErr *shutdown
	return errors.As(err, &sErr)
}
