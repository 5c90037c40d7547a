package types

import (
	"errors"
	"fmt"
)

// Lookup and storage errors.
var (
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidID       = errors.New("invalid entity ID")
	ErrInvalidBlob     = errors.New("invalid storage blob")
	ErrDetached        = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
	ErrInvalidFilter   = errors.New("invalid filter value type")
	ErrInvalidField    = errors.New("invalid field name")
)

// Field value errors.
var (
	ErrValidation     = errors.New("validation failed")
	ErrTransport      = errors.New("transport import failed")
	ErrUnknownField   = errors.New("unknown link field")
	ErrTypeMismatch   = errors.New("type mismatch")
	ErrInvalidData    = errors.New("invalid data")
	ErrUnknownElement = errors.New("referencing unknown internal element")
)

// ValidationError reports a link whose internal reference does not resolve.
type ValidationError struct {
	Type ElementType
	ID   int64
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid internal link, referenced %s with id [%d] does not exist", e.Type, e.ID)
}

// Is makes errors.Is(err, ErrValidation) hold for every ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// TransportError reports a failed CSV or web-service import of one field.
type TransportError struct {
	Op  string // e.g. "webservice import"
	Key string // offending input key, if any
	Err error
}

func (e *TransportError) Error() string {
	msg := "cannot get values from " + e.Op
	if e.Key != "" {
		return fmt.Sprintf("%s: %v [%s]", msg, e.Err, e.Key)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrTransport) hold for every TransportError.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}
