package escrow

import (
	"errors"
	"fmt"
)

// Domain-level error values returned by the escrow service.
var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrInvalidState         = errors.New("invalid state")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrArithmeticOverflow   = errors.New("arithmetic overflow")
	ErrAddressMismatch      = errors.New("address mismatch")
	ErrBookingExists        = errors.New("booking already exists")
	ErrUnknownBooking       = errors.New("unknown booking")
	ErrEscrowImbalance      = errors.New("escrow imbalance")
	ErrInvalidPartyID       = errors.New("invalid party id")
	ErrInvalidParty         = errors.New("invalid party")
	ErrInvalidNonce         = errors.New("invalid nonce")
	ErrInvalidAddress       = errors.New("invalid booking address")
	ErrInvalidAccountID     = errors.New("invalid account id")
	ErrInvalidEntryID       = errors.New("invalid entry id")
	ErrInvalidEntryKind     = errors.New("invalid entry kind")
	ErrInvalidStatus        = errors.New("invalid booking status")
	ErrInvalidWindow        = errors.New("invalid booking window")
	ErrInvalidMetadataJSON  = errors.New("invalid metadata json")
	ErrInvalidFilter        = errors.New("invalid booking filter")
	ErrInvalidServiceConfig = errors.New("invalid service config")
	ErrInvalidListing       = errors.New("invalid listing")
	ErrUnknownListing       = errors.New("unknown listing")
	ErrListingInactive      = errors.New("listing inactive")
	ErrListingOwnerMismatch = errors.New("listing owner mismatch")
	ErrPriceMismatch        = errors.New("price mismatch")
)

// OperationError wraps a failure with a stable operation code.
type OperationError struct {
	operation string
	subject   string
	code      string
	err       error
}

// Error returns the formatted error message.
func (operationError OperationError) Error() string {
	return fmt.Sprintf("%s.%s.%s: %v", operationError.operation, operationError.subject, operationError.code, operationError.err)
}

// Unwrap returns the underlying error.
func (operationError OperationError) Unwrap() error {
	return operationError.err
}

// Operation returns the operation segment.
func (operationError OperationError) Operation() string {
	return operationError.operation
}

// Subject returns the subject segment.
func (operationError OperationError) Subject() string {
	return operationError.subject
}

// Code returns the stable error code segment.
func (operationError OperationError) Code() string {
	return operationError.code
}

// WrapError wraps an error with operation, subject, and code metadata.
func WrapError(operation string, subject string, code string, err error) error {
	if err == nil {
		return nil
	}
	return OperationError{
		operation: operation,
		subject:   subject,
		code:      code,
		err:       err,
	}
}
