package business

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Error codes for the syndication core. StateConflict and OverAllocation carry
// the current authoritative entity state so a caller can re-render without a
// second round trip. Transient signals infrastructure failure eligible for
// caller-side backoff retry and is never used for business-rule rejections.
const (
	CodeValidation     = "validation_error"
	CodeStateConflict  = "state_conflict"
	CodeOverAllocation = "over_allocation"
	CodeDuplicate      = "duplicate"
	CodeNotFound       = "not_found"
	CodeAuthorization  = "authorization_error"
	CodeTransient      = "transient"
)

// Reasons referenced by callers and tests.
const (
	ReasonInvalidAmount      = "InvalidAmount"
	ReasonInvalidTarget      = "InvalidTarget"
	ReasonNotAccredited      = "NotAccredited"
	ReasonDealNotOpen        = "DealNotOpen"
	ReasonDuplicateInterest  = "DuplicateInterest"
	ReasonNotPending         = "NotPending"
	ReasonInterestNotAccepted = "InterestNotAccepted"
	ReasonDuplicateSPV       = "DuplicateSPV"
	ReasonSPVNotActive       = "SPVNotActive"
	ReasonSPVClosed          = "SPVClosed"
	ReasonSPVNotClosed       = "SPVNotClosed"
	ReasonAlreadyMember      = "AlreadyMember"
	ReasonOverAllocation     = "OverAllocation"
	ReasonNotInvited         = "NotInvited"
)

// DomainError is the single error type crossing the business boundary.
type DomainError struct {
	Code    string      `json:"code"`
	Reason  string      `json:"reason,omitempty"`
	Message string      `json:"message"`
	State   interface{} `json:"state,omitempty"`
}

func (e *DomainError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s (%s): %s", e.Code, e.Reason, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// AsDomainError unwraps err into a *DomainError if it is one.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

func ErrValidation(reason, format string, args ...interface{}) *DomainError {
	return &DomainError{Code: CodeValidation, Reason: reason, Message: fmt.Sprintf(format, args...)}
}

func ErrStateConflict(reason, message string, state interface{}) *DomainError {
	return &DomainError{Code: CodeStateConflict, Reason: reason, Message: message, State: state}
}

func ErrOverAllocation(message string, state interface{}) *DomainError {
	return &DomainError{Code: CodeOverAllocation, Reason: ReasonOverAllocation, Message: message, State: state}
}

func ErrDuplicate(reason, message string) *DomainError {
	return &DomainError{Code: CodeDuplicate, Reason: reason, Message: message}
}

func ErrNotFound(entity string, id uint) *DomainError {
	return &DomainError{Code: CodeNotFound, Message: fmt.Sprintf("%s %d not found", entity, id)}
}

func ErrAuthorization(message string) *DomainError {
	return &DomainError{Code: CodeAuthorization, Message: message}
}

func ErrTransient(err error) *DomainError {
	return &DomainError{Code: CodeTransient, Message: err.Error()}
}

// dbError classifies a gorm error: record-not-found becomes NotFound for the
// named entity, anything else is an infrastructure failure.
func dbError(err error, entity string, id uint) *DomainError {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound(entity, id)
	}
	return ErrTransient(err)
}
