package errors

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/printhouse/storefront/internal/domain"
)

// ErrValidation reports malformed or out-of-range client input.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ErrNotFound reports an unknown resource.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrTrustViolation reports a client-submitted amount that disagrees with the
// server recomputation beyond tolerance.
type ErrTrustViolation struct {
	Field  string
	Client decimal.Decimal
	Server decimal.Decimal
}

func (e *ErrTrustViolation) Error() string {
	return fmt.Sprintf("%s mismatch (submitted %s, expected %s): prices have changed, please refresh your cart",
		e.Field, e.Client.StringFixed(2), e.Server.StringFixed(2))
}

// ErrInvalidStateTransition reports a forbidden order status change.
type ErrInvalidStateTransition struct {
	From domain.OrderStatus
	To   domain.OrderStatus
}

func (e *ErrInvalidStateTransition) Error() string {
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}

// ErrConfiguration reports a missing or invalid server-side setting.
type ErrConfiguration struct {
	Key string
}

func (e *ErrConfiguration) Error() string {
	return fmt.Sprintf("configuration missing: %s", e.Key)
}

// ErrExternalService wraps a failure returned by a third-party API.
type ErrExternalService struct {
	Service string
	Message string
	Err     error
}

func (e *ErrExternalService) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Service, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Service, e.Message)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	return e.Message
}

type ErrForbidden struct {
	Message string
}

func (e *ErrForbidden) Error() string {
	return e.Message
}

type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}
