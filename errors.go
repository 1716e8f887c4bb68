package walletauth

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
)

const (
	// EBadRequest represents a malformed or rejected request, including
	// rejected login credentials.
	EBadRequest ErrCode = "bad_request"
	// EInvalidToken represents an invalid JWT token error.
	EInvalidToken ErrCode = "invalid_token"
	// EInvalidField represents an entity field error in a repository.
	EInvalidField ErrCode = "invalid_field"
	// ENotFound represents a missing entity.
	ENotFound ErrCode = "not_found"
	// EInvalidCode represents a challenge code that does not match any
	// outstanding challenge.
	EInvalidCode ErrCode = "invalid_code"
	// EExpiredCode represents a challenge code that matched but is past expiry.
	EExpiredCode ErrCode = "expired_code"
	// EDeliveryFailed represents a failure to deliver a challenge code.
	EDeliveryFailed ErrCode = "delivery_failed"
	// EThrottle represents a rate limited request.
	EThrottle ErrCode = "throttle"
	// EInternal represents an internal error outside of our domain.
	EInternal ErrCode = "internal"
)

// Error represents an error within the walletauth domain.
type Error interface {
	Error() string
	Code() ErrCode
	// Message is a human readable description safe to return to clients.
	Message() string
}

// ErrCode is a machine readable code representing
// an error within the walletauth domain.
type ErrCode string

// ErrBadRequest represents an error for a request we cannot process.
type ErrBadRequest string

func (e ErrBadRequest) Code() ErrCode { return EBadRequest }
func (e ErrBadRequest) Error() string { return fmt.Sprintf("[%s] %s", e.Code(), string(e)) }
func (e ErrBadRequest) Message() string { return capitalize(string(e)) }

// ErrInvalidToken represents an error related to JWT token invalidation
// such as expiry, revocation, or signing errors.
type ErrInvalidToken string

func (e ErrInvalidToken) Code() ErrCode { return EInvalidToken }
func (e ErrInvalidToken) Error() string { return fmt.Sprintf("[%s] %s", e.Code(), string(e)) }
func (e ErrInvalidToken) Message() string { return capitalize(string(e)) }

// ErrInvalidField represents an error related to missing or invalid entity fields
// in a supplied to repository.
type ErrInvalidField string

func (e ErrInvalidField) Code() ErrCode { return EInvalidField }
func (e ErrInvalidField) Error() string { return fmt.Sprintf("[%s] %s", e.Code(), string(e)) }
func (e ErrInvalidField) Message() string { return capitalize(string(e)) }

// ErrNotFound represents an error for a missing entity.
type ErrNotFound string

func (e ErrNotFound) Code() ErrCode { return ENotFound }
func (e ErrNotFound) Error() string { return fmt.Sprintf("[%s] %s", e.Code(), string(e)) }
func (e ErrNotFound) Message() string { return capitalize(string(e)) }

// ErrInvalidCode represents a challenge code that was not accepted.
type ErrInvalidCode string

func (e ErrInvalidCode) Code() ErrCode { return EInvalidCode }
func (e ErrInvalidCode) Error() string { return fmt.Sprintf("[%s] %s", e.Code(), string(e)) }
func (e ErrInvalidCode) Message() string { return capitalize(string(e)) }

// ErrExpiredCode represents a challenge code presented after its expiry.
type ErrExpiredCode string

func (e ErrExpiredCode) Code() ErrCode { return EExpiredCode }
func (e ErrExpiredCode) Error() string { return fmt.Sprintf("[%s] %s", e.Code(), string(e)) }
func (e ErrExpiredCode) Message() string { return capitalize(string(e)) }

// ErrDeliveryFailed represents an email or SMS provider failure.
type ErrDeliveryFailed string

func (e ErrDeliveryFailed) Code() ErrCode { return EDeliveryFailed }
func (e ErrDeliveryFailed) Error() string { return fmt.Sprintf("[%s] %s", e.Code(), string(e)) }
func (e ErrDeliveryFailed) Message() string { return capitalize(string(e)) }

// ErrThrottle represents a rate limited request.
type ErrThrottle string

func (e ErrThrottle) Code() ErrCode { return EThrottle }
func (e ErrThrottle) Error() string { return fmt.Sprintf("[%s] %s", e.Code(), string(e)) }
func (e ErrThrottle) Message() string { return capitalize(string(e)) }

// DomainError returns a domain error if available.
func DomainError(err error) Error {
	if err == nil {
		return nil
	}

	var e Error
	if errors.As(err, &e) {
		return e
	}

	if e, ok := errors.Cause(err).(Error); ok {
		return e
	}

	return nil
}

// ErrorCode returns the code associated with a domain error.
// If an error is not part of the walletauth domain, it
// returns Internal.
func ErrorCode(err error) ErrCode {
	if err == nil {
		return ErrCode("")
	}

	e := DomainError(err)
	if e == nil {
		return EInternal
	}

	return e.Code()
}

func capitalize(s string) string {
	s = strings.TrimSpace(s)
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
