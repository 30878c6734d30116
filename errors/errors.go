package errors

import (
	"fmt"
	"net/http"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies a failure by where it was detected and how the caller may recover.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation is a client-side check that never reached the network.
	KindValidation
	// KindTransport covers unreachable hosts and malformed responses.
	KindTransport
	// KindServer is a non-2xx response other than 401.
	KindServer
	// KindAuth is a 401; the session has already been torn down.
	KindAuth
	// KindForbidden is a role check refused locally or by the backend.
	KindForbidden
	// KindProvider is a geocoding or image-host failure.
	KindProvider
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindTransport:
		return "transport"
	case KindServer:
		return "server"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindProvider:
		return "provider"
	default:
		return "unknown"
	}
}

type Error struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
	Kind    Kind   `json:"-"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s error (status %d)", e.Kind, e.Status)
	}
	return e.Message
}

// New builds an Error whose kind is derived from the HTTP status.
func New(message string, status int) *Error {
	return &Error{Message: message, Status: status, Kind: kindForStatus(status)}
}

func Validation(message string) *Error {
	return &Error{Message: message, Status: http.StatusBadRequest, Kind: KindValidation}
}

func Transport(message string) *Error {
	return &Error{Message: message, Status: http.StatusBadGateway, Kind: KindTransport}
}

func Server(status int, message string) *Error {
	return &Error{Message: message, Status: status, Kind: KindServer}
}

func Auth(message string) *Error {
	return &Error{Message: message, Status: http.StatusUnauthorized, Kind: KindAuth}
}

func Forbidden(message string) *Error {
	return &Error{Message: message, Status: http.StatusForbidden, Kind: KindForbidden}
}

func Provider(message string) *Error {
	return &Error{Message: message, Status: http.StatusBadGateway, Kind: KindProvider}
}

var ErrBadRequest = New("bad request", http.StatusBadRequest)

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuth
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return KindValidation
	case status >= 400:
		return KindServer
	default:
		return KindUnknown
	}
}

// As reports whether err wraps an *Error and returns it.
func As(err error) (*Error, bool) {
	var e *Error
	if pkgerrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindUnknown
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// StatusOf returns the HTTP status carried by err, or 500 for foreign errors.
func StatusOf(err error) int {
	if e, ok := As(err); ok && e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}

// Message returns the user-facing text of err, falling back when it carries none.
func Message(err error, fallback string) string {
	if e, ok := As(err); ok && e.Message != "" {
		return e.Message
	}
	return fallback
}

func Wrap(err error, message string) error {
	return pkgerrors.Wrap(err, message)
}

func Is(err, target error) bool {
	return pkgerrors.Is(err, target)
}
