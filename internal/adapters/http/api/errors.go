package api

import (
	"errors"
	"net/http"

	"github.com/okian/courtside/internal/domain/model"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrInternal   = errors.New("internal error")
)

// Error records the handler operation and the kind an error was classified as.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Kind != nil && !errors.Is(e.Err, e.Kind):
		return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
	case e.Err != nil:
		return e.Op + ": " + e.Err.Error()
	case e.Kind != nil:
		return e.Op + ": " + e.Kind.Error()
	default:
		return e.Op
	}
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *Error) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewKind returns an error of the given kind with no further cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// WrapKind wraps err under an explicit kind.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// Wrap wraps err, deriving the kind from the domain sentinel it carries.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kindOf(err), Err: err}
}

type mapping struct {
	kind   error
	status int
	code   string
}

// mappings is ordered; the first kind matched by errors.Is wins.
var mappings = []mapping{
	{model.ErrDuplicateCourt, http.StatusConflict, "duplicate_court"},
	{model.ErrUnknownCourt, http.StatusNotFound, "unknown_court"},
	{model.ErrUnknownReferee, http.StatusForbidden, "unknown_referee"},
	{model.ErrInvalidCredential, http.StatusUnauthorized, "invalid_credential"},
	{model.ErrInvalidCourt, http.StatusBadRequest, "invalid_court"},
	{model.ErrInvalidPlayer, http.StatusBadRequest, "invalid_player"},
	{model.ErrDuplicateSubmission, http.StatusOK, "duplicate_submission"},
	{ErrBadRequest, http.StatusBadRequest, "bad_request"},
}

func kindOf(err error) error {
	for _, m := range mappings {
		if errors.Is(err, m.kind) {
			return m.kind
		}
	}
	return ErrInternal
}

// Classify maps an error to its HTTP status and wire code.
func Classify(err error) (int, string) {
	for _, m := range mappings {
		if errors.Is(err, m.kind) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal_error"
}
