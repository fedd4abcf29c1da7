package api

import (
	"errors"
	"net/http"

	"github.com/okian/bathlog/internal/adapters/mq/queue"
	"github.com/okian/bathlog/internal/adapters/repository"
	"github.com/okian/bathlog/internal/domain/export"
	"github.com/okian/bathlog/internal/domain/model"
	"github.com/okian/bathlog/internal/domain/reconcile"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest       = errors.New("bad request")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrTooManyRequests  = errors.New("too many requests")
	ErrMethodNotAllowed = errors.New("method not allowed")
	ErrInternal         = errors.New("internal error")
)

// OpError records the handler operation, the error kind and the cause.
type OpError struct {
	Op   string
	Kind error
	Err  error
}

func (e *OpError) Error() string {
	switch {
	case e.Err != nil && e.Kind != nil:
		return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
	case e.Err != nil:
		return e.Op + ": " + e.Err.Error()
	case e.Kind != nil:
		return e.Op + ": " + e.Kind.Error()
	}
	return e.Op
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *OpError) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewKind returns an error of kind raised by op.
func NewKind(op string, kind error) error {
	return &OpError{Op: op, Kind: kind}
}

// WrapKind attaches op and kind to err.
func WrapKind(op string, kind, err error) error {
	return &OpError{Op: op, Kind: kind, Err: err}
}

// Wrap attaches op to err and classifies it.
func Wrap(op string, err error) error {
	return &OpError{Op: op, Kind: classify(err), Err: err}
}

// classify maps domain and adapter errors onto API kinds.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, model.ErrMissingID),
		errors.Is(err, model.ErrInvalidType),
		errors.Is(err, model.ErrInvalidTimestamp),
		errors.Is(err, model.ErrInvalidRange),
		errors.Is(err, model.ErrInvalidFilter),
		errors.Is(err, export.ErrUnsupportedFormat),
		errors.Is(err, export.ErrInvalidTimeFormat),
		errors.Is(err, repository.ErrBadSnapshot):
		return ErrBadRequest
	case errors.Is(err, ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrConflict),
		errors.Is(err, reconcile.ErrSyncInFlight),
		errors.Is(err, repository.ErrDuplicateID):
		return ErrConflict
	case errors.Is(err, ErrTooManyRequests), errors.Is(err, queue.ErrDebounced):
		return ErrTooManyRequests
	case errors.Is(err, ErrMethodNotAllowed):
		return ErrMethodNotAllowed
	}
	return ErrInternal
}

// statusFor returns the HTTP status and error code for err.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests, "too_many_requests"
	case errors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, "method_not_allowed"
	}
	return http.StatusInternalServerError, "internal_error"
}
