package common

import (
	"errors"
	"net/http"

	familydomain "cepas/internal/domain/family"
	interviewdomain "cepas/internal/domain/interview"
	recordsdomain "cepas/internal/domain/records"
	userdomain "cepas/internal/domain/user"
	"cepas/pkg/logger"
)

const (
	CodeValidation  = "validation_error"
	CodeAuth        = "auth_error"
	CodeForbidden   = "forbidden"
	CodeNotFound    = "not_found"
	CodeConflict    = "conflict"
	CodeInternal    = "internal_error"
	CodeInvalidJSON = "invalid_json"
)

var validationErrors = []error{
	recordsdomain.ErrInvalidInput,
	recordsdomain.ErrUnknownEntity,
	recordsdomain.ErrUnknownColumn,
	recordsdomain.ErrEmptyBody,
	recordsdomain.ErrConstraint,
	familydomain.ErrInvalidInput,
	interviewdomain.ErrInvalidInput,
	interviewdomain.ErrNoScheduledVisit,
	userdomain.ErrInvalidInput,
	userdomain.ErrUsernameTaken,
}

var notFoundErrors = []error{
	recordsdomain.ErrNotFound,
	familydomain.ErrFamilyNotFound,
	interviewdomain.ErrFamilyNotFound,
	interviewdomain.ErrInterviewNotFound,
}

// Classify maps a domain error to its HTTP status and error code. Anything
// unrecognized is a persistence failure.
func Classify(err error) (int, string) {
	switch {
	case errors.Is(err, recordsdomain.ErrConflict):
		return http.StatusConflict, CodeConflict
	case matchesAny(err, validationErrors):
		return http.StatusBadRequest, CodeValidation
	case userdomain.IsAuthError(err):
		return http.StatusUnauthorized, CodeAuth
	case matchesAny(err, notFoundErrors):
		return http.StatusNotFound, CodeNotFound
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// Fail logs err at the level its status calls for and writes the error body.
func Fail(w http.ResponseWriter, log logger.Logger, op string, err error, args ...any) {
	status, code := Classify(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		log.InternalError(op+" failed", err, args...)
		message = "internal error"
	} else {
		log.BusinessError(op+" rejected", err, args...)
	}
	writeError(w, status, code, message, err)
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
