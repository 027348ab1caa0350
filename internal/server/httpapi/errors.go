package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/ideaboard/internal/common"
	"github.com/gin-gonic/gin"
)

// detailError overrides the response detail of the error it wraps.
type detailError struct {
	err    error
	detail string
}

func (e *detailError) Error() string { return e.detail + ": " + e.err.Error() }
func (e *detailError) Unwrap() error { return e.err }

func withDetail(err error, detail string) error {
	return &detailError{err: err, detail: detail}
}

type errorMapping struct {
	target error
	status int
	detail string
}

var errorMappings = []errorMapping{
	{common.ErrNotAuthenticated, http.StatusUnauthorized, "Not authenticated"},
	{common.ErrCouldNotValidate, http.StatusUnauthorized, "Could not validate credentials"},
	{common.ErrorUnauthorized, http.StatusUnauthorized, "Incorrect username or password"},
	{common.ErrInactiveUser, http.StatusBadRequest, "Inactive user"},
	{common.ErrForbidden, http.StatusForbidden, "Not enough permissions"},
	{common.ErrInvalidPassword, http.StatusForbidden, "Invalid password"},
	{common.ErrorNotFound, http.StatusNotFound, "Not found"},
	{common.ErrorAlreadyExists, http.StatusConflict, "Already exists"},
	{common.ErrorValidation, http.StatusUnprocessableEntity, "Validation error"},
}

// writeError is the single place where service errors become responses.
func writeError(c *gin.Context, err error) {
	status, detail := http.StatusInternalServerError, "Internal server error"

	var ve *validationError
	switch {
	case errors.As(err, &ve):
		status, detail = http.StatusUnprocessableEntity, ve.msg
	default:
		for _, m := range errorMappings {
			if errors.Is(err, m.target) {
				status, detail = m.status, m.detail
				break
			}
		}
	}

	var de *detailError
	if status != http.StatusInternalServerError && errors.As(err, &de) {
		detail = de.detail
	}

	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	if status == http.StatusInternalServerError {
		loggerFrom(c).Error(c.Request.Context(), "request failed", "error", err)
	}

	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

// validationError marks malformed input. It matches common.ErrorValidation.
type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }
func (e *validationError) Is(target error) bool {
	return target == common.ErrorValidation
}

func invalid(msg string) error {
	return &validationError{msg: msg}
}
