package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sortlab/sortlab-api/internal/api/shared"
	"github.com/sortlab/sortlab-api/internal/service"
	"github.com/sortlab/sortlab-api/internal/service/auth"
	"github.com/sortlab/sortlab-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking internal error types or messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return http.StatusUnauthorized

	case errors.Is(err, service.ErrNotOwned):
		return http.StatusForbidden

	case errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrStudyNotFound),
		errors.Is(err, store.ErrResultNotFound),
		errors.Is(err, store.ErrInsightNotFound):
		return http.StatusNotFound

	case errors.Is(err, store.ErrEmailExists),
		errors.Is(err, store.ErrDuplicateParticipant),
		errors.Is(err, service.ErrStudyNotEditable),
		errors.Is(err, service.ErrInvalidStatusTransition),
		errors.Is(err, service.ErrStudyNotAcceptingResults):
		return http.StatusConflict

	case errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly message for the
// error. Internal details stay in the logs.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken):
		return "Invalid token"

	case errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid refresh token"

	case errors.Is(err, service.ErrNotOwned):
		return "You do not own this study"

	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, store.ErrStudyNotFound):
		return "Study not found"

	case errors.Is(err, store.ErrResultNotFound):
		return "Result not found"

	case errors.Is(err, store.ErrInsightNotFound):
		return "No insight available for this study"

	case errors.Is(err, store.ErrEmailExists):
		return "Email already exists"

	case errors.Is(err, store.ErrDuplicateParticipant):
		return "Participant has already submitted a result for this study"

	case errors.Is(err, service.ErrStudyNotEditable):
		return "Study can only be edited while in draft"

	case errors.Is(err, service.ErrInvalidStatusTransition):
		return "Invalid study status transition"

	case errors.Is(err, service.ErrStudyNotAcceptingResults):
		return "Study is not accepting results"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	default:
		return "An unexpected error occurred"
	}
}

// RespondWithMappedError translates err to a status code and safe message
// and writes the error response, logging the underlying error.
func RespondWithMappedError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}

// SanitizeValidationError converts validator errors into a user-friendly
// message without echoing submitted values back.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	if strings.Contains(errMsg, "Field validation") {
		// Example: "Key: 'LoginRequest.Email' Error:Field validation for
		// 'Email' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}
				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
