package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/sortlab/sortlab-api/internal/service"
	"github.com/sortlab/sortlab-api/internal/service/auth"
	"github.com/sortlab/sortlab-api/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"expired token", auth.ErrExpiredToken, http.StatusUnauthorized},
		{"invalid token", auth.ErrInvalidToken, http.StatusUnauthorized},
		{"invalid refresh token", auth.ErrInvalidRefreshToken, http.StatusUnauthorized},
		{"not owned", service.ErrNotOwned, http.StatusForbidden},
		{"study not found", store.ErrStudyNotFound, http.StatusNotFound},
		{"insight not found", store.ErrInsightNotFound, http.StatusNotFound},
		{"user not found", store.ErrUserNotFound, http.StatusNotFound},
		{"email exists", store.ErrEmailExists, http.StatusConflict},
		{"duplicate participant", store.ErrDuplicateParticipant, http.StatusConflict},
		{"not editable", service.ErrStudyNotEditable, http.StatusConflict},
		{"bad transition", service.ErrInvalidStatusTransition, http.StatusConflict},
		{"not accepting results", service.ErrStudyNotAcceptingResults, http.StatusConflict},
		{"invalid entity", store.ErrInvalidEntity, http.StatusBadRequest},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
		{"nil", nil, http.StatusInternalServerError},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestMapErrorToStatusCodeWrapped(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("context: %w", store.ErrStudyNotFound)
	assert.Equal(t, http.StatusNotFound, MapErrorToStatusCode(wrapped))
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Study not found", GetSafeErrorMessage(store.ErrStudyNotFound))
	assert.Equal(t, "You do not own this study", GetSafeErrorMessage(service.ErrNotOwned))
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(errors.New("pq: relation does not exist")))
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))

	// Internal detail must never leak through a safe message.
	msg := GetSafeErrorMessage(fmt.Errorf("connect to db at 10.0.0.5: %w", errors.New("refused")))
	assert.NotContains(t, msg, "10.0.0.5")
}

func TestSanitizeValidationError(t *testing.T) {
	t.Parallel()

	err := errors.New("Key: 'LoginRequest.Email' Error:Field validation for 'Email' failed on the 'required' tag")
	assert.Equal(t, "Invalid Email: required field", SanitizeValidationError(err))

	err = errors.New("Key: 'RegisterRequest.Password' Error:Field validation for 'Password' failed on the 'min' tag")
	assert.Equal(t, "Invalid Password: too short", SanitizeValidationError(err))

	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("something else")))
}
