package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesOnCode(t *testing.T) {
	cause := errors.New("write conflict")
	wrapped := fmt.Errorf("service: %w", ErrEndpointCreationFailed.Wrap(cause))

	assert.ErrorIs(t, wrapped, ErrEndpointCreationFailed)
	assert.ErrorIs(t, wrapped, cause)
	assert.NotErrorIs(t, wrapped, ErrCollectionNotFound)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", ErrCollectionNotFound, http.StatusNotFound},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"validation", Validation("bad flag"), http.StatusBadRequest},
		{"creation", Creation("insert", errors.New("boom")), http.StatusInternalServerError},
		{"update", Update("update", errors.New("boom")), http.StatusInternalServerError},
		{"duplicate", ErrDuplicateEmail, http.StatusConflict},
		{"unauthorized", ErrInvalidCredentials, http.StatusUnauthorized},
		{"untyped", errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestErrorMessageIncludesCause(t *testing.T) {
	err := Deletion("failed to delete collection", errors.New("timeout"))
	assert.Equal(t, "failed to delete collection: timeout", err.Error())
	assert.Equal(t, KindDeletionFailed, KindOf(err))
	assert.True(t, IsTyped(err))
	assert.False(t, IsTyped(errors.New("x")))
}
