package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrapped(t *testing.T) {
	cause := errors.New("disk on fire")
	err := fmt.Errorf("submit: %w", NewStorage("Failed to store resume", cause))

	assert.Equal(t, Storage, KindOf(err))
	assert.True(t, Is(err, Storage))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Failed to store resume", Message(err))
}

func TestKindOfPlainError(t *testing.T) {
	err := errors.New("boom")

	assert.Equal(t, Unexpected, KindOf(err))
	assert.Equal(t, "Internal server error", Message(err))
	assert.False(t, Is(nil, Unexpected))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		Validation:  http.StatusBadRequest,
		Duplicate:   http.StatusConflict,
		NotFound:    http.StatusNotFound,
		Forbidden:   http.StatusForbidden,
		Storage:     http.StatusInternalServerError,
		Declaration: http.StatusInternalServerError,
		Unexpected:  http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, HTTPStatus(kind), kind.String())
	}
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "bad input", NewValidation("bad input").Error())
	assert.Equal(t, "declare failed: tx aborted", NewDeclaration("declare failed", errors.New("tx aborted")).Error())
}
