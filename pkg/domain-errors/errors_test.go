package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("row not found")
	err := Wrap(cause, CodeNotFound, "activity not found")

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "activity not found: row not found", err.Error())
	assert.True(t, Is(err, CodeNotFound))
}

func TestIsMatchesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("handling request: %w", New(CodeCapacityExceeded, "activity is full"))

	assert.True(t, Is(err, CodeCapacityExceeded))
	assert.False(t, Is(err, CodeConflict))
	assert.Equal(t, CodeCapacityExceeded, CodeOf(err))
}

func TestCodeOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain error")))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeNotFound:         http.StatusNotFound,
		CodeConflict:         http.StatusBadRequest,
		CodeCapacityExceeded: http.StatusBadRequest,
		CodeNotEnrolled:      http.StatusBadRequest,
		CodeValidation:       http.StatusBadRequest,
		CodeTimeout:          http.StatusGatewayTimeout,
		CodeUnavailable:      http.StatusServiceUnavailable,
		CodeInternal:         http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), string(code))
	}
}
