package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusCodeSentinels(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrTermNotFound, http.StatusNotFound},
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrIndexFull, http.StatusInsufficientStorage},
		{ErrSourceUnavailable, http.StatusServiceUnavailable},
		{ErrTimeout, http.StatusServiceUnavailable},
		{ErrInternal, http.StatusInternalServerError},
		{fmt.Errorf("opaque"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatusCode(tt.err); got != tt.want {
			t.Errorf("HTTPStatusCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestHTTPStatusCodeWrappedSentinel(t *testing.T) {
	wrapped := fmt.Errorf("looking up %q: %w", "dog", ErrTermNotFound)
	if got := HTTPStatusCode(wrapped); got != http.StatusNotFound {
		t.Errorf("wrapped sentinel status = %d, want 404", got)
	}
}

func TestAppErrorOverridesStatus(t *testing.T) {
	err := New(ErrInternal, http.StatusTeapot, "odd case")
	if got := HTTPStatusCode(err); got != http.StatusTeapot {
		t.Errorf("AppError status = %d, want 418", got)
	}
	if err.Error() != "internal error: odd case" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestNewfFormatsMessage(t *testing.T) {
	err := Newf(ErrInvalidInput, http.StatusBadRequest, "bad term %q", "x y")
	if err.Message != `bad term "x y"` {
		t.Errorf("Message = %q", err.Message)
	}
}
