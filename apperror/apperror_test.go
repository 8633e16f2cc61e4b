package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{Validation("missing title"), http.StatusBadRequest},
		{Auth("bad credentials"), http.StatusUnauthorized},
		{Authorization("forbidden"), http.StatusForbidden},
		{NotFound("task not found"), http.StatusNotFound},
		{Unavailable("push disabled"), http.StatusServiceUnavailable},
		{Dependency("store failed", errors.New("boom")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.err.Status(); got != tt.want {
			t.Errorf("%q Status() = %d, want %d", tt.err.Message, got, tt.want)
		}
	}
}

func TestAsUnwrapsChain(t *testing.T) {
	wrapped := fmt.Errorf("change status: %w", NotFound("task not found"))
	got := As(wrapped)
	if got.Kind != KindNotFound || got.Message != "task not found" {
		t.Errorf("As() = %+v", got)
	}
	if !IsKind(wrapped, KindNotFound) {
		t.Error("IsKind() = false")
	}

	plain := errors.New("connection refused")
	got = As(plain)
	if got.Kind != KindDependency || !errors.Is(got, plain) {
		t.Errorf("As(plain) = %+v", got)
	}
}
