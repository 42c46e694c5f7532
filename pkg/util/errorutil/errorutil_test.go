package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestToDomainError_PassesThroughWrapped(t *testing.T) {
	base := NewConflict("username already taken", map[string]any{"field": "username"})
	wrapped := fmt.Errorf("register: %w", base)

	got := ToDomainError(wrapped)
	if got.Code != "CONFLICT" || got.HTTPStatus != http.StatusConflict {
		t.Fatalf("got %s/%d, want CONFLICT/409", got.Code, got.HTTPStatus)
	}
	if got.Details["field"] != "username" {
		t.Errorf("details lost: %v", got.Details)
	}
}

func TestToDomainError_UnknownBecomesInternal(t *testing.T) {
	cause := errors.New("connection reset")
	got := ToDomainError(cause)
	if got.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", got.HTTPStatus)
	}
	if got.Message != "internal server error" {
		t.Errorf("message leaks cause: %q", got.Message)
	}
	if !errors.Is(got, cause) {
		t.Error("cause should stay reachable through Unwrap")
	}
}

func TestToDomainError_Nil(t *testing.T) {
	if ToDomainError(nil) != nil {
		t.Fatal("expected nil")
	}
}

func TestNewInvalidCredentials(t *testing.T) {
	de := ToDomainError(NewInvalidCredentials())
	if de.HTTPStatus != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", de.HTTPStatus)
	}
	if de.Message != "Invalid username or password" {
		t.Errorf("message = %q", de.Message)
	}
}

func TestFromStatus(t *testing.T) {
	cases := []struct {
		status int
		code   string
		msg    string
	}{
		{http.StatusNotFound, "NOT_FOUND", "Not Found"},
		{http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method Not Allowed"},
		{http.StatusBadGateway, "INTERNAL_ERROR", "Bad Gateway"},
		{http.StatusTeapot, "REQUEST_FAILED", "I'm a teapot"},
	}
	for _, tc := range cases {
		de := FromStatus(tc.status, "")
		if de.Code != tc.code || de.Message != tc.msg {
			t.Errorf("FromStatus(%d) = %s/%q, want %s/%q", tc.status, de.Code, de.Message, tc.code, tc.msg)
		}
	}
}
