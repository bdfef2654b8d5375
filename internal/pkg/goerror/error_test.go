package goerror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"
)

func TestError_StatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "server", err: NewServer(errors.New("redis down")), want: http.StatusInternalServerError},
		{name: "bad request", err: NewBusiness("wrong password", CodeBadRequest), want: http.StatusBadRequest},
		{name: "conflict", err: NewBusiness("duplicate", CodeConflict), want: http.StatusConflict},
		{name: "unauthorized", err: NewBusiness("token", CodeUnauthorized), want: http.StatusUnauthorized},
		{name: "invalid input", err: NewInvalidInput(errors.New("x")), want: http.StatusBadRequest},
		{name: "invalid format", err: NewInvalidFormat(), want: http.StatusBadRequest},
		{name: "rate limited", err: NewRateLimited("wait", time.Minute), want: http.StatusBadRequest},
		{name: "too many", err: NewBusiness("slow down", CodeTooManyRequest), want: http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gerr *Error
			if !errors.As(tt.err, &gerr) {
				t.Fatalf("expected *Error, got %T", tt.err)
			}
			if got := gerr.StatusCode(); got != tt.want {
				t.Fatalf("StatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNewRateLimited(t *testing.T) {
	err := NewRateLimited("try again later", 42*time.Second)

	var gerr *Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if gerr.RetryAfter() != 42*time.Second {
		t.Fatalf("RetryAfter() = %s", gerr.RetryAfter())
	}
	if gerr.Msg() != "try again later" {
		t.Fatalf("Msg() = %q", gerr.Msg())
	}
	if gerr.Type() != TypeBusiness {
		t.Fatalf("Type() = %s", gerr.Type())
	}
}

func TestNewInvalidInput_Fields(t *testing.T) {
	err := NewInvalidInput(nil, "code", "must be 4 digits")

	var gerr *Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if gerr.Fields()["code"] != "must be 4 digits" {
		t.Fatalf("Fields() = %v", gerr.Fields())
	}

	odd := NewInvalidInput(nil, "code")
	if !errors.As(odd, &gerr) || gerr.Code() != CodeInvalidFormat {
		t.Fatalf("odd kv should be invalid format, got %v", odd)
	}
}

func TestIsServer(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	if !IsServer(fmt.Errorf("wrap: %w", NewServer(cause))) {
		t.Fatal("wrapped server error should be detected")
	}
	if IsServer(NewBusiness("nope", CodeBadRequest)) {
		t.Fatal("business error is not a server error")
	}
	if IsServer(cause) {
		t.Fatal("plain error is not a server error")
	}
	if !errors.Is(NewServer(cause), cause) {
		t.Fatal("server error must unwrap to its cause")
	}
}
