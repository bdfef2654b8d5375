package sms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newProvider(t *testing.T, url string, retries uint64) *HTTPProvider {
	t.Helper()
	p, err := NewHTTPProvider(HTTPConfig{URL: url, Token: "tok", MaxRetries: retries, Backoff: time.Millisecond})
	if err != nil {
		t.Fatalf("NewHTTPProvider() error = %v", err)
	}
	return p
}

func TestNewHTTPProvider_Defaults(t *testing.T) {
	if _, err := NewHTTPProvider(HTTPConfig{URL: "http://x"}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("missing token error = %v", err)
	}

	p := newProvider(t, "http://x", 0)
	if p.client.Timeout != defaultTimeout {
		t.Errorf("Timeout = %s, want %s", p.client.Timeout, defaultTimeout)
	}
	if p.source != "auth_service" {
		t.Errorf("source = %q", p.source)
	}
}

func TestSend_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q", r.Method)
		}
		if r.Header.Get("X-Token") != "tok" {
			t.Errorf("X-Token = %q", r.Header.Get("X-Token"))
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}

		var body sendRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if !body.Validate || len(body.Messages) != 1 {
			t.Errorf("body = %+v", body)
		}
		m := body.Messages[0]
		if m.Recipient != "88888888888" || m.Source != "auth_service" || m.Text != "Код для входа в личный кабинет - 4821" {
			t.Errorf("message = %+v", m)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"result":{"id":"abc"}}`))
	}))
	defer server.Close()

	res, err := newProvider(t, server.URL, 0).Send(context.Background(), Message{Recipient: "88888888888", Code: "4821"})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if res.StatusCode != http.StatusOK || res.Attempts != 1 || res.Response["success"] != true {
		t.Fatalf("Send() = %+v", res)
	}
}

func TestSend_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	defer server.Close()

	res, err := newProvider(t, server.URL, 2).Send(context.Background(), Message{Recipient: "88888888888", Code: "1234"})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if res.Attempts != 3 {
		t.Fatalf("Attempts = %d, want 3", res.Attempts)
	}
}

func TestSend_ClientErrorIsFinal(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad token"}`))
	}))
	defer server.Close()

	_, err := newProvider(t, server.URL, 3).Send(context.Background(), Message{Recipient: "88888888888", Code: "1234"})
	var serr *StatusError
	if !errors.As(err, &serr) || serr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("Send() error = %v, want 401 StatusError", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("provider called %d times, want 1", calls.Load())
	}
	if strings.Contains(err.Error(), "1234") {
		t.Fatal("error must not leak the code")
	}
}

func TestSend_GivesUpAfterRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	res, err := newProvider(t, server.URL, 1).Send(context.Background(), Message{Recipient: "88888888888", Code: "1234"})
	if err == nil {
		t.Fatal("expected error")
	}
	if res.Attempts != 2 {
		t.Fatalf("Attempts = %d, want 2", res.Attempts)
	}
}

func TestMaskPhone(t *testing.T) {
	if got := MaskPhone("88888888888"); got != "88*******88" {
		t.Fatalf("MaskPhone() = %q", got)
	}
	if got := MaskPhone("123"); got != "***" {
		t.Fatalf("MaskPhone(short) = %q", got)
	}
}
