package instrument

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	out := map[string]any{}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("log line is not json: %v (%s)", err, buf.String())
	}
	buf.Reset()
	return out
}

func TestLogger_MasksFields(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "otpauth", nil, []string{"password", " Code "})

	logger.Info("login", "password", "hunter22", "identifier", "alice")
	line := decodeLine(t, &buf)
	if line["password"] != "***" || line["identifier"] != "alice" {
		t.Fatalf("line = %v", line)
	}

	logger.Info("body", "payload", `{"identifier":"alice","code":"4821"}`)
	line = decodeLine(t, &buf)
	var payload map[string]any
	if err := json.Unmarshal([]byte(line["payload"].(string)), &payload); err != nil {
		t.Fatalf("payload = %v", line["payload"])
	}
	if payload["code"] != "***" || payload["identifier"] != "alice" {
		t.Fatalf("payload = %v", payload)
	}

	logger.Info("nested", "req", map[string]any{"password": "x", "user": map[string]any{"code": "1"}})
	line = decodeLine(t, &buf)
	req := line["req"].(map[string]any)
	if req["password"] != "***" || req["user"].(map[string]any)["code"] != "***" {
		t.Fatalf("req = %v", req)
	}
}

func TestLogger_CorrelationID(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "otpauth", nil, nil).With("module", "identity")

	ctx := SetCorrelationID(context.Background(), "cid-123")
	logger.InfoContext(ctx, "hello")

	line := decodeLine(t, &buf)
	if line["_cID"] != "cid-123" || line["service"] != "otpauth" || line["module"] != "identity" {
		t.Fatalf("line = %v", line)
	}

	logger.Info("no cid")
	if line := decodeLine(t, &buf); line["_cID"] != nil {
		t.Fatalf("unexpected _cID in %v", line)
	}
}

func TestCorrelationID(t *testing.T) {
	if GetCorrelationID(context.Background()) != "" {
		t.Fatal("empty context must have no correlation id")
	}
	ctx := SetCorrelationID(context.Background(), "abc")
	if GetCorrelationID(ctx) != "abc" {
		t.Fatalf("GetCorrelationID() = %q", GetCorrelationID(ctx))
	}
}

func TestNew_NilConfig(t *testing.T) {
	ins, err := New(context.Background(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_, span := ins.Tracer("test").Start(context.Background(), "op")
	span.End()
	if err := ins.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
}

func TestMasker_Phone(t *testing.T) {
	m := NewMasker([]string{"password"})

	tests := []struct {
		key   string
		value any
		want  any
	}{
		{key: "phone_number", value: "88888888888", want: "88*******88"},
		{key: "identifier", value: "89161234567", want: "89*******67"},
		{key: "identifier", value: "alice", want: "alice"},
		{key: "username", value: "89161234567", want: "89161234567"},
		{key: "Password", value: "89161234567", want: "***"},
	}

	for _, tt := range tests {
		if got := m.Field(tt.key, tt.value); got != tt.want {
			t.Fatalf("Field(%q, %v) = %v, want %v", tt.key, tt.value, got, tt.want)
		}
	}
}

func TestLogger_MasksIntField(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "otpauth", nil, []string{"code"})

	logger.Info("verify", "code", 4821, "phone_number", "89161234567")
	line := decodeLine(t, &buf)
	if line["code"] != "***" || line["phone_number"] != "89*******67" {
		t.Fatalf("line = %v", line)
	}
}
