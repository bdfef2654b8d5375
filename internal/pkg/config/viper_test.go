package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sample = `
otp:
  ttl: 2m
  rate_limit:
    window: 60
    max: 1
jwt:
  secret: c2VjcmV0
  audiences: "api, web,,"
app:
  maintenance:
    endpoints: "POST /login:true"
`

func TestViper_Getters(t *testing.T) {
	cfg, err := NewViperFromBytes("yaml", []byte(sample))
	if err != nil {
		t.Fatalf("NewViperFromBytes() error = %v", err)
	}

	if got := cfg.GetDuration("otp.ttl"); got != 2*time.Minute {
		t.Fatalf("GetDuration(otp.ttl) = %s", got)
	}
	if got := cfg.GetDuration("otp.rate_limit.window"); got != time.Minute {
		t.Fatalf("GetDuration(window) = %s", got)
	}
	if got := cfg.GetDuration("missing"); got != 0 {
		t.Fatalf("GetDuration(missing) = %s", got)
	}
	if got := cfg.GetInt64("otp.rate_limit.max"); got != 1 {
		t.Fatalf("GetInt64() = %d", got)
	}
	if got := string(cfg.GetBinary("jwt.secret")); got != "secret" {
		t.Fatalf("GetBinary() = %q", got)
	}

	aud := cfg.GetArray("jwt.audiences")
	if len(aud) != 2 || aud[0] != "api" || aud[1] != "web" {
		t.Fatalf("GetArray() = %q", aud)
	}
	if len(cfg.GetArray("missing")) != 0 {
		t.Fatal("GetArray(missing) must be empty")
	}

	if m := cfg.GetMap("app.maintenance.endpoints"); m["POST /login"] != "true" {
		t.Fatalf("GetMap() = %v", m)
	}
}

func TestViper_EnvOverride(t *testing.T) {
	t.Setenv("APP_OTP_RATE_LIMIT_MAX", "3")

	cfg, err := NewViperFromBytes("yaml", []byte(sample))
	if err != nil {
		t.Fatalf("NewViperFromBytes() error = %v", err)
	}
	if got := cfg.GetInt("otp.rate_limit.max"); got != 3 {
		t.Fatalf("GetInt() = %d, want env override 3", got)
	}
}

func TestNewViper_File(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(file, []byte(sample), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := NewViper(file)
	if err != nil {
		t.Fatalf("NewViper() error = %v", err)
	}
	defer cfg.Close()

	if got := cfg.GetDuration("otp.ttl"); got != 2*time.Minute {
		t.Fatalf("GetDuration() = %s", got)
	}
}

func TestNewViperFromBytes_RequiresType(t *testing.T) {
	if _, err := NewViperFromBytes(" ", nil); err == nil {
		t.Fatal("expected error")
	}
}
