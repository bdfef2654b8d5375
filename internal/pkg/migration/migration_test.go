package migration

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func TestRun_Validation(t *testing.T) {
	if err := Run("", Up); !errors.Is(err, ErrEmptyDSN) {
		t.Fatalf("Run(empty) error = %v", err)
	}
	if err := Run("postgres://x", "sideways"); err == nil {
		t.Fatal("expected direction error")
	}
}

func TestToPgx5URL(t *testing.T) {
	tests := map[string]string{
		"postgres://u:p@h:5432/db":   "pgx5://u:p@h:5432/db",
		"postgresql://u:p@h:5432/db": "pgx5://u:p@h:5432/db",
		"pgx5://u:p@h/db":            "pgx5://u:p@h/db",
	}
	for in, want := range tests {
		if got := toPgx5URL(in); got != want {
			t.Errorf("toPgx5URL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRun_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "postgres:17-alpine",
		tcpostgres.WithDatabase("otpauth"),
		tcpostgres.WithUsername("otpauth"),
		tcpostgres.WithPassword("otpauth"),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	if err := Run(dsn, Up); err != nil {
		t.Fatalf("Run(up) error = %v", err)
	}
	if err := Run(dsn, Up); err != nil {
		t.Fatalf("second Run(up) error = %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pgxpool.New() error = %v", err)
	}
	defer pool.Close()

	var n int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		t.Fatalf("users table missing: %v", err)
	}
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM sms_delivery_logs`).Scan(&n); err != nil {
		t.Fatalf("sms_delivery_logs table missing: %v", err)
	}

	if err := Run(dsn, Down); err != nil {
		t.Fatalf("Run(down) error = %v", err)
	}
}
