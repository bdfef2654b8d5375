package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/otpauth/internal/notification/entity"
	"github.com/shandysiswandi/otpauth/internal/pkg/instrument"
	"github.com/shandysiswandi/otpauth/internal/pkg/migration"
	"github.com/shandysiswandi/otpauth/internal/pkg/valueobject"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func TestDB_SMSDeliveryLogs(t *testing.T) {
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
	if err := migration.Run(dsn, migration.Up); err != nil {
		t.Fatalf("migration.Run() error = %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pgxpool.New() error = %v", err)
	}
	defer pool.Close()

	s := NewDB(pool, instrument.NewNoop())

	failed := entity.CreateSMSDeliveryLog{
		ID: 1, DispatchID: "d-1", UserID: 7, Recipient: "88*******88",
		Status: entity.DeliveryStatusFailed, Attempts: 3,
		ProviderResponse: valueobject.JSONMap{"error": "status 503"},
	}
	sent := entity.CreateSMSDeliveryLog{
		ID: 2, DispatchID: "d-1", UserID: 7, Recipient: "88*******88",
		Status: entity.DeliveryStatusSent, Attempts: 1,
	}
	for _, l := range []entity.CreateSMSDeliveryLog{failed, sent} {
		if err := s.CreateSMSDeliveryLog(ctx, l); err != nil {
			t.Fatalf("CreateSMSDeliveryLog() error = %v", err)
		}
	}

	logs, err := s.ListSMSDeliveryLogs(ctx, "d-1")
	if err != nil {
		t.Fatalf("ListSMSDeliveryLogs() error = %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("got %d logs, want 2", len(logs))
	}
	if logs[0].Status != entity.DeliveryStatusFailed || logs[0].ProviderResponse.GetString("error") != "status 503" {
		t.Fatalf("first log = %+v", logs[0])
	}
	if logs[1].Status != entity.DeliveryStatusSent || len(logs[1].ProviderResponse) != 0 {
		t.Fatalf("second log = %+v", logs[1])
	}
}
