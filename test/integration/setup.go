package integration

import (
	"context"
	"database/sql"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	_ "github.com/lib/pq"

	handler "github.com/quickpoll/quickpoll/internal/adapters/handler/http"
	"github.com/quickpoll/quickpoll/internal/adapters/handler/ws"
	"github.com/quickpoll/quickpoll/internal/adapters/repository/postgres"
	"github.com/quickpoll/quickpoll/internal/core/services"
	"github.com/quickpoll/quickpoll/internal/realtime"
)

type testApp struct {
	Server    *httptest.Server
	DB        *sql.DB
	container testcontainers.Container
}

func setupPostgresContainer(ctx context.Context) (testcontainers.Container, string, error) {
	pgC, err := pgcontainer.Run(ctx, "postgres:15-alpine",
		pgcontainer.WithDatabase("testdb"),
		pgcontainer.WithUsername("user"),
		pgcontainer.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgC.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", err
	}

	return pgC, connStr, nil
}

func applyMigrations(db *sql.DB) error {
	dirPath := filepath.Join("..", "..", "internal", "adapters", "repository", "postgres", "migrations")

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		if !strings.HasSuffix(entry.Name(), "up.sql") {
			continue
		}

		fullPath := filepath.Join(dirPath, entry.Name())
		content, err := os.ReadFile(fullPath)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", entry.Name(), err)
		}

		_, err = db.Exec(string(content))
		if err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func setupTestApp(t *testing.T) *testApp {
	t.Helper()

	ctx := context.Background()
	container, connStr, err := setupPostgresContainer(ctx)
	require.NoError(t, err)

	db, err := sql.Open("postgres", connStr)
	require.NoError(t, err)
	require.NoError(t, db.Ping())
	require.NoError(t, applyMigrations(db))

	log := zap.NewNop()
	pollRepo := postgres.NewPollRepository(db)
	ledger := postgres.NewBallotLedger(db)
	hub := realtime.NewHub(log)

	h := handler.NewHandler(
		handler.NewPollHandler(services.NewPollService(pollRepo, hub)),
		handler.NewVoteHandler(services.NewMutationService(pollRepo, ledger, hub, log)),
		ws.NewHandler(hub, log),
	)

	return &testApp{
		Server:    httptest.NewServer(h),
		DB:        db,
		container: container,
	}
}

func (app *testApp) Teardown(t *testing.T) {
	t.Helper()

	app.Server.Close()
	app.DB.Close()
	if err := app.container.Terminate(context.Background()); err != nil {
		t.Logf("failed to terminate container: %v", err)
	}
}
