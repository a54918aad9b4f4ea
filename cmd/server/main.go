package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	stdhttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/quickpoll/quickpoll/internal/adapters/handler/http"
	"github.com/quickpoll/quickpoll/internal/adapters/handler/ws"
	"github.com/quickpoll/quickpoll/internal/adapters/repository/memory"
	"github.com/quickpoll/quickpoll/internal/adapters/repository/postgres"
	"github.com/quickpoll/quickpoll/internal/config"
	"github.com/quickpoll/quickpoll/internal/core/ports"
	"github.com/quickpoll/quickpoll/internal/core/services"
	"github.com/quickpoll/quickpoll/internal/realtime"
)

func main() {
	demo := flag.Bool("demo", false, "run on in-memory storage, no database required")
	flag.Parse()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg := config.Load()

	var (
		pollRepo ports.PollRepository
		ledger   ports.BallotLedger
	)
	if *demo {
		log.Info("running in demo mode with in-memory storage")
		pollRepo = memory.NewPollRepository()
		ledger = memory.NewBallotLedger()
	} else {
		db, err := openDB(cfg.DB.ConnString())
		if err != nil {
			log.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()
		pollRepo = postgres.NewPollRepository(db)
		ledger = postgres.NewBallotLedger(db)
	}

	hub := realtime.NewHub(log)
	pollService := services.NewPollService(pollRepo, hub)
	mutationService := services.NewMutationService(pollRepo, ledger, hub, log)

	handler := http.NewHandler(
		http.NewPollHandler(pollService),
		http.NewVoteHandler(mutationService),
		ws.NewHandler(hub, log),
	)
	server := &stdhttp.Server{Addr: cfg.Addr, Handler: handler}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("gracefully shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal("shutdown error", zap.Error(err))
	}
}

// openDB retries the initial connection; postgres is often still coming
// up when the server starts.
func openDB(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(db.Ping, policy); err != nil {
		return nil, err
	}
	return db, nil
}
