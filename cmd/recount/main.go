// Recount rebuilds every poll's cached vote counters from the ballot
// ledger. The ledger is authoritative: a crash between ballot insert and
// counter increment leaves the visible count behind by one until this
// job runs.
package main

import (
	"context"
	"database/sql"
	"log"
	"time"

	_ "github.com/lib/pq"

	"github.com/quickpoll/quickpoll/internal/adapters/repository/postgres"
	"github.com/quickpoll/quickpoll/internal/config"
	"github.com/quickpoll/quickpoll/internal/core/services"
)

func main() {
	cfg := config.Load()

	db, err := sql.Open("postgres", cfg.DB.ConnString())
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}

	pollRepo := postgres.NewPollRepository(db)
	ledger := postgres.NewBallotLedger(db)
	recount := services.NewRecountService(pollRepo, ledger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	log.Println("Starting counter recount...")

	if err := recount.RecountAll(ctx); err != nil {
		log.Fatalf("Error recounting: %v", err)
	}

	log.Println("Recount completed successfully.")
}
