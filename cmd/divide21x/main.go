// Command divide21x serves the benchmark HTTP API.
package main

import (
	"log"
	"net/http"

	"github.com/divide21x/divide21x-go/internal/api"
	"github.com/divide21x/divide21x-go/internal/challenge"
	"github.com/divide21x/divide21x-go/internal/config"
	"github.com/divide21x/divide21x-go/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := store.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	server := api.NewServer(db, challenge.NewStore(cfg.ChallengeDir))
	log.Printf("listening addr=%s challenge_dir=%s db=%s", cfg.ListenAddr, cfg.ChallengeDir, cfg.DBPath)
	if err := http.ListenAndServe(cfg.ListenAddr, server.Routes()); err != nil {
		log.Fatalf("serve: %v", err)
	}
}
