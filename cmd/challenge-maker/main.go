// Command challenge-maker materializes the challenge for the current UTC
// hour (or an explicit bucket passed with -bucket). Re-running it for an
// already materialized bucket is a logged no-op.
package main

import (
	"flag"
	"log"
	"time"

	"github.com/divide21x/divide21x-go/internal/audit"
	"github.com/divide21x/divide21x-go/internal/challenge"
	"github.com/divide21x/divide21x-go/internal/config"
)

func main() {
	bucket := flag.String("bucket", "", "time bucket to generate (defaults to the current UTC hour)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *bucket == "" {
		*bucket = challenge.BucketFor(time.Now())
	}

	alog := audit.New()
	store := challenge.NewStore(cfg.ChallengeDir)
	_, hash, created, err := store.Ensure(*bucket, alog)
	if err != nil {
		log.Fatalf("generate: %v", err)
	}
	log.Printf("done bucket=%s created=%t content_hash=%s", *bucket, created, hash)

	recorder, err := audit.NewRecorder(cfg.AuditLogDir)
	if err != nil {
		log.Fatalf("audit: %v", err)
	}
	if _, err := recorder.Save(alog); err != nil {
		log.Fatalf("audit: %v", err)
	}
}
