// Command requestor prompts every model in the registry with the current
// bucket's challenge and records their raw answers for later grading.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/divide21x/divide21x-go/internal/challenge"
	"github.com/divide21x/divide21x-go/internal/config"
	"github.com/divide21x/divide21x-go/internal/llm"
)

func main() {
	bucket := flag.String("bucket", "", "time bucket to request answers for (defaults to the current UTC hour)")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall deadline for all model calls")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *bucket == "" {
		*bucket = challenge.BucketFor(time.Now())
	}

	store := challenge.NewStore(cfg.ChallengeDir)
	artifact, _, _, err := store.Read(*bucket)
	if err != nil {
		log.Fatalf("challenge has not been created yet for %s: %v", *bucket, err)
	}

	registry, err := llm.LoadRegistry(cfg.RegistryPath)
	if err != nil {
		log.Fatalf("registry: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	requestor := llm.NewRequestor(registry, cfg.ResultsDir)
	results, err := requestor.Run(ctx, *bucket, artifact)
	if err != nil && len(results) == 0 {
		log.Fatalf("requestor: %v", err)
	}
	if err != nil {
		log.Printf("requestor_partial err=%v", err)
	}
	log.Printf("done bucket=%s answers=%d path=%s", *bucket, len(results), requestor.ResultsPath(*bucket))
}
