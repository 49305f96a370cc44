// Command grade-results grades every recorded answer for a bucket,
// updates the results file in place, persists the grades and writes the
// leaderboard CSV for the bucket's month.
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/divide21x/divide21x-go/internal/audit"
	"github.com/divide21x/divide21x-go/internal/challenge"
	"github.com/divide21x/divide21x-go/internal/config"
	"github.com/divide21x/divide21x-go/internal/grade"
	"github.com/divide21x/divide21x-go/internal/llm"
	"github.com/divide21x/divide21x-go/internal/schema"
	"github.com/divide21x/divide21x-go/internal/store"
)

func main() {
	bucket := flag.String("bucket", "", "time bucket to grade (defaults to the current UTC hour)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *bucket == "" {
		*bucket = challenge.BucketFor(time.Now())
	}

	if err := run(cfg, *bucket); err != nil {
		log.Fatalf("grade-results: %v", err)
	}
}

func run(cfg *config.Config, bucket string) error {
	challenges := challenge.NewStore(cfg.ChallengeDir)
	artifact, _, hash, err := challenges.Read(bucket)
	if err != nil {
		return err
	}
	initial, err := schema.DecodeState(artifact.Challenge.InitialState)
	if err != nil {
		return fmt.Errorf("corrupt challenge state: %w", err)
	}
	gtAction, err := schema.DecodeAction(artifact.Challenge.Action)
	if err != nil {
		return fmt.Errorf("corrupt challenge action: %w", err)
	}
	truth, err := grade.TruthFromChallenge(initial, gtAction)
	if err != nil {
		return err
	}

	registry, err := llm.LoadRegistry(cfg.RegistryPath)
	if err != nil {
		log.Printf("registry_unavailable err=%v", err)
	}

	requestor := llm.NewRequestor(registry, cfg.ResultsDir)
	resultsPath := requestor.ResultsPath(bucket)
	data, err := os.ReadFile(resultsPath)
	if err != nil {
		return fmt.Errorf("read results: %w", err)
	}
	results := llm.Results{}
	if err := json.Unmarshal(data, &results); err != nil {
		return fmt.Errorf("parse results: %w", err)
	}

	db, err := store.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return err
	}

	type boardRow struct {
		model    string
		provider string
		score    float64
	}
	var board []boardRow

	aliases := make([]string, 0, len(results))
	for alias := range results {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)

	for _, alias := range aliases {
		record := results[alias]
		alog := audit.New()
		result := grade.Grade(grade.Submission{
			Initial:    initial,
			Action:     schema.EncodeAction(gtAction, schema.Verbose),
			FinalState: schema.ParseUntrusted(record.Answer),
		}, truth, alog)
		overall := result.OverallGrade
		record.Result = &overall

		provider := llm.ProviderFor(registry, alias)
		if err := db.SaveSubmission(&store.Submission{
			Bucket:       bucket,
			Model:        alias,
			Provider:     provider,
			ActionGrade:  result.ActionGrade,
			StateGrade:   result.StateGrade,
			OverallGrade: result.OverallGrade,
			Score:        result.Score,
			ContentHash:  hash,
		}); err != nil {
			return err
		}
		board = append(board, boardRow{model: alias, provider: provider, score: overall})
		log.Printf("graded bucket=%s model=%s overall=%.2f score=%d", bucket, alias, overall, result.Score)
	}

	// Update the results file with grades attached.
	updated, err := json.MarshalIndent(results, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	if err := os.WriteFile(resultsPath, updated, 0o644); err != nil {
		return fmt.Errorf("write results: %w", err)
	}

	// Leaderboard CSV under <leaderboardDir>/<month>/<bucket>.csv.
	sort.Slice(board, func(i, j int) bool { return board[i].score > board[j].score })
	month := bucket
	if len(month) > 7 {
		month = month[:7]
	}
	dir := filepath.Join(cfg.LeaderboardDir, month)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create leaderboard dir: %w", err)
	}
	path := filepath.Join(dir, bucket+".csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create leaderboard: %w", err)
	}
	defer f.Close()
	writer := csv.NewWriter(f)
	if err := writer.Write([]string{"Model", "Provider", "Score"}); err != nil {
		return err
	}
	for _, row := range board {
		if err := writer.Write([]string{row.model, row.provider, strconv.FormatFloat(row.score, 'f', 2, 64)}); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	log.Printf("leaderboard_written path=%s rows=%d", path, len(board))
	return f.Sync()
}
