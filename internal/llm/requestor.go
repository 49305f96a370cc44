package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"

	"github.com/divide21x/divide21x-go/internal/challenge"
)

// SystemPrompt is the fixed instruction sent with every challenge.
const SystemPrompt = "Given an initial state and an action, compute the resulting final state. ONLY return a valid JSON object."

// AnswerRecord is one model's raw answer, later enriched with its grade.
type AnswerRecord struct {
	Answer string   `json:"answer"`
	Result *float64 `json:"result,omitempty"`
}

// Results maps model alias to answer.
type Results map[string]*AnswerRecord

// BuildPrompt renders the few-shot prompt for an artifact: both worked
// examples followed by the challenge with its final state withheld.
func BuildPrompt(artifact *challenge.Artifact) (string, error) {
	var b strings.Builder
	for _, ex := range []struct {
		initial map[string]any
		action  map[string]any
		final   map[string]any
	}{
		{artifact.Example1.InitialState, artifact.Example1.Action, artifact.Example1.FinalState},
		{artifact.Example2.InitialState, artifact.Example2.Action, artifact.Example2.FinalState},
	} {
		initial, err := json.Marshal(ex.initial)
		if err != nil {
			return "", fmt.Errorf("llm: marshal example: %w", err)
		}
		action, _ := json.Marshal(ex.action)
		final, _ := json.Marshal(ex.final)
		fmt.Fprintf(&b, "Example:\nInitial state: %s\nAction: %s\nFinal state: %s\n\n\n", initial, action, final)
	}
	initial, err := json.Marshal(artifact.Challenge.InitialState)
	if err != nil {
		return "", fmt.Errorf("llm: marshal challenge: %w", err)
	}
	action, _ := json.Marshal(artifact.Challenge.Action)
	fmt.Fprintf(&b, "Challenge:\nInitial state: %s\nAction: %s\nFinal state: ? (compute this and return as JSON)", initial, action)
	return b.String(), nil
}

// Requestor fans one bucket's challenge out to every registry model and
// collects their raw answers.
type Requestor struct {
	registry   []RegistryEntry
	resultsDir string
}

// NewRequestor builds a requestor over a loaded registry.
func NewRequestor(registry []RegistryEntry, resultsDir string) *Requestor {
	return &Requestor{registry: registry, resultsDir: resultsDir}
}

// ResultsPath returns where a bucket's results file lives:
// <resultsDir>/<date>/<hour>.json.
func (r *Requestor) ResultsPath(bucket string) string {
	if i := strings.IndexByte(bucket, 'T'); i >= 0 {
		return filepath.Join(r.resultsDir, bucket[:i], bucket[i+1:]+".json")
	}
	return filepath.Join(r.resultsDir, bucket+".json")
}

// Run prompts every registered model with the artifact and writes the
// collected answers atomically. Per-model failures are aggregated and
// reported together; one broken endpoint never loses the others' answers.
func (r *Requestor) Run(ctx context.Context, bucket string, artifact *challenge.Artifact) (Results, error) {
	prompt, err := BuildPrompt(artifact)
	if err != nil {
		return nil, err
	}

	results := Results{}
	var errs error
	for _, entry := range r.registry {
		client, err := NewClient(entry)
		if err != nil {
			log.Printf("requestor_skip alias=%s err=%v", entry.Alias, err)
			errs = multierr.Append(errs, err)
			continue
		}
		answer, err := client.Chat(ctx, SystemPrompt, prompt)
		if err != nil {
			log.Printf("requestor_fail alias=%s err=%v", entry.Alias, err)
			errs = multierr.Append(errs, err)
			continue
		}
		results[entry.Alias] = &AnswerRecord{Answer: answer}
		log.Printf("requestor_answer alias=%s bytes=%d", entry.Alias, len(answer))
	}

	if len(results) == 0 {
		return nil, multierr.Append(fmt.Errorf("llm: no results recorded for %s", bucket), errs)
	}
	if err := r.writeResults(bucket, results); err != nil {
		return nil, multierr.Append(err, errs)
	}
	return results, errs
}

func (r *Requestor) writeResults(bucket string, results Results) error {
	path := r.ResultsPath(bucket)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("llm: create results dir: %w", err)
	}
	data, err := json.MarshalIndent(results, "", "    ")
	if err != nil {
		return fmt.Errorf("llm: marshal results: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("llm: write results: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("llm: publish results: %w", err)
	}
	return nil
}
