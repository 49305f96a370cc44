package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/divide21x/divide21x-go/internal/challenge"
)

func writeRegistry(t *testing.T, entries []RegistryEntry) string {
	t.Helper()
	data, err := json.Marshal(entries)
	if err != nil {
		t.Fatalf("marshal registry: %v", err)
	}
	path := filepath.Join(t.TempDir(), "registry.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write registry: %v", err)
	}
	return path
}

func TestLoadRegistry(t *testing.T) {
	path := writeRegistry(t, []RegistryEntry{
		{Alias: "fast", Provider: "openai", Model: "gpt-test", APIKeyEnv: "TEST_KEY"},
		{Alias: "local", Provider: "ollama", Model: "llama-test", APIKeyEnv: "LOCAL_KEY", BaseURL: "http://localhost:11434/v1"},
	})

	entries, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry failed: %v", err)
	}
	if len(entries) != 2 || entries[0].Alias != "fast" || entries[1].BaseURL == "" {
		t.Errorf("unexpected registry %+v", entries)
	}

	if got := ProviderFor(entries, "local"); got != "ollama" {
		t.Errorf("ProviderFor(local) = %q", got)
	}
	if got := ProviderFor(entries, "missing"); got != "" {
		t.Errorf("ProviderFor(missing) = %q, want empty", got)
	}

	if _, err := LoadRegistry(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for a missing registry file")
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Setenv("EMPTY_TEST_KEY", "")
	_, err := NewClient(RegistryEntry{Alias: "x", Provider: "openai", APIKeyEnv: "EMPTY_TEST_KEY"})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestBuildPrompt(t *testing.T) {
	ch, err := challenge.Make("2025-11-04T15", nil)
	if err != nil {
		t.Fatalf("Make failed: %v", err)
	}
	artifact := challenge.BuildArtifact(ch)

	prompt, err := BuildPrompt(artifact)
	if err != nil {
		t.Fatalf("BuildPrompt failed: %v", err)
	}
	if strings.Count(prompt, "Example:") != 2 {
		t.Error("prompt should carry both worked examples")
	}
	if strings.Count(prompt, "Challenge:") != 1 {
		t.Error("prompt should carry exactly one challenge section")
	}
	if !strings.Contains(prompt, "Final state: ? (compute this and return as JSON)") {
		t.Error("the challenge's final state must be withheld")
	}
	if strings.Index(prompt, "Challenge:") < strings.LastIndex(prompt, "Example:") {
		t.Error("the challenge must come after the examples")
	}

	// The prompt is fully determined by the artifact.
	again, _ := BuildPrompt(artifact)
	if prompt != again {
		t.Error("prompt rendering must be deterministic")
	}
}

func TestResultsPath(t *testing.T) {
	r := NewRequestor(nil, "/data/results")
	if got := r.ResultsPath("2025-11-04T15"); got != filepath.Join("/data/results", "2025-11-04", "15.json") {
		t.Errorf("unexpected day+hour path %q", got)
	}
	if got := r.ResultsPath("2025-11-04"); got != filepath.Join("/data/results", "2025-11-04.json") {
		t.Errorf("unexpected day path %q", got)
	}
}

func TestRunCollectsAnswers(t *testing.T) {
	fake := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": `{"d": 21}`}},
			},
		})
	}))
	defer fake.Close()

	t.Setenv("FAKE_LLM_KEY", "test-key")
	registry := []RegistryEntry{
		{Alias: "fake", Provider: "test", Model: "fake-model", APIKeyEnv: "FAKE_LLM_KEY", BaseURL: fake.URL + "/v1"},
		{Alias: "keyless", Provider: "test", Model: "nope", APIKeyEnv: "UNSET_LLM_KEY_FOR_TEST"},
	}

	ch, err := challenge.Make("2025-11-04T15", nil)
	if err != nil {
		t.Fatalf("Make failed: %v", err)
	}
	resultsDir := t.TempDir()
	req := NewRequestor(registry, resultsDir)

	results, err := req.Run(context.Background(), "2025-11-04T15", challenge.BuildArtifact(ch))
	if results == nil {
		t.Fatalf("expected partial results, got error %v", err)
	}
	// The keyless entry fails but must not sink the run.
	if err == nil {
		t.Error("the keyless entry's failure should surface in the aggregate error")
	}
	record, ok := results["fake"]
	if !ok || record.Answer != `{"d": 21}` {
		t.Errorf("unexpected results %+v", results)
	}

	data, err := os.ReadFile(req.ResultsPath("2025-11-04T15"))
	if err != nil {
		t.Fatalf("results file not written: %v", err)
	}
	var onDisk Results
	if err := json.Unmarshal(data, &onDisk); err != nil {
		t.Fatalf("results file is not valid JSON: %v", err)
	}
	if onDisk["fake"] == nil || onDisk["fake"].Answer != `{"d": 21}` {
		t.Errorf("unexpected persisted results %+v", onDisk)
	}
}
