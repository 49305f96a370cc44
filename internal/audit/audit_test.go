package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogAppendsInOrder(t *testing.T) {
	log := New()
	log.Add("inspection", Critical, "first")
	log.Add("inspection", Warning, "second")
	log.Add("grading", Score, 42)

	entries := log.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Message != "first" || entries[1].Message != "second" {
		t.Error("entries must keep insertion order")
	}

	msgs := log.Messages("inspection", Critical)
	if len(msgs) != 1 || msgs[0] != "first" {
		t.Errorf("Messages filter returned %v", msgs)
	}
}

func TestNilLogDiscards(t *testing.T) {
	var log *Log
	log.Add("inspection", Note, "dropped")
	if got := log.Entries(); got != nil {
		t.Errorf("nil log should record nothing, got %v", got)
	}
}

func TestRecorderSavesNumberedEpisodes(t *testing.T) {
	rec, err := NewRecorder(t.TempDir())
	if err != nil {
		t.Fatalf("NewRecorder failed: %v", err)
	}

	log := New()
	log.Add("challenge", ID, "abc")

	p1, err := rec.Save(log)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	p2, err := rec.Save(log)
	if err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(p1), "episode_0_") {
		t.Errorf("unexpected first episode name %q", filepath.Base(p1))
	}
	if !strings.HasPrefix(filepath.Base(p2), "episode_1_") {
		t.Errorf("unexpected second episode name %q", filepath.Base(p2))
	}

	data, err := os.ReadFile(p1)
	if err != nil {
		t.Fatalf("read episode: %v", err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("episode file is not valid JSON: %v", err)
	}
	if len(entries) != 1 || entries[0].Kind != ID {
		t.Errorf("unexpected episode contents %+v", entries)
	}
}
