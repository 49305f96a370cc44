package challenge

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"

	"github.com/divide21x/divide21x-go/internal/audit"
	"github.com/divide21x/divide21x-go/internal/schema"
)

// Artifact is the persisted challenge document: two worked examples plus
// the puzzle itself, whose final state is deliberately absent. Field
// names inside use the compact naming convention.
type Artifact struct {
	Example1  artifactExample `json:"example_1"`
	Example2  artifactExample `json:"example_2"`
	Challenge artifactPuzzle  `json:"challenge"`
}

type artifactExample struct {
	InitialState map[string]any `json:"initial_state"`
	Action       map[string]any `json:"action"`
	FinalState   map[string]any `json:"final_state"`
}

type artifactPuzzle struct {
	InitialState map[string]any `json:"initial_state"`
	Action       map[string]any `json:"action"`
}

// BuildArtifact assembles the artifact document for a generated challenge.
func BuildArtifact(ch *Challenge) *Artifact {
	return &Artifact{
		Example1:  encodeExample(DigitChangeExample()),
		Example2:  encodeExample(DivisionExample()),
		Challenge: artifactPuzzle{
			InitialState: schema.EncodeState(ch.State, schema.Compact),
			Action:       schema.EncodeAction(ch.Action, schema.Compact),
		},
	}
}

func encodeExample(ex Example) artifactExample {
	return artifactExample{
		InitialState: schema.EncodeState(ex.InitialState, schema.Compact),
		Action:       schema.EncodeAction(ex.Action, schema.Compact),
		FinalState:   schema.EncodeState(ex.FinalState, schema.Compact),
	}
}

// ContentHash is the artifact's tamper-evidence token:
// SHA-256(bucket + serialized artifact).
func ContentHash(bucket string, serialized []byte) string {
	sum := sha256.Sum256(append([]byte(bucket), serialized...))
	return hex.EncodeToString(sum[:])
}

// Store materializes challenge artifacts on the filesystem, partitioned
// by date. It is the single external-resource mutation point in the core:
// creation is check-then-act plus an atomic write-then-rename, so a
// concurrent reader never sees a partial artifact and a second generation
// run for the same bucket never overwrites the first.
type Store struct {
	baseDir string
}

// NewStore roots a store at baseDir.
func NewStore(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Path returns the artifact path for a bucket: <base>/<date>/<hour>.json
// for day+hour buckets, <base>/<date>.json for day buckets.
func (s *Store) Path(bucket string) string {
	if i := strings.IndexByte(bucket, 'T'); i >= 0 {
		return filepath.Join(s.baseDir, bucket[:i], bucket[i+1:]+".json")
	}
	return filepath.Join(s.baseDir, bucket+".json")
}

// Exists reports whether the bucket's artifact is already materialized.
func (s *Store) Exists(bucket string) bool {
	_, err := os.Stat(s.Path(bucket))
	return err == nil
}

// Read loads a bucket's artifact, returning the parsed document, its raw
// bytes and the content hash recomputed from them.
func (s *Store) Read(bucket string) (*Artifact, []byte, string, error) {
	data, err := os.ReadFile(s.Path(bucket))
	if err != nil {
		return nil, nil, "", fmt.Errorf("challenge: read artifact: %w", err)
	}
	var artifact Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, nil, "", fmt.Errorf("challenge: parse artifact: %w", err)
	}
	return &artifact, data, ContentHash(bucket, data), nil
}

// Write atomically materializes the artifact bytes for a bucket.
func (s *Store) Write(bucket string, data []byte) (err error) {
	path := s.Path(bucket)
	if mkdirErr := os.MkdirAll(filepath.Dir(path), 0o755); mkdirErr != nil {
		return fmt.Errorf("challenge: create artifact dir: %w", mkdirErr)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("challenge: create temp artifact: %w", err)
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, os.Remove(tmp.Name()))
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		err = multierr.Append(fmt.Errorf("challenge: write temp artifact: %w", err), tmp.Close())
		return err
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("challenge: close temp artifact: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("challenge: publish artifact: %w", err)
	}
	return nil
}

// Ensure generates and materializes the bucket's challenge unless it
// already exists, in which case the existing artifact is returned
// untouched and the skip is logged. Returns the artifact, its content
// hash and whether this call created it.
func (s *Store) Ensure(bucket string, alog *audit.Log) (*Artifact, string, bool, error) {
	if s.Exists(bucket) {
		log.Printf("challenge_skip bucket=%s reason=already_materialized", bucket)
		alog.Add(Category, audit.Warning, "Challenge already exists for this bucket; skipping generation.")
		artifact, _, hash, err := s.Read(bucket)
		return artifact, hash, false, err
	}

	ch, err := Make(bucket, alog)
	if err != nil {
		return nil, "", false, err
	}
	artifact := BuildArtifact(ch)
	data, err := json.MarshalIndent(artifact, "", "    ")
	if err != nil {
		return nil, "", false, fmt.Errorf("challenge: marshal artifact: %w", err)
	}
	if err := s.Write(bucket, data); err != nil {
		return nil, "", false, err
	}
	hash := ContentHash(bucket, data)
	alog.Add(Category, audit.Hash, hash)
	log.Printf("challenge_created bucket=%s seed_hash=%s content_hash=%s", bucket, ch.SeedHash, hash)
	return artifact, hash, true, nil
}
