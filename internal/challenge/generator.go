// Package challenge deterministically manufactures the per-bucket puzzle:
// a seeded random playout of the game, one sampled intermediate state and
// one synthetic action whose resulting state is the value under test.
// Identical time buckets always yield identical seeds, playouts and
// artifacts; that determinism is the cornerstone correctness property of
// the whole benchmark.
package challenge

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/divide21x/divide21x-go/internal/audit"
	"github.com/divide21x/divide21x-go/internal/divide21"
	"github.com/divide21x/divide21x-go/internal/schema"
	"github.com/divide21x/divide21x-go/internal/sim"
)

// Audit category.
const Category = "challenge"

// Time-bucket layouts. Buckets are canonical UTC strings; the day+hour
// form is the default cadence.
const (
	DayHourLayout = "2006-01-02T15"
	DayLayout     = "2006-01-02"
)

// MaxPlayoutSteps bounds the random playout. Draws rejected by the
// simulator still consume budget; they are intentional exploration noise.
const MaxPlayoutSteps = 100

var (
	ErrBadBucket    = errors.New("challenge: malformed time bucket")
	ErrEmptyPlayout = errors.New("challenge: playout produced no usable states")
)

// Challenge is one generated puzzle.
type Challenge struct {
	ID       string
	SeedHash string
	State    *schema.GameState
	Action   *schema.Action
}

// BucketFor returns the canonical day+hour bucket for t.
func BucketFor(t time.Time) string {
	return t.UTC().Format(DayHourLayout)
}

// Seed derives the deterministic seed for a bucket: the SHA-256 digest of
// the bucket string, taken as a big integer, mod 10^8. The full hex
// digest doubles as the bucket's seed hash.
func Seed(bucket string) (int64, string) {
	sum := sha256.Sum256([]byte(bucket))
	mod := new(big.Int).Mod(new(big.Int).SetBytes(sum[:]), big.NewInt(100_000_000))
	return mod.Int64(), hex.EncodeToString(sum[:])
}

// instanceSize derives the digit count N for a bucket: hour+2 for
// day+hour buckets, day-of-month+1 for day-only buckets, clamped to the
// engine's representable range.
func instanceSize(bucket string) (int, error) {
	var n int
	if i := strings.IndexByte(bucket, 'T'); i >= 0 {
		hour, err := strconv.Atoi(bucket[i+1:])
		if err != nil || hour < 0 || hour > 23 || i != len(DayLayout) {
			return 0, fmt.Errorf("%w: %q", ErrBadBucket, bucket)
		}
		n = hour + 2
	} else {
		t, err := time.Parse(DayLayout, bucket)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrBadBucket, bucket)
		}
		n = t.Day() + 1
	}
	if n > divide21.MaxDigits {
		n = divide21.MaxDigits
	}
	return n, nil
}

// Make generates the challenge for a bucket. It is pure with respect to
// the bucket string: no clocks, no filesystem.
func Make(bucket string, log *audit.Log) (*Challenge, error) {
	seed, seedHash := Seed(bucket)
	size, err := instanceSize(bucket)
	if err != nil {
		log.Add(Category, audit.Critical, err.Error())
		return nil, err
	}

	rng := rand.New(rand.NewSource(seed))
	players := 2 + rng.Intn(size-1) // uniform over [2, size]

	adapter, err := sim.New(size, players)
	if err != nil {
		return nil, err
	}
	adapter.Reset(seed)

	// Random playout. Digit and rindex draws ignore the actual
	// availability sets; the simulator rejecting a draw is fine, the
	// resulting (possibly unchanged) state still lands in the buffer.
	// The raw reset state never does, so move 0 is never the challenge.
	digits := size
	var collected []*schema.GameState
	for i := 0; i < MaxPlayoutSteps; i++ {
		step := adapter.Step(drawAction(rng, digits, nil))
		collected = append(collected, step.State)
		digits = schema.DigitCount(step.State.DynamicNumber)
		if step.Terminated || step.Truncated {
			// Drop the terminal state; a finished board is no challenge.
			collected = collected[:len(collected)-1]
			break
		}
	}
	if len(collected) == 0 {
		log.Add(Category, audit.Critical, "Playout ended before any state could be collected.")
		return nil, ErrEmptyPlayout
	}

	state := collected[rng.Intn(len(collected))]

	// The synthetic action only needs to be syntactically valid against
	// the sampled state, so digit-change digits are drawn from what is
	// actually still available there.
	action := drawAction(rng, digits, state)

	ch := &Challenge{ID: bucket, SeedHash: seedHash, State: state, Action: action}
	log.Add(Category, audit.Note, "Challenge created.")
	log.Add(Category, audit.ID, ch.ID)
	log.Add(Category, audit.Hash, ch.SeedHash)
	return ch, nil
}

// drawAction draws a random legal-shaped action. With a nil state the
// digit for a digit-change comes from the full 0-9 range (playout noise);
// with a state it comes from the availability set at the drawn rindex,
// falling back to a division action when that set is empty.
func drawAction(rng *rand.Rand, digits int, state *schema.GameState) *schema.Action {
	division := rng.Intn(2) == 1
	if division {
		return &schema.Action{Division: true, Digit: 2 + rng.Intn(8)}
	}
	rindex := rng.Intn(digits)
	if state == nil {
		return &schema.Action{Digit: rng.Intn(10), Rindex: schema.RindexOf(rindex)}
	}
	available := state.AvailableDigitsPerRindex[rindex]
	if len(available) == 0 {
		return &schema.Action{Division: true, Digit: 2 + rng.Intn(8)}
	}
	return &schema.Action{Digit: available[rng.Intn(len(available))], Rindex: schema.RindexOf(rindex)}
}
