// Package divide21 implements the Divide21 game engine. The rest of the
// repository treats it as an opaque simulator behind the documented
// reset/step contract; only the adapter in internal/sim touches its raw
// observation encoding.
//
// Rules: a D-digit static number is fixed at reset and a copy of it, the
// dynamic number, is manipulated. On their turn a player either divides
// the dynamic number by a digit 2-9 (legal only when it divides evenly)
// or replaces the digit at one position with a digit still available at
// that position. Each position starts with every digit except the one
// already there, and a digit is consumed once played. Reaching exactly 21
// ends the game. Digit changes move the acting player's score by
// (old digit - new digit); a division adds (divisor - 1). Scores are
// clamped to [-9D-8, 9D+8].
package divide21

import (
	"errors"
	"fmt"
	"math/rand"
)

// MaxDigits bounds the instance size so the dynamic number always fits in
// an int64 when decoded.
const MaxDigits = 18

// Target is the winning value of the dynamic number.
const Target = 21

// Action is the engine-level move representation.
type Action struct {
	Division bool
	Digit    int
	Rindex   int // ignored for division actions
}

// Observation is the engine's raw flat-array state encoding. Digit arrays
// are most-significant first; AvailableDigits is a row-major
// len(DynamicNumber)x10 binary mask; Players is a flat sequence of
// (id, score, is_current_turn) triplets.
type Observation struct {
	StaticNumber    []int
	DynamicNumber   []int
	AvailableDigits []int
	Players         []int
	PlayerTurn      int
}

var (
	ErrTooManyDigits = errors.New("divide21: digit count exceeds MaxDigits")
	ErrNoPlayers     = errors.New("divide21: at least one player required")
)

// Env is a sequential, single-owner game instance. State transitions
// happen only through Reset, ResetTo and Step.
type Env struct {
	digits  int
	players int

	static  []int
	dynamic []int
	avail   [][10]bool
	scores  []int
	turn    int

	terminated bool
	truncated  bool
}

// New creates an environment for a digits-long static number and the given
// player count. Reset or ResetTo must be called before Step.
func New(digits, players int) (*Env, error) {
	if digits < 2 || digits > MaxDigits {
		return nil, fmt.Errorf("%w: %d", ErrTooManyDigits, digits)
	}
	if players < 1 {
		return nil, ErrNoPlayers
	}
	return &Env{digits: digits, players: players}, nil
}

// Reset derives a fresh game from the seed. Identical seeds produce
// identical instances.
func (e *Env) Reset(seed int64) Observation {
	rng := rand.New(rand.NewSource(seed))
	e.static = make([]int, e.digits)
	e.static[0] = 1 + rng.Intn(9)
	for i := 1; i < e.digits; i++ {
		e.static[i] = rng.Intn(10)
	}
	e.dynamic = append([]int(nil), e.static...)
	e.rebuildAvailability()
	e.scores = make([]int, e.players)
	e.turn = 0
	e.terminated = false
	e.truncated = false
	return e.observe()
}

// ResetTo loads an explicit observation as the current state, bypassing
// seeding. Used by consistency checks that replay a submitted state.
func (e *Env) ResetTo(obs Observation) error {
	if len(obs.DynamicNumber) == 0 || len(obs.DynamicNumber) > MaxDigits {
		return ErrTooManyDigits
	}
	if len(obs.Players) == 0 || len(obs.Players)%3 != 0 {
		return ErrNoPlayers
	}
	e.digits = len(obs.StaticNumber)
	e.players = len(obs.Players) / 3
	e.static = append([]int(nil), obs.StaticNumber...)
	e.dynamic = append([]int(nil), obs.DynamicNumber...)
	e.avail = make([][10]bool, len(e.dynamic))
	for r := range e.avail {
		for d := 0; d < 10; d++ {
			idx := r*10 + d
			if idx < len(obs.AvailableDigits) && obs.AvailableDigits[idx] == 1 {
				e.avail[r][d] = true
			}
		}
	}
	e.scores = make([]int, e.players)
	for i := 0; i < e.players; i++ {
		e.scores[i] = obs.Players[i*3+1]
	}
	e.turn = obs.PlayerTurn
	if e.turn < 0 || e.turn >= e.players {
		e.turn = 0
	}
	e.terminated = e.value() == Target
	e.truncated = false
	return nil
}

// Step applies one action for the current player. Illegal actions leave
// the board untouched, cost a -1 reward and still pass the turn.
func (e *Env) Step(a Action) (obs Observation, reward float64, terminated, truncated bool) {
	if e.terminated || e.truncated {
		return e.observe(), 0, e.terminated, e.truncated
	}

	switch {
	case a.Division:
		if e.legalDivision(a.Digit) {
			e.applyDivision(a.Digit)
		} else {
			reward = -1
		}
	default:
		if e.legalDigitChange(a.Rindex, a.Digit) {
			old := e.dynamic[a.Rindex]
			e.dynamic[a.Rindex] = a.Digit
			e.avail[a.Rindex][a.Digit] = false
			e.addScore(e.turn, old-a.Digit)
		} else {
			reward = -1
		}
	}

	if e.value() == Target {
		e.terminated = true
		reward = 1
	} else if !e.anyLegalMove() {
		e.truncated = true
	}

	e.turn = (e.turn + 1) % e.players
	return e.observe(), reward, e.terminated, e.truncated
}

func (e *Env) legalDivision(digit int) bool {
	return digit >= 2 && digit <= 9 && e.value()%int64(digit) == 0
}

func (e *Env) applyDivision(digit int) {
	quotient := e.value() / int64(digit)
	e.dynamic = splitDigits(quotient)
	e.rebuildAvailability()
	e.addScore(e.turn, digit-1)
}

func (e *Env) legalDigitChange(rindex, digit int) bool {
	if rindex < 0 || rindex >= len(e.dynamic) || digit < 0 || digit > 9 {
		return false
	}
	if rindex == 0 && digit == 0 {
		return false // no leading zero
	}
	return e.avail[rindex][digit]
}

func (e *Env) anyLegalMove() bool {
	for d := 2; d <= 9; d++ {
		if e.legalDivision(d) {
			return true
		}
	}
	for r := range e.avail {
		for d := 0; d <= 9; d++ {
			if e.legalDigitChange(r, d) {
				return true
			}
		}
	}
	return false
}

func (e *Env) addScore(player, delta int) {
	bound := 9*len(e.static) + 8
	score := e.scores[player] + delta
	if score > bound {
		score = bound
	}
	if score < -bound {
		score = -bound
	}
	e.scores[player] = score
}

// rebuildAvailability re-keys the availability sets against the current
// dynamic digits: every digit except the one already in place.
func (e *Env) rebuildAvailability() {
	e.avail = make([][10]bool, len(e.dynamic))
	for r, current := range e.dynamic {
		for d := 0; d <= 9; d++ {
			e.avail[r][d] = d != current
		}
	}
}

func (e *Env) value() int64 {
	var v int64
	for _, d := range e.dynamic {
		v = v*10 + int64(d)
	}
	return v
}

func (e *Env) observe() Observation {
	mask := make([]int, len(e.dynamic)*10)
	for r := range e.avail {
		for d := 0; d <= 9; d++ {
			if e.avail[r][d] {
				mask[r*10+d] = 1
			}
		}
	}
	players := make([]int, 0, e.players*3)
	for i := 0; i < e.players; i++ {
		flag := 0
		if i == e.turn {
			flag = 1
		}
		players = append(players, i, e.scores[i], flag)
	}
	return Observation{
		StaticNumber:    append([]int(nil), e.static...),
		DynamicNumber:   append([]int(nil), e.dynamic...),
		AvailableDigits: mask,
		Players:         players,
		PlayerTurn:      e.turn,
	}
}

func splitDigits(n int64) []int {
	if n == 0 {
		return []int{0}
	}
	var rev []int
	for n > 0 {
		rev = append(rev, int(n%10))
		n /= 10
	}
	digits := make([]int, len(rev))
	for i, d := range rev {
		digits[len(rev)-1-i] = d
	}
	return digits
}
