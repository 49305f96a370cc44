// Package sim adapts the divide21 engine to the canonical JSON-friendly
// data model. One adapter owns one engine instance; it is a sequential
// state machine and must not be shared across concurrent callers.
package sim

import (
	"fmt"

	"github.com/divide21x/divide21x-go/internal/divide21"
	"github.com/divide21x/divide21x-go/internal/schema"
)

// StepResult bundles everything one engine step reports, decoded.
type StepResult struct {
	State      *schema.GameState
	Reward     float64
	Terminated bool
	Truncated  bool
}

// Adapter drives a divide21.Env through the reset/step contract and
// translates between raw observations and decoded states.
type Adapter struct {
	env *divide21.Env
}

// New creates an adapter for a fresh game instance.
func New(digits, players int) (*Adapter, error) {
	env, err := divide21.New(digits, players)
	if err != nil {
		return nil, err
	}
	return &Adapter{env: env}, nil
}

// NewFromState creates an adapter preloaded with an explicit state,
// bypassing seeding. This is the consistency checker's entry point.
func NewFromState(state *schema.GameState) (*Adapter, error) {
	digits := schema.DigitCount(state.DynamicNumber)
	players := len(state.Players)
	env, err := divide21.New(maxInt(digits, 2), maxInt(players, 1))
	if err != nil {
		return nil, err
	}
	a := &Adapter{env: env}
	if err := a.env.ResetTo(Encode(state)); err != nil {
		return nil, fmt.Errorf("sim: load state: %w", err)
	}
	return a, nil
}

// Reset derives a fresh deterministic game from the seed.
func (a *Adapter) Reset(seed int64) *schema.GameState {
	return Decode(a.env.Reset(seed))
}

// Step applies one action and returns the decoded outcome.
func (a *Adapter) Step(action *schema.Action) StepResult {
	obs, reward, terminated, truncated := a.env.Step(toEngineAction(action))
	return StepResult{
		State:      Decode(obs),
		Reward:     reward,
		Terminated: terminated,
		Truncated:  truncated,
	}
}

func toEngineAction(action *schema.Action) divide21.Action {
	out := divide21.Action{Division: action.Division, Digit: action.Digit}
	if action.Rindex != nil {
		out.Rindex = *action.Rindex
	}
	return out
}

// Decode maps a raw flat-array observation to the canonical state form.
func Decode(obs divide21.Observation) *schema.GameState {
	dynamic := joinDigits(obs.DynamicNumber)
	digits := len(obs.DynamicNumber)
	avail := make(map[int][]int, digits)
	for r := 0; r < digits; r++ {
		row := make([]int, 0, 10)
		for d := 0; d <= 9; d++ {
			idx := r*10 + d
			if idx < len(obs.AvailableDigits) && obs.AvailableDigits[idx] == 1 {
				row = append(row, d)
			}
		}
		avail[r] = row
	}
	players := make([]schema.Player, len(obs.Players)/3)
	for i := range players {
		players[i] = schema.Player{
			ID:            obs.Players[i*3],
			Score:         obs.Players[i*3+1],
			IsCurrentTurn: obs.Players[i*3+2],
		}
	}
	return &schema.GameState{
		StaticNumber:             joinDigits(obs.StaticNumber),
		DynamicNumber:            dynamic,
		AvailableDigitsPerRindex: avail,
		Players:                  players,
		PlayerTurn:               obs.PlayerTurn,
	}
}

// Encode maps a canonical state back to the raw observation layout.
func Encode(state *schema.GameState) divide21.Observation {
	dynamicDigits := splitDigits(state.DynamicNumber)
	mask := make([]int, len(dynamicDigits)*10)
	for r, digits := range state.AvailableDigitsPerRindex {
		for _, d := range digits {
			if r >= 0 && r < len(dynamicDigits) && d >= 0 && d <= 9 {
				mask[r*10+d] = 1
			}
		}
	}
	players := make([]int, 0, len(state.Players)*3)
	for _, p := range state.Players {
		players = append(players, p.ID, p.Score, p.IsCurrentTurn)
	}
	return divide21.Observation{
		StaticNumber:    splitDigits(state.StaticNumber),
		DynamicNumber:   dynamicDigits,
		AvailableDigits: mask,
		Players:         players,
		PlayerTurn:      state.PlayerTurn,
	}
}

func joinDigits(digits []int) int64 {
	var v int64
	for _, d := range digits {
		v = v*10 + int64(d)
	}
	return v
}

func splitDigits(n int64) []int {
	if n <= 0 {
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

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
