// Package schema defines the canonical Divide21 data model and the
// versioned encode/decode boundary between it and external JSON. All
// internal logic works on the canonical types; the compact field-name
// variant used by challenge artifacts only exists at this boundary.
package schema

// Action is a single Divide21 move. Division actions divide the dynamic
// number by Digit (2-9) and carry no rindex; digit-change actions replace
// the digit at position Rindex with Digit.
type Action struct {
	Division bool `json:"division"`
	Digit    int  `json:"digit"`
	Rindex   *int `json:"rindex"`
}

// Player is one participant's scoreboard entry.
type Player struct {
	ID            int `json:"id"`
	Score         int `json:"score"`
	IsCurrentTurn int `json:"is_current_turn"`
}

// GameState is one decoded snapshot of the game.
type GameState struct {
	StaticNumber             int64         `json:"static_number"`
	DynamicNumber            int64         `json:"dynamic_number"`
	AvailableDigitsPerRindex map[int][]int `json:"available_digits_per_rindex"`
	Players                  []Player      `json:"players"`
	PlayerTurn               int           `json:"player_turn"`
}

// RindexOf returns a pointer to i, for building digit-change actions.
func RindexOf(i int) *int {
	return &i
}

// Clone returns a deep copy of the state.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	out := &GameState{
		StaticNumber:             s.StaticNumber,
		DynamicNumber:            s.DynamicNumber,
		AvailableDigitsPerRindex: make(map[int][]int, len(s.AvailableDigitsPerRindex)),
		Players:                  make([]Player, len(s.Players)),
		PlayerTurn:               s.PlayerTurn,
	}
	for k, v := range s.AvailableDigitsPerRindex {
		out.AvailableDigitsPerRindex[k] = append([]int(nil), v...)
	}
	copy(out.Players, s.Players)
	return out
}

// DigitCount returns the number of decimal digits in n. Zero and negative
// values count the digits of their absolute value, with at least one digit.
func DigitCount(n int64) int {
	if n < 0 {
		n = -n
	}
	count := 1
	for n >= 10 {
		n /= 10
		count++
	}
	return count
}
