package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Naming identifies which field-name convention an external document uses.
type Naming int

const (
	// Verbose uses the long canonical names (static_number, division, ...).
	Verbose Naming = iota
	// Compact uses the short artifact names (s, d, a, p, t / dv, dg, ri).
	Compact
)

// Canonical key sets, used both for codec detection and by the inspector's
// exact key-set checks.
var (
	ActionKeys = []string{"division", "digit", "rindex"}
	StateKeys  = []string{"static_number", "dynamic_number", "available_digits_per_rindex", "players", "player_turn"}
	PlayerKeys = []string{"id", "score", "is_current_turn"}
)

var (
	compactActionKey = map[string]string{"dv": "division", "dg": "digit", "ri": "rindex"}
	compactStateKey  = map[string]string{"s": "static_number", "d": "dynamic_number", "a": "available_digits_per_rindex", "p": "players", "t": "player_turn"}
	compactPlayerKey = map[string]string{"pi": "id", "ps": "score", "pt": "is_current_turn"}
)

// EncodeAction renders an action in the requested naming convention.
func EncodeAction(a *Action, naming Naming) map[string]any {
	var rindex any
	if a.Rindex != nil {
		rindex = *a.Rindex
	}
	if naming == Compact {
		return map[string]any{"dv": a.Division, "dg": a.Digit, "ri": rindex}
	}
	return map[string]any{"division": a.Division, "digit": a.Digit, "rindex": rindex}
}

// EncodeState renders a state in the requested naming convention. The
// availability map is keyed by decimal strings so the result marshals to
// JSON deterministically.
func EncodeState(s *GameState, naming Naming) map[string]any {
	avail := make(map[string]any, len(s.AvailableDigitsPerRindex))
	for k, digits := range s.AvailableDigitsPerRindex {
		sorted := append([]int(nil), digits...)
		sort.Ints(sorted)
		avail[strconv.Itoa(k)] = sorted
	}
	players := make([]any, len(s.Players))
	for i, p := range s.Players {
		if naming == Compact {
			players[i] = map[string]any{"pi": p.ID, "ps": p.Score, "pt": p.IsCurrentTurn}
		} else {
			players[i] = map[string]any{"id": p.ID, "score": p.Score, "is_current_turn": p.IsCurrentTurn}
		}
	}
	if naming == Compact {
		return map[string]any{"s": s.StaticNumber, "d": s.DynamicNumber, "a": avail, "p": players, "t": s.PlayerTurn}
	}
	return map[string]any{
		"static_number":               s.StaticNumber,
		"dynamic_number":              s.DynamicNumber,
		"available_digits_per_rindex": avail,
		"players":                     players,
		"player_turn":                 s.PlayerTurn,
	}
}

// NormalizeActionMap renames a compact-named action map to canonical names.
// Maps that match neither convention are returned unchanged so downstream
// key-set checks can flag them.
func NormalizeActionMap(m map[string]any) map[string]any {
	if m == nil || !hasExactKeys(m, compactActionKey) {
		return m
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[compactActionKey[k]] = v
	}
	return out
}

// NormalizeStateMap renames a compact-named state map (including player
// entries) to canonical names. Non-compact maps pass through unchanged.
func NormalizeStateMap(m map[string]any) map[string]any {
	if m == nil || !hasExactKeys(m, compactStateKey) {
		return m
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[compactStateKey[k]] = v
	}
	if players, ok := out["players"].([]any); ok {
		normalized := make([]any, len(players))
		for i, entry := range players {
			pm, ok := entry.(map[string]any)
			if ok && hasExactKeys(pm, compactPlayerKey) {
				np := make(map[string]any, len(pm))
				for k, v := range pm {
					np[compactPlayerKey[k]] = v
				}
				normalized[i] = np
			} else {
				normalized[i] = entry
			}
		}
		out["players"] = normalized
	}
	return out
}

func hasExactKeys(m map[string]any, keys map[string]string) bool {
	if len(m) != len(keys) {
		return false
	}
	for k := range keys {
		if _, ok := m[k]; !ok {
			return false
		}
	}
	return true
}

// DecodeState parses a canonical-named generic map into a typed state.
// It is strict: every field must be present, well-typed and integral.
// Untrusted input should go through the inspector instead; this is for
// trusted documents such as challenge artifacts.
func DecodeState(m map[string]any) (*GameState, error) {
	m = NormalizeStateMap(m)
	static, ok := AsInt64(m["static_number"])
	if !ok {
		return nil, fmt.Errorf("schema: static_number is not an integer")
	}
	dynamic, ok := AsInt64(m["dynamic_number"])
	if !ok {
		return nil, fmt.Errorf("schema: dynamic_number is not an integer")
	}
	availRaw, ok := m["available_digits_per_rindex"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("schema: available_digits_per_rindex is not a mapping")
	}
	avail := make(map[int][]int, len(availRaw))
	for k, v := range availRaw {
		idx, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("schema: availability key %q: %w", k, err)
		}
		list, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("schema: availability value for rindex %d is not a list", idx)
		}
		digits := make([]int, len(list))
		for i, d := range list {
			n, ok := AsInt64(d)
			if !ok {
				return nil, fmt.Errorf("schema: availability digit at rindex %d is not an integer", idx)
			}
			digits[i] = int(n)
		}
		avail[idx] = digits
	}
	playersRaw, ok := m["players"].([]any)
	if !ok {
		return nil, fmt.Errorf("schema: players is not a list")
	}
	players := make([]Player, len(playersRaw))
	for i, entry := range playersRaw {
		pm, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("schema: player %d is not a mapping", i)
		}
		id, okID := AsInt64(pm["id"])
		score, okScore := AsInt64(pm["score"])
		turn, okTurn := AsInt64(pm["is_current_turn"])
		if !okID || !okScore || !okTurn {
			return nil, fmt.Errorf("schema: player %d has non-integer fields", i)
		}
		players[i] = Player{ID: int(id), Score: int(score), IsCurrentTurn: int(turn)}
	}
	turn, ok := AsInt64(m["player_turn"])
	if !ok {
		return nil, fmt.Errorf("schema: player_turn is not an integer")
	}
	return &GameState{
		StaticNumber:             static,
		DynamicNumber:            dynamic,
		AvailableDigitsPerRindex: avail,
		Players:                  players,
		PlayerTurn:               int(turn),
	}, nil
}

// DecodeAction parses a canonical-named generic map into a typed action.
func DecodeAction(m map[string]any) (*Action, error) {
	m = NormalizeActionMap(m)
	division, ok := AsBool(m["division"])
	if !ok {
		return nil, fmt.Errorf("schema: division is not boolean-like")
	}
	digit, ok := AsInt64(m["digit"])
	if !ok {
		return nil, fmt.Errorf("schema: digit is not an integer")
	}
	action := &Action{Division: division, Digit: int(digit)}
	if raw, present := m["rindex"]; present && raw != nil {
		rindex, ok := AsInt64(raw)
		if !ok {
			return nil, fmt.Errorf("schema: rindex is not an integer")
		}
		action.Rindex = RindexOf(int(rindex))
	}
	return action, nil
}

// AsInt64 reports v as an int64 when it is an integral number. JSON
// unmarshaling yields float64, so integral floats are accepted.
func AsInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	case json.Number:
		i, err := n.Int64()
		if err == nil {
			return i, true
		}
	}
	return 0, false
}

// AsBool coerces boolean-like values: true/false and the integers 0/1.
func AsBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	default:
		n, ok := AsInt64(v)
		if ok && (n == 0 || n == 1) {
			return n == 1, true
		}
	}
	return false, false
}
