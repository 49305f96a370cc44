// Package compare implements order-insensitive equivalence and similarity
// scoring for game states and actions. Plain equality is wrong here: two
// faithful encodings of the same state may list players or availability
// digits in different orders, so list-valued fields are compared as sets.
//
// Both comparators are pure, symmetric and total: malformed or missing
// input yields (false, 0), never an error.
package compare

import (
	"reflect"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/divide21x/divide21x-go/internal/audit"
	"github.com/divide21x/divide21x-go/internal/schema"
)

// Audit categories.
const (
	CategoryStates  = "state_comparison"
	CategoryActions = "action_comparison"
)

const maxScore = 100

// Result is one comparison outcome. Equivalent is true only for a full
// score of 100.
type Result struct {
	Equivalent bool
	Score      float64
}

// States compares two game states across 5 equally weighted components:
// static number, dynamic number, availability sets, player multiset and
// player turn. Inputs may be typed states or untrusted generic maps;
// anything missing or with a non-conforming key-set scores 0 outright.
func States(a, b any, log *audit.Log) Result {
	s1 := stateMap(a)
	s2 := stateMap(b)
	if s1 == nil || s2 == nil {
		log.Add(CategoryStates, audit.Warning, "Only one state was provided.")
		return record(log, CategoryStates, 0, 5)
	}
	if !hasKeys(s1, schema.StateKeys) || !hasKeys(s2, schema.StateKeys) {
		log.Add(CategoryStates, audit.Warning, "A state must have exactly the canonical key set.")
		return record(log, CategoryStates, 0, 5)
	}

	matches := 0
	if valuesEqual(s1["static_number"], s2["static_number"]) {
		matches++
	}
	if valuesEqual(s1["dynamic_number"], s2["dynamic_number"]) {
		matches++
	}
	if availabilityEqual(s1["available_digits_per_rindex"], s2["available_digits_per_rindex"]) {
		matches++
	}
	if playersEqual(s1["players"], s2["players"]) {
		matches++
	}
	if valuesEqual(s1["player_turn"], s2["player_turn"]) {
		matches++
	}
	return record(log, CategoryStates, matches, 5)
}

// Actions compares two actions across 3 equally weighted components,
// normalizing each field first: division coerced to a boolean, missing or
// unparseable digit/rindex collapsed to a sentinel. Omitted and null
// rindex are therefore the same thing, which is what a division action
// needs.
func Actions(a, b any, log *audit.Log) Result {
	a1 := actionMap(a)
	a2 := actionMap(b)
	if a1 == nil || a2 == nil {
		log.Add(CategoryActions, audit.Warning, "Only one action was provided.")
		return record(log, CategoryActions, 0, 3)
	}

	n1 := normalizeAction(a1)
	n2 := normalizeAction(a2)
	matches := 0
	if n1.division == n2.division {
		matches++
	}
	if n1.digit == n2.digit {
		matches++
	}
	if n1.rindex == n2.rindex {
		matches++
	}
	return record(log, CategoryActions, matches, 3)
}

// sentinel marks a missing or unparseable numeric field after
// normalization.
const sentinel = -1

type normalizedAction struct {
	division int
	digit    int64
	rindex   int64
}

func normalizeAction(m map[string]any) normalizedAction {
	out := normalizedAction{division: sentinel, digit: sentinel, rindex: sentinel}
	if b, ok := schema.AsBool(m["division"]); ok {
		if b {
			out.division = 1
		} else {
			out.division = 0
		}
	}
	if n, ok := schema.AsInt64(m["digit"]); ok {
		out.digit = n
	}
	if raw, present := m["rindex"]; present && raw != nil {
		if n, ok := schema.AsInt64(raw); ok {
			out.rindex = n
		}
	}
	return out
}

func record(log *audit.Log, category string, matches, total int) Result {
	score, _ := decimal.NewFromInt(int64(matches * maxScore)).
		Div(decimal.NewFromInt(int64(total))).
		Round(2).
		Float64()
	equivalent := matches == total
	log.Add(category, audit.Equivalent, equivalent)
	log.Add(category, audit.Score, score)
	return Result{Equivalent: equivalent, Score: score}
}

func stateMap(v any) map[string]any {
	switch s := v.(type) {
	case nil:
		return nil
	case map[string]any:
		return schema.NormalizeStateMap(s)
	case *schema.GameState:
		if s == nil {
			return nil
		}
		return schema.EncodeState(s, schema.Verbose)
	case schema.GameState:
		return schema.EncodeState(&s, schema.Verbose)
	default:
		return nil
	}
}

func actionMap(v any) map[string]any {
	switch a := v.(type) {
	case nil:
		return nil
	case map[string]any:
		return schema.NormalizeActionMap(a)
	case *schema.Action:
		if a == nil {
			return nil
		}
		return schema.EncodeAction(a, schema.Verbose)
	case schema.Action:
		return schema.EncodeAction(&a, schema.Verbose)
	default:
		return nil
	}
}

func hasKeys(m map[string]any, keys []string) bool {
	if len(m) != len(keys) {
		return false
	}
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			return false
		}
	}
	return true
}

// valuesEqual compares scalars, treating any two integral encodings of
// the same number as equal.
func valuesEqual(a, b any) bool {
	na, okA := schema.AsInt64(a)
	nb, okB := schema.AsInt64(b)
	if okA && okB {
		return na == nb
	}
	if okA != okB {
		return false
	}
	return reflect.DeepEqual(a, b)
}

// availabilityEqual compares availability mappings as sets of
// (position, sorted digit list) pairs.
func availabilityEqual(a, b any) bool {
	m1, ok1 := availRows(a)
	m2, ok2 := availRows(b)
	if !ok1 || !ok2 || len(m1) != len(m2) {
		return false
	}
	for k, v1 := range m1 {
		v2, ok := m2[k]
		if !ok || len(v1) != len(v2) {
			return false
		}
		for i := range v1 {
			if v1[i] != v2[i] {
				return false
			}
		}
	}
	return true
}

func availRows(v any) (map[string][]int64, bool) {
	raw, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	out := make(map[string][]int64, len(raw))
	for k, entry := range raw {
		digits, ok := digitList(entry)
		if !ok {
			return nil, false
		}
		out[k] = digits
	}
	return out, true
}

func digitList(v any) ([]int64, bool) {
	var out []int64
	switch list := v.(type) {
	case []any:
		for _, d := range list {
			n, ok := schema.AsInt64(d)
			if !ok {
				return nil, false
			}
			out = append(out, n)
		}
	case []int:
		for _, d := range list {
			out = append(out, int64(d))
		}
	default:
		return nil, false
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, true
}

// playersEqual compares player lists as multisets of
// (id, score, is_current_turn) tuples.
func playersEqual(a, b any) bool {
	p1, ok1 := playerTuples(a)
	p2, ok2 := playerTuples(b)
	if !ok1 || !ok2 || len(p1) != len(p2) {
		return false
	}
	for i := range p1 {
		if p1[i] != p2[i] {
			return false
		}
	}
	return true
}

type playerTuple struct {
	id, score, turn int64
}

func playerTuples(v any) ([]playerTuple, bool) {
	list, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]playerTuple, 0, len(list))
	for _, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok || !hasKeys(m, schema.PlayerKeys) {
			return nil, false
		}
		id, okID := schema.AsInt64(m["id"])
		score, okScore := schema.AsInt64(m["score"])
		turn, okTurn := schema.AsInt64(m["is_current_turn"])
		if !okID || !okScore || !okTurn {
			return nil, false
		}
		out = append(out, playerTuple{id: id, score: score, turn: turn})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].id != out[j].id {
			return out[i].id < out[j].id
		}
		if out[i].score != out[j].score {
			return out[i].score < out[j].score
		}
		return out[i].turn < out[j].turn
	})
	return out, true
}
