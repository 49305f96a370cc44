// Package inspect validates untrusted action/state submissions against the
// structural and domain schema. It only ever subtracts from two fixed
// point budgets and records itemized reasons; validation failures are
// scores, never errors. Fully valid input additionally yields the typed
// canonical values, so downstream components never see raw input.
package inspect

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/divide21x/divide21x-go/internal/audit"
	"github.com/divide21x/divide21x-go/internal/schema"
)

// Point budgets and pass floors. A budget passes inspection iff it took
// no critical deduction; warnings are score-only, and the floors below
// are the lowest warning-only totals (the worst critical path scores
// strictly below them).
const (
	ActionBudget    = 10
	StateBudget     = 40
	ActionPassFloor = 8
	StatePassFloor  = 37
)

// Audit categories.
const (
	CategoryAction = "action"
	CategoryState  = "state"
)

// Issue is one itemized deduction.
type Issue struct {
	Kind    string `json:"kind"` // audit.Critical or audit.Warning
	Message string `json:"message"`
}

// Report is the outcome of inspecting one submission.
type Report struct {
	ActionScore  int
	StateScore   int
	ActionIssues []Issue
	StateIssues  []Issue

	// Action and State hold the validated canonical values, non-nil only
	// when the respective inspection recorded no critical issue.
	Action *schema.Action
	State  *schema.GameState
}

// ActionPassed reports whether the action survived inspection.
func (r *Report) ActionPassed() bool {
	return r.ActionScore >= ActionPassFloor
}

// StatePassed reports whether the state survived inspection.
func (r *Report) StatePassed() bool {
	return r.StateScore >= StatePassFloor
}

// Inspect runs both inspections on an untrusted action/state pair.
func Inspect(action, state any, log *audit.Log) *Report {
	report := &Report{ActionScore: ActionBudget, StateScore: StateBudget}
	inspectAction(report, action, log)
	inspectState(report, state, log)
	return report
}

func (r *Report) deductAction(points int, kind, message string, log *audit.Log) {
	r.ActionScore -= points
	r.ActionIssues = append(r.ActionIssues, Issue{Kind: kind, Message: message})
	log.Add(CategoryAction, kind, message)
}

func (r *Report) deductState(points int, kind, message string, log *audit.Log) {
	r.StateScore -= points
	r.StateIssues = append(r.StateIssues, Issue{Kind: kind, Message: message})
	log.Add(CategoryState, kind, message)
}

func inspectAction(r *Report, action any, log *audit.Log) {
	defer func() { log.Add(CategoryAction, audit.Score, r.ActionScore) }()

	m, ok := asMap(action)
	if !ok {
		r.deductAction(10, audit.Critical, "Action must be a JSON object.", log)
		return
	}
	m = schema.NormalizeActionMap(m)
	if !exactKeys(m, schema.ActionKeys) {
		message := fmt.Sprintf("Action must have exactly these keys: %s.", strings.Join(schema.ActionKeys, ", "))
		r.deductAction(9, audit.Critical, message, log)
		return
	}

	division, divisionOK := schema.AsBool(m["division"])
	digit, digitOK := schema.AsInt64(m["digit"])
	rindex, rindexOK := schema.AsInt64(m["rindex"])

	switch {
	case !divisionOK:
		r.deductAction(7, audit.Critical, "The division attribute must be either true or false, or 1 or 0.", log)
		return
	case !digitOK || digit < 0 || digit > 9:
		r.deductAction(7, audit.Critical, "Digit must be between 0-9.", log)
		return
	case !division && (!rindexOK || rindex < 0):
		r.deductAction(7, audit.Critical, "Rindex must be an integer greater than or equal to 0.", log)
		return
	case division && m["rindex"] != nil:
		r.deductAction(2, audit.Warning, "Rindex should not be provided for a division action.", log)
	}

	parsed := &schema.Action{Division: division, Digit: int(digit)}
	if !division {
		parsed.Rindex = schema.RindexOf(int(rindex))
	}
	r.Action = parsed
}

func inspectState(r *Report, state any, log *audit.Log) {
	defer func() { log.Add(CategoryState, audit.Score, r.StateScore) }()

	m, ok := asMap(state)
	if !ok {
		r.deductState(40, audit.Critical, "State must be a JSON object.", log)
		return
	}
	m = schema.NormalizeStateMap(m)
	if !exactKeys(m, schema.StateKeys) {
		message := fmt.Sprintf("State must have exactly these keys: %s.", strings.Join(schema.StateKeys, ", "))
		r.deductState(38, audit.Critical, message, log)
		return
	}

	static, staticOK := schema.AsInt64(m["static_number"])
	if !staticOK || static <= 0 {
		r.deductState(7, audit.Critical, "The original number must be a positive integer.", log)
		staticOK = false
	}
	dynamic, dynamicOK := schema.AsInt64(m["dynamic_number"])
	if !dynamicOK || dynamic <= 0 {
		r.deductState(7, audit.Critical, "The number being manipulated must be a positive integer.", log)
		dynamicOK = false
	}

	inspectAvailability(r, m, dynamic, dynamicOK, log)
	playerCount := inspectPlayers(r, m, static, staticOK, log)

	turn, turnOK := schema.AsInt64(m["player_turn"])
	switch {
	case !turnOK || turn < 0:
		r.deductState(7, audit.Critical, "The player turn must be a non-negative integer less than the number of players.", log)
	case playerCount > 0 && turn >= int64(playerCount):
		r.deductState(7, audit.Critical, "The player turn must be a non-negative integer less than the number of players.", log)
	}

	if !r.hasStateCritical() {
		parsed, err := schema.DecodeState(m)
		if err == nil {
			r.State = parsed
		}
	}
}

func inspectAvailability(r *Report, m map[string]any, dynamic int64, dynamicOK bool, log *audit.Log) {
	const field = "available_digits_per_rindex"
	value, ok := m[field].(map[string]any)
	if !ok {
		r.deductState(7, audit.Critical, fmt.Sprintf("'%s' must be a JSON object.", field), log)
		return
	}
	if len(value) == 0 {
		r.deductState(6, audit.Critical, fmt.Sprintf("'%s' must not be empty.", field), log)
		return
	}

	keys := make([]string, 0, len(value))
	for k := range value {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	duplicateWarned := false
	for _, k := range keys {
		idx, err := strconv.Atoi(k)
		if err != nil || idx < 0 || (dynamicOK && idx >= schema.DigitCount(dynamic)) {
			r.deductState(5, audit.Critical, fmt.Sprintf("Key '%s' in '%s' must be a valid rindex.", k, field), log)
			return
		}
		list, ok := value[k].([]any)
		if !ok {
			r.deductState(5, audit.Critical, fmt.Sprintf("Value for key '%s' in '%s' must be a list.", k, field), log)
			return
		}
		seen := make(map[int64]bool, len(list))
		hasDuplicate := false
		for _, d := range list {
			n, ok := schema.AsInt64(d)
			if !ok || n < 0 || n > 9 {
				r.deductState(4, audit.Critical, fmt.Sprintf("All elements in '%s[%s]' must be digits between 0 and 9.", field, k), log)
				return
			}
			if seen[n] {
				hasDuplicate = true
			}
			seen[n] = true
		}
		if hasDuplicate {
			// Soft warning: deducted once per state, every offender named.
			if !duplicateWarned {
				r.deductState(3, audit.Warning, fmt.Sprintf("Duplicate digits found in '%s[%s]'.", field, k), log)
				duplicateWarned = true
			} else {
				r.StateIssues = append(r.StateIssues, Issue{Kind: audit.Warning, Message: fmt.Sprintf("Duplicate digits found in '%s[%s]'.", field, k)})
			}
		}
	}
}

func inspectPlayers(r *Report, m map[string]any, static int64, staticOK bool, log *audit.Log) int {
	players, ok := m["players"].([]any)
	if !ok {
		r.deductState(7, audit.Critical, "players must be a list.", log)
		return 0
	}
	if len(players) == 0 {
		r.deductState(6, audit.Critical, "players must have at least one player.", log)
		return 0
	}

	for _, entry := range players {
		player, ok := asMap(entry)
		if !ok || !exactKeys(player, schema.PlayerKeys) {
			message := fmt.Sprintf("Each player must have exactly these keys: %s.", strings.Join(schema.PlayerKeys, ", "))
			r.deductState(5, audit.Critical, message, log)
			return len(players)
		}
		id, idOK := schema.AsInt64(player["id"])
		if !idOK || id < 0 || id >= int64(len(players)) {
			r.deductState(4, audit.Critical, "The player id must be a non-negative integer less than the number of players.", log)
			return len(players)
		}
		score, scoreOK := schema.AsInt64(player["score"])
		if !scoreOK {
			r.deductState(4, audit.Critical, "The player score must be an integer.", log)
			return len(players)
		}
		if staticOK {
			// Score bound depends on the digit count of the static number,
			// so it is skipped when that field did not resolve.
			bound := int64(9*schema.DigitCount(static) + 8)
			if score < -bound || score > bound {
				message := "The player score, s, must satisfy: -9*(the original number of digits) - 8 <= s <= 9*(the original number of digits) + 8."
				r.deductState(4, audit.Critical, message, log)
				return len(players)
			}
		}
		turn, turnOK := schema.AsInt64(player["is_current_turn"])
		if !turnOK || (turn != 0 && turn != 1) {
			r.deductState(4, audit.Critical, "The player is_current_turn must be either 1 or 0.", log)
			return len(players)
		}
	}
	return len(players)
}

func (r *Report) hasStateCritical() bool {
	for _, issue := range r.StateIssues {
		if issue.Kind == audit.Critical {
			return true
		}
	}
	return false
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func exactKeys(m map[string]any, keys []string) bool {
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
