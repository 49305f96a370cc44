package inspect

import (
	"strings"
	"testing"

	"github.com/divide21x/divide21x-go/internal/audit"
)

func validAction() map[string]any {
	return map[string]any{"division": false, "digit": float64(7), "rindex": float64(0)}
}

func validState() map[string]any {
	return map[string]any{
		"static_number":  float64(19),
		"dynamic_number": float64(59),
		"available_digits_per_rindex": map[string]any{
			"0": []any{float64(0), float64(1), float64(2), float64(3), float64(4), float64(6), float64(7), float64(8)},
			"1": []any{float64(2), float64(3), float64(4), float64(6), float64(7), float64(8)},
		},
		"players": []any{
			map[string]any{"id": float64(0), "score": float64(-13), "is_current_turn": float64(1)},
		},
		"player_turn": float64(0),
	}
}

func TestInspectCleanSubmission(t *testing.T) {
	r := Inspect(validAction(), validState(), nil)
	if r.ActionScore != ActionBudget || r.StateScore != StateBudget {
		t.Errorf("clean submission should keep full budgets, got %d/%d", r.ActionScore, r.StateScore)
	}
	if !r.ActionPassed() || !r.StatePassed() {
		t.Error("clean submission should pass both inspections")
	}
	if r.Action == nil || r.State == nil {
		t.Fatal("clean submission should yield parsed values")
	}
	if r.Action.Division || r.Action.Digit != 7 || r.Action.Rindex == nil || *r.Action.Rindex != 0 {
		t.Errorf("unexpected parsed action %+v", r.Action)
	}
	if r.State.DynamicNumber != 59 || len(r.State.Players) != 1 {
		t.Errorf("unexpected parsed state %+v", r.State)
	}
}

func TestInspectAction(t *testing.T) {
	cases := []struct {
		name    string
		action  any
		score   int
		passed  bool
		message string
	}{
		{
			"not an object", "just divide by 4", 0, false,
			"Action must be a JSON object.",
		},
		{
			"missing rindex key",
			map[string]any{"division": true, "digit": float64(4)},
			1, false,
			"Action must have exactly these keys: division, digit, rindex.",
		},
		{
			"extra key",
			map[string]any{"division": true, "digit": float64(4), "rindex": nil, "note": "x"},
			1, false,
			"Action must have exactly these keys: division, digit, rindex.",
		},
		{
			"division not boolean-like",
			map[string]any{"division": "yes", "digit": float64(4), "rindex": nil},
			3, false,
			"The division attribute must be either true or false, or 1 or 0.",
		},
		{
			"digit out of range",
			map[string]any{"division": false, "digit": float64(12), "rindex": float64(0)},
			3, false,
			"Digit must be between 0-9.",
		},
		{
			"negative rindex on digit change",
			map[string]any{"division": false, "digit": float64(7), "rindex": float64(-1)},
			3, false,
			"Rindex must be an integer greater than or equal to 0.",
		},
		{
			"null rindex on digit change",
			map[string]any{"division": false, "digit": float64(7), "rindex": nil},
			3, false,
			"Rindex must be an integer greater than or equal to 0.",
		},
		{
			"rindex on division",
			map[string]any{"division": true, "digit": float64(4), "rindex": float64(0)},
			8, true,
			"Rindex should not be provided for a division action.",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := Inspect(tc.action, validState(), nil)
			if r.ActionScore != tc.score {
				t.Errorf("expected action score %d, got %d", tc.score, r.ActionScore)
			}
			if r.ActionPassed() != tc.passed {
				t.Errorf("expected passed=%v at score %d", tc.passed, r.ActionScore)
			}
			if len(r.ActionIssues) != 1 || r.ActionIssues[0].Message != tc.message {
				t.Errorf("expected single issue %q, got %+v", tc.message, r.ActionIssues)
			}
			if tc.passed && r.Action == nil {
				t.Error("passing action should still be parsed")
			}
			if !tc.passed && r.Action != nil {
				t.Error("failing action must not be parsed")
			}
		})
	}
}

func TestInspectDivisionActionWithNullRindex(t *testing.T) {
	action := map[string]any{"division": true, "digit": float64(4), "rindex": nil}
	r := Inspect(action, validState(), nil)
	if r.ActionScore != ActionBudget || !r.ActionPassed() {
		t.Errorf("division with null rindex is the canonical form, got score %d", r.ActionScore)
	}
	if r.Action == nil || !r.Action.Division || r.Action.Rindex != nil {
		t.Errorf("unexpected parsed action %+v", r.Action)
	}
}

func TestInspectState(t *testing.T) {
	negativeStatic := validState()
	negativeStatic["static_number"] = float64(-19)

	badAvailKey := validState()
	badAvailKey["available_digits_per_rindex"] = map[string]any{
		"7": []any{float64(1)},
	}

	badDigit := validState()
	badDigit["available_digits_per_rindex"] = map[string]any{
		"0": []any{float64(11)},
	}

	badPlayerKeys := validState()
	badPlayerKeys["players"] = []any{map[string]any{"id": float64(0)}}

	hugeScore := validState()
	hugeScore["players"] = []any{
		map[string]any{"id": float64(0), "score": float64(27), "is_current_turn": float64(1)},
	}

	badFlag := validState()
	badFlag["players"] = []any{
		map[string]any{"id": float64(0), "score": float64(0), "is_current_turn": float64(2)},
	}

	badTurn := validState()
	badTurn["player_turn"] = float64(5)

	cases := []struct {
		name   string
		state  any
		score  int
		passed bool
	}{
		{"not an object", "the state is fine", 0, false},
		{"wrong key set", map[string]any{"static_number": float64(19)}, 2, false},
		{"negative static number", negativeStatic, 33, false},
		{"availability key out of range", badAvailKey, 35, false},
		{"availability digit out of range", badDigit, 36, false},
		{"player missing keys", badPlayerKeys, 35, false},
		{"score out of bound", hugeScore, 36, false},
		{"turn flag not binary", badFlag, 36, false},
		{"player turn out of range", badTurn, 33, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := Inspect(validAction(), tc.state, nil)
			if r.StateScore != tc.score {
				t.Errorf("expected state score %d, got %d", tc.score, r.StateScore)
			}
			if r.StatePassed() != tc.passed {
				t.Errorf("expected passed=%v at score %d", tc.passed, r.StateScore)
			}
			if r.State != nil {
				t.Error("failing state must not be parsed")
			}
		})
	}
}

func TestInspectStateDuplicateDigitsWarnOnce(t *testing.T) {
	state := validState()
	state["available_digits_per_rindex"] = map[string]any{
		"0": []any{float64(1), float64(1)},
		"1": []any{float64(2), float64(2)},
	}
	log := audit.New()
	r := Inspect(validAction(), state, log)
	if r.StateScore != StatePassFloor {
		t.Errorf("duplicates should cost exactly one warning, got %d", r.StateScore)
	}
	if !r.StatePassed() {
		t.Error("a warning-only state should still pass")
	}
	if len(r.StateIssues) != 2 {
		t.Errorf("every offending row should be itemized, got %+v", r.StateIssues)
	}
	if r.State == nil {
		t.Error("warning-only state should still be parsed")
	}
	if msgs := log.Messages(CategoryState, audit.Warning); len(msgs) != 1 {
		t.Errorf("expected one logged warning, got %v", msgs)
	}
}

func TestInspectCompactNames(t *testing.T) {
	action := map[string]any{"dv": false, "dg": float64(7), "ri": float64(0)}
	state := map[string]any{
		"s": float64(19),
		"d": float64(59),
		"a": map[string]any{
			"0": []any{float64(7)},
			"1": []any{float64(2)},
		},
		"p": []any{
			map[string]any{"pi": float64(0), "ps": float64(-13), "pt": float64(1)},
		},
		"t": float64(0),
	}
	r := Inspect(action, state, nil)
	if r.ActionScore != ActionBudget || r.StateScore != StateBudget {
		t.Errorf("compact names are a faithful encoding, got %d/%d", r.ActionScore, r.StateScore)
	}
}

func TestInspectMessagesMentionCanonicalKeys(t *testing.T) {
	r := Inspect(validAction(), map[string]any{"bogus": float64(1)}, nil)
	if len(r.StateIssues) != 1 {
		t.Fatalf("expected one issue, got %+v", r.StateIssues)
	}
	if !strings.Contains(r.StateIssues[0].Message, "available_digits_per_rindex") {
		t.Errorf("key-set message should name the canonical keys, got %q", r.StateIssues[0].Message)
	}
}
