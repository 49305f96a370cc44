package grade

import (
	"encoding/json"
	"testing"

	"github.com/divide21x/divide21x-go/internal/audit"
	"github.com/divide21x/divide21x-go/internal/schema"
)

// asDoc re-parses an encoded map so it has the value shapes of a real
// submitted JSON document.
func asDoc(t *testing.T, m map[string]any) map[string]any {
	t.Helper()
	raw, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	return out
}

func challengeState() *schema.GameState {
	return &schema.GameState{
		StaticNumber:  19,
		DynamicNumber: 59,
		AvailableDigitsPerRindex: map[int][]int{
			0: {0, 1, 2, 3, 4, 6, 7, 8},
			1: {2, 3, 4, 6, 7, 8},
		},
		Players:    []schema.Player{{ID: 0, Score: -13, IsCurrentTurn: 1}},
		PlayerTurn: 0,
	}
}

func challengeAction() *schema.Action {
	return &schema.Action{Division: false, Digit: 7, Rindex: schema.RindexOf(0)}
}

func truth(t *testing.T) GroundTruth {
	t.Helper()
	gt, err := TruthFromChallenge(challengeState(), challengeAction())
	if err != nil {
		t.Fatalf("TruthFromChallenge failed: %v", err)
	}
	return gt
}

func TestTruthFromChallenge(t *testing.T) {
	gt := truth(t)
	if gt.State.DynamicNumber != 79 {
		t.Errorf("expected oracle state 79, got %d", gt.State.DynamicNumber)
	}
	if gt.State.Players[0].Score != -15 {
		t.Errorf("expected oracle score -15, got %d", gt.State.Players[0].Score)
	}
}

func TestGradePerfectSubmission(t *testing.T) {
	gt := truth(t)
	sub := Submission{
		Initial:    challengeState(),
		Action:     asDoc(t, schema.EncodeAction(challengeAction(), schema.Verbose)),
		FinalState: asDoc(t, schema.EncodeState(gt.State, schema.Verbose)),
	}

	res := Grade(sub, gt, nil)
	if res.ActionGrade != 100 || res.StateGrade != 100 || res.OverallGrade != 100 {
		t.Errorf("expected full grades, got %+v", res)
	}
	if res.Score != 1 {
		t.Errorf("perfect submission should earn the point, got %d", res.Score)
	}
}

func TestGradeInconsistentSubmission(t *testing.T) {
	gt := truth(t)
	// The right action, but the final state claims nothing happened. Both
	// parts pass inspection individually; the replay disagrees.
	sub := Submission{
		Initial:    challengeState(),
		Action:     asDoc(t, schema.EncodeAction(challengeAction(), schema.Verbose)),
		FinalState: asDoc(t, schema.EncodeState(challengeState(), schema.Verbose)),
	}

	res := Grade(sub, gt, nil)
	// Replay matches the claim on 2 of 5 components, so (100-40)/2 = 30
	// comes off both grades. Action base 100, state base 40.
	if res.ActionGrade != 70 {
		t.Errorf("expected action grade 70, got %v", res.ActionGrade)
	}
	if res.StateGrade != 10 {
		t.Errorf("expected state grade 10, got %v", res.StateGrade)
	}
	if res.OverallGrade != 40 {
		t.Errorf("expected overall 40, got %v", res.OverallGrade)
	}
	if res.Score != 0 {
		t.Errorf("imperfect submission must not score, got %d", res.Score)
	}
}

func TestGradeActionOnly(t *testing.T) {
	gt := truth(t)
	sub := Submission{
		Initial:    challengeState(),
		Action:     asDoc(t, schema.EncodeAction(challengeAction(), schema.Verbose)),
		FinalState: "the game ends, trust me",
	}

	res := Grade(sub, gt, nil)
	if res.ActionGrade != 100 || res.StateGrade != 0 {
		t.Errorf("expected grades 100/0, got %+v", res)
	}
	if res.OverallGrade != 50 || res.Score != 0 {
		t.Errorf("expected overall 50 and no point, got %+v", res)
	}
}

func TestGradeStateOnly(t *testing.T) {
	gt := truth(t)
	sub := Submission{
		Initial:    challengeState(),
		Action:     map[string]any{"division": false, "digit": float64(7)},
		FinalState: asDoc(t, schema.EncodeState(gt.State, schema.Verbose)),
	}

	res := Grade(sub, gt, nil)
	if res.ActionGrade != 0 || res.StateGrade != 100 {
		t.Errorf("expected grades 0/100, got %+v", res)
	}
	if res.OverallGrade != 50 || res.Score != 0 {
		t.Errorf("expected overall 50 and no point, got %+v", res)
	}
	if res.Inspection == nil || res.Inspection.ActionPassed() {
		t.Error("inspection report should carry the action failure")
	}
}

func TestGradeNothingPasses(t *testing.T) {
	gt := truth(t)
	sub := Submission{Initial: challengeState(), Action: nil, FinalState: nil}

	log := audit.New()
	res := Grade(sub, gt, log)
	if res.ActionGrade != 0 || res.StateGrade != 0 || res.OverallGrade != 0 || res.Score != 0 {
		t.Errorf("expected all-zero result, got %+v", res)
	}
	if len(log.Messages(Category, audit.Score)) != 1 {
		t.Error("final grades should be logged exactly once")
	}
}

func TestGradeDeterministic(t *testing.T) {
	gt := truth(t)
	sub := Submission{
		Initial:    challengeState(),
		Action:     asDoc(t, schema.EncodeAction(challengeAction(), schema.Verbose)),
		FinalState: asDoc(t, schema.EncodeState(challengeState(), schema.Verbose)),
	}
	first := Grade(sub, gt, nil)
	second := Grade(sub, gt, nil)
	first.Inspection, second.Inspection = nil, nil
	if first != second {
		t.Errorf("grading diverged across runs: %+v vs %+v", first, second)
	}
}
