// Package grade combines inspection, consistency and ground-truth
// comparison outcomes into the final fidelity grades. The grader is a
// one-shot classifier over the four inspection pass/fail combinations;
// every branch is terminal and always yields well-formed grades, even for
// completely malformed submissions.
package grade

import (
	"github.com/shopspring/decimal"

	"github.com/divide21x/divide21x-go/internal/audit"
	"github.com/divide21x/divide21x-go/internal/compare"
	"github.com/divide21x/divide21x-go/internal/evaluate"
	"github.com/divide21x/divide21x-go/internal/inspect"
	"github.com/divide21x/divide21x-go/internal/schema"
)

// Audit category.
const Category = "grading"

// Submission is one untrusted answer under grading. Initial is the
// challenge's initial state (trusted, from the artifact); Action and
// FinalState are whatever the submitter sent.
type Submission struct {
	Initial    *schema.GameState
	Action     any
	FinalState any
}

// GroundTruth carries the oracle's best available action and resulting
// state for the same challenge.
type GroundTruth struct {
	Action *schema.Action
	State  *schema.GameState
}

// Result is the grading outcome. Grades are in [0,100]; Score is the
// binary leaderboard point, 1 only for an exact overall 100.
type Result struct {
	ActionGrade  float64 `json:"action_grade"`
	StateGrade   float64 `json:"state_grade"`
	OverallGrade float64 `json:"overall_grade"`
	Score        int     `json:"score"`

	Inspection *inspect.Report `json:"-"`
}

// Grade inspects the submission and routes it through the four-branch
// combination logic.
func Grade(sub Submission, truth GroundTruth, log *audit.Log) Result {
	report := inspect.Inspect(sub.Action, sub.FinalState, log)

	var actionGrade, stateGrade decimal.Decimal
	switch {
	case report.ActionPassed() && report.StatePassed():
		actionBase := compare.Actions(report.Action, truth.Action, log).Score
		stateBase := compare.States(report.State, truth.State, log).Score
		actionGrade = decimal.NewFromFloat(actionBase)
		stateGrade = decimal.NewFromFloat(stateBase)

		consistency := evaluate.ActionGeneratesState(sub.Initial, report.Action, report.State, log)
		if !consistency.Equivalent {
			// An inconsistent pair implicates both dimensions, so the
			// deduction is split evenly between them.
			deduction := decimal.NewFromInt(100).
				Sub(decimal.NewFromFloat(consistency.Score)).
				Div(decimal.NewFromInt(2))
			actionGrade = clampGrade(actionGrade.Sub(deduction))
			stateGrade = clampGrade(stateGrade.Sub(deduction))
			log.Add(Category, audit.Warning, "Submitted action does not generate the submitted final state.")
		}

	case report.ActionPassed():
		actionGrade = decimal.NewFromFloat(compare.Actions(report.Action, truth.Action, log).Score)

	case report.StatePassed():
		stateGrade = decimal.NewFromFloat(compare.States(report.State, truth.State, log).Score)
	}

	overall := actionGrade.Add(stateGrade).Div(decimal.NewFromInt(2)).Round(2)
	result := Result{Inspection: report}
	result.ActionGrade, _ = actionGrade.Round(2).Float64()
	result.StateGrade, _ = stateGrade.Round(2).Float64()
	result.OverallGrade, _ = overall.Float64()
	if overall.Equal(decimal.NewFromInt(100)) {
		result.Score = 1
	}

	log.Add(Category, audit.Score, map[string]any{
		"action_grade":  result.ActionGrade,
		"state_grade":   result.StateGrade,
		"overall_grade": result.OverallGrade,
		"score":         result.Score,
	})
	return result
}

func clampGrade(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
