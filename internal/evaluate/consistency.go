// Package evaluate checks that a submitted action actually produces the
// submitted final state. A submission is a triple (initial state, action,
// claimed final state); replaying the action through the simulator and
// comparing via the order-insensitive comparator avoids rejecting
// semantically correct answers that merely reorder list-valued fields.
package evaluate

import (
	"github.com/divide21x/divide21x-go/internal/audit"
	"github.com/divide21x/divide21x-go/internal/compare"
	"github.com/divide21x/divide21x-go/internal/schema"
	"github.com/divide21x/divide21x-go/internal/sim"
)

// Audit category.
const Category = "consistency"

// ActionGeneratesState replays action on initial through a fresh simulator
// instance and compares the decoded result against the claimed final
// state. Total: a state the simulator cannot load scores (false, 0).
func ActionGeneratesState(initial *schema.GameState, action *schema.Action, claimed any, log *audit.Log) compare.Result {
	if initial == nil || action == nil {
		log.Add(Category, audit.Warning, "Consistency check needs both an initial state and an action.")
		return compare.Result{}
	}
	adapter, err := sim.NewFromState(initial)
	if err != nil {
		log.Add(Category, audit.Warning, "Initial state could not be loaded into the simulator: "+err.Error())
		return compare.Result{}
	}
	step := adapter.Step(action)
	log.Add(Category, audit.Note, "Applied submitted action to submitted initial state.")
	return compare.States(step.State, claimed, log)
}
