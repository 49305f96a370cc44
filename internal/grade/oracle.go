package grade

import (
	"fmt"

	"github.com/divide21x/divide21x-go/internal/schema"
	"github.com/divide21x/divide21x-go/internal/sim"
)

// TruthFromChallenge computes the oracle's ground truth for a challenge:
// the challenge action itself, and the state the simulator produces when
// that action is applied to the challenge's initial state. Grades are
// never stored as a source of truth; they are always recomputable from
// the artifact and the simulator, and this is where that recomputation
// happens.
func TruthFromChallenge(initial *schema.GameState, action *schema.Action) (GroundTruth, error) {
	adapter, err := sim.NewFromState(initial)
	if err != nil {
		return GroundTruth{}, fmt.Errorf("grade: load challenge state: %w", err)
	}
	step := adapter.Step(action)
	return GroundTruth{Action: action, State: step.State}, nil
}
