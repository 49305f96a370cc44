package challenge

import "github.com/divide21x/divide21x-go/internal/schema"

// Example is one fully worked transition shown to submitters.
type Example struct {
	InitialState *schema.GameState
	Action       *schema.Action
	FinalState   *schema.GameState
}

// DigitChangeExample is the fixed worked example for a digit-change
// action: replacing the leading 5 of 59 with a 7 consumes the 7 at
// position 0 and moves the acting player's score by 5-7.
func DigitChangeExample() Example {
	return Example{
		InitialState: &schema.GameState{
			StaticNumber:  19,
			DynamicNumber: 59,
			AvailableDigitsPerRindex: map[int][]int{
				0: {0, 1, 2, 3, 4, 5, 6, 7, 8},
				1: {2, 3, 4, 6, 7, 8, 9},
			},
			Players:    []schema.Player{{ID: 0, Score: -13, IsCurrentTurn: 1}},
			PlayerTurn: 0,
		},
		Action: &schema.Action{Division: false, Digit: 7, Rindex: schema.RindexOf(0)},
		FinalState: &schema.GameState{
			StaticNumber:  19,
			DynamicNumber: 79,
			AvailableDigitsPerRindex: map[int][]int{
				0: {0, 1, 2, 3, 4, 5, 6, 8},
				1: {2, 3, 4, 6, 7, 8, 9},
			},
			Players:    []schema.Player{{ID: 0, Score: -15, IsCurrentTurn: 1}},
			PlayerTurn: 0,
		},
	}
}

// DivisionExample is the fixed worked example for a division action:
// 84 divided by 4 lands exactly on 21, re-keys the availability sets
// against the new digits, credits the divisor minus one and passes the
// turn.
func DivisionExample() Example {
	return Example{
		InitialState: &schema.GameState{
			StaticNumber:  84,
			DynamicNumber: 84,
			AvailableDigitsPerRindex: map[int][]int{
				0: {0, 1, 2, 3, 4, 5, 6, 7, 9},
				1: {0, 1, 2, 3, 5, 6, 7, 8, 9},
			},
			Players: []schema.Player{
				{ID: 0, Score: 0, IsCurrentTurn: 1},
				{ID: 1, Score: 0, IsCurrentTurn: 0},
			},
			PlayerTurn: 0,
		},
		Action: &schema.Action{Division: true, Digit: 4},
		FinalState: &schema.GameState{
			StaticNumber:  84,
			DynamicNumber: 21,
			AvailableDigitsPerRindex: map[int][]int{
				0: {0, 1, 3, 4, 5, 6, 7, 8, 9},
				1: {0, 2, 3, 4, 5, 6, 7, 8, 9},
			},
			Players: []schema.Player{
				{ID: 0, Score: 3, IsCurrentTurn: 0},
				{ID: 1, Score: 0, IsCurrentTurn: 1},
			},
			PlayerTurn: 1,
		},
	}
}
