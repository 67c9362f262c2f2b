package payout

import (
	"errors"

	"github.com/ajohq/ajo/pkg/settlement"
)

var ErrInsufficientContributions = errors.New("insufficient contributions")

// Distribution is one committed payout round: who got paid, and the rotation
// state the plan moves to.
type Distribution struct {
	PlanId          uint64
	Cycle           int
	Recipient       string
	Amount          int64
	NextCycle       int
	NextPayoutIndex int
	// Completed is set when this was the plan's final cycle.
	Completed bool
}

// Result pairs the committed distribution with the settlement instruction
// emitted for it.
type Result struct {
	Distribution Distribution
	Instruction  settlement.Instruction
}
