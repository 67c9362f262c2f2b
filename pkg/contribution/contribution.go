package contribution

import (
	"errors"
	"time"
)

var ErrAlreadyContributed = errors.New("already fully contributed for this cycle")

// Entry is a participant's cumulative contribution for one plan cycle.
// Partial top-ups accumulate into the same entry.
type Entry struct {
	PlanId      uint64
	Cycle       int
	Participant string
	Amount      int64
	UpdatedAt   time.Time
}

// CycleStatus describes where a participant stands in the given cycle.
type CycleStatus struct {
	PlanId           uint64
	Cycle            int
	Participant      string
	Required         int64
	Contributed      int64
	Remaining        int64
	FullyContributed bool
	// ReceivedPayout reports whether the participant's rotation slot has
	// already been paid in the current rotation.
	ReceivedPayout bool
}
