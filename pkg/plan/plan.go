package plan

import (
	"errors"
	"fmt"
	"time"
)

// Shared error taxonomy for plan operations. Membership, contribution, and
// payout packages reuse these sentinels where the failure concerns plan state.
var (
	ErrPlanNotFound   = errors.New("plan not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrPlanActive     = errors.New("plan is already active")
	ErrPlanNotActive  = errors.New("plan is not active")
	ErrPlanCancelled  = errors.New("plan is cancelled")
	ErrNotParticipant = errors.New("not a participant")
)

// Frequency determines how many contribution cycles fit in a month.
type Frequency string

const (
	FrequencyDaily   Frequency = "Daily"
	FrequencyWeekly  Frequency = "Weekly"
	FrequencyMonthly Frequency = "Monthly"
)

func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(s) {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return Frequency(s), nil
	}
	return "", fmt.Errorf("%w: invalid frequency %q", ErrInvalidInput, s)
}

func (f Frequency) CyclesPerMonth() int {
	switch f {
	case FrequencyDaily:
		return 30
	case FrequencyWeekly:
		return 4
	default:
		return 1
	}
}

// AdmissionPolicy selects how a plan admits members: directly on request, or
// through a join request approved by a quorum of current members.
type AdmissionPolicy string

const (
	AdmissionDirect   AdmissionPolicy = "direct"
	AdmissionGoverned AdmissionPolicy = "governed"
)

func ParseAdmissionPolicy(s string) (AdmissionPolicy, error) {
	if s == "" {
		return AdmissionDirect, nil
	}
	switch AdmissionPolicy(s) {
	case AdmissionDirect, AdmissionGoverned:
		return AdmissionPolicy(s), nil
	}
	return "", fmt.Errorf("%w: invalid admission policy %q", ErrInvalidInput, s)
}

// Status is the lifecycle phase derived from the stored flags.
type Status string

const (
	StatusOpen      Status = "open"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Plan is the central aggregate: a rotating savings group with a fixed
// contribution per cycle and a payout rotation over its participants.
type Plan struct {
	Id                 uint64
	Name               string
	Description        string
	TotalParticipants  int
	ContributionAmount int64
	Frequency          Frequency
	DurationMonths     int
	TrustScoreRequired int
	AllowPartial       bool
	AdmissionPolicy    AdmissionPolicy
	// Participants is ordered by admission; the order is the payout rotation
	// order and never changes once a member is in.
	Participants []string
	// CurrentCycle counts completed payout rounds.
	CurrentCycle int
	// PayoutIndex points at the next recipient in Participants.
	PayoutIndex   int
	IsActive      bool
	IsCancelled   bool
	CreatedBy     string
	EscrowBalance int64
	CreatedAt     time.Time
}

// TotalCycles is the number of payouts the plan runs before completing.
func (p Plan) TotalCycles() int {
	return p.DurationMonths * p.Frequency.CyclesPerMonth()
}

func (p Plan) IsFull() bool {
	return len(p.Participants) >= p.TotalParticipants
}

func (p Plan) IsParticipant(address string) bool {
	for _, participant := range p.Participants {
		if participant == address {
			return true
		}
	}
	return false
}

// ParticipantPosition returns the rotation slot of the given address, or -1.
func (p Plan) ParticipantPosition(address string) int {
	for i, participant := range p.Participants {
		if participant == address {
			return i
		}
	}
	return -1
}

// Completed reports whether the plan has exhausted all cycles.
func (p Plan) Completed() bool {
	return !p.IsActive && !p.IsCancelled && p.CurrentCycle >= p.TotalCycles() && p.CurrentCycle > 0
}

func (p Plan) Status() Status {
	switch {
	case p.IsCancelled:
		return StatusCancelled
	case p.IsActive:
		return StatusActive
	case p.Completed():
		return StatusCompleted
	default:
		return StatusOpen
	}
}

// Update carries a partial plan modification; nil fields are left unchanged.
type Update struct {
	Name               *string
	Description        *string
	TotalParticipants  *int
	ContributionAmount *int64
	Frequency          *string
	DurationMonths     *int
	TrustScoreRequired *int
	AllowPartial       *bool
}
