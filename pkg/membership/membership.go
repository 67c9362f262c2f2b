package membership

import (
	"errors"
	"time"
)

var (
	ErrPlanFull               = errors.New("plan is full")
	ErrAlreadyParticipant     = errors.New("already a participant")
	ErrAlreadyRequested       = errors.New("join already requested")
	ErrInsufficientTrustScore = errors.New("insufficient trust score")
	ErrRequestNotFound        = errors.New("join request not found")
)

// JoinRequest is a pending application to join a governed plan, together with
// the vote tally accumulated so far. Each current participant gets one vote.
type JoinRequest struct {
	PlanId    uint64
	Requester string
	Approvals int
	Denials   int
	CreatedAt time.Time
}

// VoteResult reports the tally after a vote and whether the vote settled the
// request. Admitted and Removed are mutually exclusive.
type VoteResult struct {
	Request  JoinRequest
	Admitted bool
	Removed  bool
}
