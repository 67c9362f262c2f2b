package membership

import (
	"context"
	"fmt"

	"github.com/ajohq/ajo/internal/event_bus"
	"github.com/ajohq/ajo/pkg/caller"
	"github.com/ajohq/ajo/pkg/plan"
	"github.com/ajohq/ajo/pkg/trust"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	JoinPlan(ctx context.Context, planId uint64) (plan.Plan, error)
	RequestToJoin(ctx context.Context, planId uint64) (JoinRequest, error)
	ListRequests(ctx context.Context, planId uint64) ([]JoinRequest, error)
	ApproveRequest(ctx context.Context, planId uint64, requester string) (VoteResult, error)
	DenyRequest(ctx context.Context, planId uint64, requester string) (VoteResult, error)
}

type ServiceImpl struct {
	repo     Repository
	planRepo plan.Repository
	scorer   trust.Scorer
	eventBus *event_bus.EventBus
}

func NewService(repo Repository, planRepo plan.Repository, scorer trust.Scorer, eventBus *event_bus.EventBus) *ServiceImpl {
	return &ServiceImpl{repo: repo, planRepo: planRepo, scorer: scorer, eventBus: eventBus}
}

// admissible runs the guards shared by direct joins and join requests.
func (s *ServiceImpl) admissible(ctx context.Context, p plan.Plan, address string) error {
	if p.IsCancelled {
		return plan.ErrPlanCancelled
	}
	if p.IsActive {
		return plan.ErrPlanActive
	}
	if p.IsParticipant(address) {
		return ErrAlreadyParticipant
	}
	if p.IsFull() {
		return ErrPlanFull
	}
	score, err := s.scorer.Score(ctx, address)
	if err != nil {
		return fmt.Errorf("failed to score %s: %w", address, err)
	}
	if score < p.TrustScoreRequired {
		return fmt.Errorf("%w: score %d below required %d", ErrInsufficientTrustScore, score, p.TrustScoreRequired)
	}
	return nil
}

// JoinPlan admits the caller into a plan with direct admission. The member
// takes the next rotation slot; reaching capacity activates the plan.
func (s *ServiceImpl) JoinPlan(ctx context.Context, planId uint64) (plan.Plan, error) {
	address, err := caller.Current(ctx)
	if err != nil {
		return plan.Plan{}, fmt.Errorf("failed to get caller: %w", err)
	}

	p, err := s.planRepo.Get(ctx, planId)
	if err != nil {
		return plan.Plan{}, err
	}
	if p.AdmissionPolicy != plan.AdmissionDirect {
		return plan.Plan{}, fmt.Errorf("%w: plan admits members by approval only", plan.ErrInvalidInput)
	}
	if err := s.admissible(ctx, p, address); err != nil {
		return plan.Plan{}, err
	}

	return s.admit(ctx, planId, address)
}

func (s *ServiceImpl) admit(ctx context.Context, planId uint64, address string) (plan.Plan, error) {
	p, err := s.planRepo.AddParticipant(ctx, planId, address)
	if err != nil {
		return plan.Plan{}, err
	}

	if err := s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.MemberJoined,
		event_bus.MemberJoinedData{PlanId: planId, Address: address, Position: len(p.Participants) - 1})); err != nil {
		log.Errorf("failed to publish member joined event: %v", err)
	}
	if p.IsActive {
		if err := s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.PlanActivated,
			event_bus.PlanActivatedData{PlanId: planId, Participants: len(p.Participants)})); err != nil {
			log.Errorf("failed to publish plan activated event: %v", err)
		}
	}
	return p, nil
}

// RequestToJoin files an application to a governed plan. The caller does not
// become a participant until a quorum of current members approves.
func (s *ServiceImpl) RequestToJoin(ctx context.Context, planId uint64) (JoinRequest, error) {
	address, err := caller.Current(ctx)
	if err != nil {
		return JoinRequest{}, fmt.Errorf("failed to get caller: %w", err)
	}

	p, err := s.planRepo.Get(ctx, planId)
	if err != nil {
		return JoinRequest{}, err
	}
	if p.AdmissionPolicy != plan.AdmissionGoverned {
		return JoinRequest{}, fmt.Errorf("%w: plan admits members directly", plan.ErrInvalidInput)
	}
	if err := s.admissible(ctx, p, address); err != nil {
		return JoinRequest{}, err
	}

	return s.repo.CreateRequest(ctx, planId, address)
}

func (s *ServiceImpl) ListRequests(ctx context.Context, planId uint64) ([]JoinRequest, error) {
	if _, err := s.planRepo.Get(ctx, planId); err != nil {
		return nil, err
	}
	return s.repo.ListRequests(ctx, planId)
}

// ApproveRequest records the caller's approval. The requester is admitted as
// soon as approvals reach half of the current membership, rounded up.
func (s *ServiceImpl) ApproveRequest(ctx context.Context, planId uint64, requester string) (VoteResult, error) {
	p, request, err := s.castVote(ctx, planId, requester, true)
	if err != nil {
		return VoteResult{}, err
	}

	result := VoteResult{Request: request}
	if request.Approvals*2 >= len(p.Participants) {
		if p.IsFull() {
			// The group filled while the vote was pending; the request can
			// no longer be honoured.
			if err := s.repo.DeleteRequest(ctx, planId, requester); err != nil {
				return VoteResult{}, err
			}
			return VoteResult{}, ErrPlanFull
		}
		if _, err := s.admit(ctx, planId, requester); err != nil {
			return VoteResult{}, err
		}
		if err := s.repo.DeleteRequest(ctx, planId, requester); err != nil {
			return VoteResult{}, err
		}
		result.Admitted = true
	}
	return result, nil
}

// DenyRequest records the caller's denial. The request is removed once
// denials exceed half of the current membership.
func (s *ServiceImpl) DenyRequest(ctx context.Context, planId uint64, requester string) (VoteResult, error) {
	p, request, err := s.castVote(ctx, planId, requester, false)
	if err != nil {
		return VoteResult{}, err
	}

	result := VoteResult{Request: request}
	if request.Denials*2 > len(p.Participants) {
		if err := s.repo.DeleteRequest(ctx, planId, requester); err != nil {
			return VoteResult{}, err
		}
		result.Removed = true
	}
	return result, nil
}

func (s *ServiceImpl) castVote(ctx context.Context, planId uint64, requester string, approve bool) (plan.Plan, JoinRequest, error) {
	voter, err := caller.Current(ctx)
	if err != nil {
		return plan.Plan{}, JoinRequest{}, fmt.Errorf("failed to get caller: %w", err)
	}

	p, err := s.planRepo.Get(ctx, planId)
	if err != nil {
		return plan.Plan{}, JoinRequest{}, err
	}
	if !p.IsParticipant(voter) {
		return plan.Plan{}, JoinRequest{}, fmt.Errorf("%w: only participants can vote", plan.ErrNotParticipant)
	}

	request, err := s.repo.CastVote(ctx, planId, requester, voter, approve)
	if err != nil {
		return plan.Plan{}, JoinRequest{}, err
	}
	return p, request, nil
}
