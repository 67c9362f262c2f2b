package contribution

import (
	"context"
	"fmt"

	"github.com/ajohq/ajo/internal/config"
	"github.com/ajohq/ajo/pkg/caller"
	"github.com/ajohq/ajo/pkg/plan"
	"github.com/ajohq/ajo/pkg/settlement"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	Contribute(ctx context.Context, planId uint64, cycle int, amount int64, funds settlement.Funds) (CycleStatus, error)
	ParticipantCycleStatus(ctx context.Context, planId uint64, participant string, cycle int) (CycleStatus, error)
}

type ServiceImpl struct {
	repo     Repository
	planRepo plan.Repository
	cfg      config.Application
}

func NewService(repo Repository, planRepo plan.Repository, cfg config.Application) *ServiceImpl {
	return &ServiceImpl{repo: repo, planRepo: planRepo, cfg: cfg}
}

// Contribute credits the caller's contribution for the plan's current cycle.
// Partial amounts are accepted when the plan allows them; the cycle's entry
// can never exceed the required contribution. Attached funds above the
// declared amount are accepted, but only the declared amount is credited.
func (s *ServiceImpl) Contribute(ctx context.Context, planId uint64, cycle int, amount int64, funds settlement.Funds) (CycleStatus, error) {
	participant, err := caller.Current(ctx)
	if err != nil {
		return CycleStatus{}, fmt.Errorf("failed to get caller: %w", err)
	}

	p, err := s.planRepo.Get(ctx, planId)
	if err != nil {
		return CycleStatus{}, err
	}
	if p.IsCancelled {
		return CycleStatus{}, plan.ErrPlanCancelled
	}
	if !p.IsActive {
		return CycleStatus{}, plan.ErrPlanNotActive
	}
	if !p.IsParticipant(participant) {
		return CycleStatus{}, plan.ErrNotParticipant
	}
	if cycle != p.CurrentCycle {
		return CycleStatus{}, fmt.Errorf("%w: can only contribute to the current cycle %d", plan.ErrInvalidInput, p.CurrentCycle)
	}
	if amount <= 0 {
		return CycleStatus{}, fmt.Errorf("%w: amount must be positive", plan.ErrInvalidInput)
	}
	if funds.Denom != s.cfg.Denom {
		return CycleStatus{}, fmt.Errorf("%w: expected funds in %s", plan.ErrInvalidInput, s.cfg.Denom)
	}
	if funds.Amount < amount {
		return CycleStatus{}, fmt.Errorf("%w: attached funds must cover the declared amount", plan.ErrInvalidInput)
	}

	contributed, err := s.repo.Get(ctx, planId, cycle, participant)
	if err != nil {
		return CycleStatus{}, err
	}
	if contributed >= p.ContributionAmount {
		return CycleStatus{}, ErrAlreadyContributed
	}
	if !p.AllowPartial && amount != p.ContributionAmount {
		return CycleStatus{}, fmt.Errorf("%w: plan requires the full contribution of %d", plan.ErrInvalidInput, p.ContributionAmount)
	}
	if contributed+amount > p.ContributionAmount {
		return CycleStatus{}, fmt.Errorf("%w: contribution exceeds the required %d by %d",
			plan.ErrInvalidInput, p.ContributionAmount, contributed+amount-p.ContributionAmount)
	}

	total, err := s.repo.Add(ctx, planId, cycle, participant, amount)
	if err != nil {
		return CycleStatus{}, err
	}
	log.Debugf("contribution of %d to plan %d cycle %d by %s, total %d", amount, planId, cycle, participant, total)

	return s.status(p, participant, cycle, total), nil
}

// ParticipantCycleStatus reports contribution progress and payout standing for
// one participant in the given cycle.
func (s *ServiceImpl) ParticipantCycleStatus(ctx context.Context, planId uint64, participant string, cycle int) (CycleStatus, error) {
	p, err := s.planRepo.Get(ctx, planId)
	if err != nil {
		return CycleStatus{}, err
	}
	if !p.IsParticipant(participant) {
		return CycleStatus{}, plan.ErrNotParticipant
	}
	if cycle < 0 {
		cycle = p.CurrentCycle
	}

	contributed, err := s.repo.Get(ctx, planId, cycle, participant)
	if err != nil {
		return CycleStatus{}, err
	}
	return s.status(p, participant, cycle, contributed), nil
}

func (s *ServiceImpl) status(p plan.Plan, participant string, cycle int, contributed int64) CycleStatus {
	remaining := p.ContributionAmount - contributed
	if remaining < 0 {
		remaining = 0
	}
	position := p.ParticipantPosition(participant)
	return CycleStatus{
		PlanId:           p.Id,
		Cycle:            cycle,
		Participant:      participant,
		Required:         p.ContributionAmount,
		Contributed:      contributed,
		Remaining:        remaining,
		FullyContributed: contributed >= p.ContributionAmount,
		ReceivedPayout:   p.PayoutIndex > 0 && position < p.PayoutIndex,
	}
}
