package payout

import (
	"context"
	"fmt"

	"github.com/ajohq/ajo/internal/config"
	"github.com/ajohq/ajo/internal/event_bus"
	"github.com/ajohq/ajo/pkg/caller"
	"github.com/ajohq/ajo/pkg/contribution"
	"github.com/ajohq/ajo/pkg/plan"
	"github.com/ajohq/ajo/pkg/settlement"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	Distribute(ctx context.Context, planId uint64) (Result, error)
}

type ServiceImpl struct {
	repo             Repository
	planRepo         plan.Repository
	contributionRepo contribution.Repository
	transfers        settlement.Transfers
	eventBus         *event_bus.EventBus
	cfg              config.Application
}

func NewService(repo Repository, planRepo plan.Repository, contributionRepo contribution.Repository,
	transfers settlement.Transfers, eventBus *event_bus.EventBus, cfg config.Application) *ServiceImpl {
	return &ServiceImpl{
		repo:             repo,
		planRepo:         planRepo,
		contributionRepo: contributionRepo,
		transfers:        transfers,
		eventBus:         eventBus,
		cfg:              cfg,
	}
}

// Distribute pays out the current cycle to the participant at the payout
// index, resets the cycle's ledger, and advances the rotation. Only the
// configured admin may trigger it, and only when the cycle is fully funded.
// The final cycle's distribution completes the plan.
func (s *ServiceImpl) Distribute(ctx context.Context, planId uint64) (Result, error) {
	callerAddress, err := caller.Current(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("failed to get caller: %w", err)
	}
	if callerAddress != s.cfg.Admin {
		return Result{}, fmt.Errorf("%w: only the admin can distribute payouts", plan.ErrUnauthorized)
	}

	p, err := s.planRepo.Get(ctx, planId)
	if err != nil {
		return Result{}, err
	}
	if p.IsCancelled {
		return Result{}, plan.ErrPlanCancelled
	}
	if !p.IsActive {
		return Result{}, plan.ErrPlanNotActive
	}

	required := p.ContributionAmount * int64(len(p.Participants))
	funded, err := s.contributionRepo.SumForCycle(ctx, planId, p.CurrentCycle)
	if err != nil {
		return Result{}, err
	}
	if funded < required {
		return Result{}, fmt.Errorf("%w: cycle %d holds %d of the required %d",
			ErrInsufficientContributions, p.CurrentCycle, funded, required)
	}

	recipient := p.Participants[p.PayoutIndex]
	nextCycle := p.CurrentCycle + 1
	distribution := Distribution{
		PlanId:          planId,
		Cycle:           p.CurrentCycle,
		Recipient:       recipient,
		Amount:          required,
		NextCycle:       nextCycle,
		NextPayoutIndex: (p.PayoutIndex + 1) % len(p.Participants),
		Completed:       nextCycle >= p.TotalCycles(),
	}
	if err := s.repo.CommitDistribution(ctx, distribution); err != nil {
		return Result{}, err
	}

	// State is committed at this point; the transfer hand-off happens after,
	// so a failed hand-off must be retried downstream rather than rolled back.
	instruction := settlement.NewInstruction(recipient, required, s.cfg.Denom)
	if err := s.transfers.Submit(ctx, instruction); err != nil {
		log.Errorf("payout for plan %d cycle %d committed but transfer hand-off failed: %v",
			planId, distribution.Cycle, err)
		return Result{}, fmt.Errorf("failed to submit payout transfer: %w", err)
	}

	if err := s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.PayoutDistributed,
		event_bus.PayoutDistributedData{
			PlanId:    planId,
			Cycle:     distribution.Cycle,
			Recipient: recipient,
			Amount:    required,
		})); err != nil {
		log.Errorf("failed to publish payout distributed event: %v", err)
	}
	if distribution.Completed {
		if err := s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.PlanCompleted,
			event_bus.PlanCompletedData{PlanId: planId, TotalCycles: p.TotalCycles()})); err != nil {
			log.Errorf("failed to publish plan completed event: %v", err)
		}
	}

	return Result{Distribution: distribution, Instruction: instruction}, nil
}
