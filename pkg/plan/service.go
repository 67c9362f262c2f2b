package plan

import (
	"context"
	"fmt"

	"github.com/ajohq/ajo/internal/config"
	"github.com/ajohq/ajo/internal/event_bus"
	"github.com/ajohq/ajo/pkg/caller"
	"github.com/ajohq/ajo/pkg/settlement"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	CreatePlan(ctx context.Context, input CreateInput) (Plan, error)
	GetPlan(ctx context.Context, planId uint64) (Plan, error)
	ListPlans(ctx context.Context) ([]Plan, error)
	ListPlansByCreator(ctx context.Context, creator string) ([]Plan, error)
	CountPlans(ctx context.Context) (uint64, error)
	UpdatePlan(ctx context.Context, planId uint64, update Update) (Plan, error)
	CancelPlan(ctx context.Context, planId uint64) error
	EmergencyWithdraw(ctx context.Context, planId uint64) (settlement.Instruction, error)
}

// CreateInput carries the raw create_plan fields. Frequency and
// AdmissionPolicy arrive as literals and are validated here.
type CreateInput struct {
	Name               string
	Description        string
	TotalParticipants  int
	ContributionAmount int64
	Frequency          string
	DurationMonths     int
	TrustScoreRequired int
	AllowPartial       bool
	AdmissionPolicy    string
}

type ServiceImpl struct {
	repo      Repository
	eventBus  *event_bus.EventBus
	transfers settlement.Transfers
	cfg       config.Application
}

func NewService(repo Repository, eventBus *event_bus.EventBus, transfers settlement.Transfers, cfg config.Application) *ServiceImpl {
	return &ServiceImpl{repo: repo, eventBus: eventBus, transfers: transfers, cfg: cfg}
}

func validateBounds(name, description string, totalParticipants int, contributionAmount int64, durationMonths, trustScoreRequired int) error {
	if totalParticipants < 2 || totalParticipants > 100 {
		return fmt.Errorf("%w: participants must be between 2 and 100", ErrInvalidInput)
	}
	if contributionAmount < 10 || contributionAmount > 100000 {
		return fmt.Errorf("%w: contribution amount must be between 10 and 100000", ErrInvalidInput)
	}
	if durationMonths < 1 || durationMonths > 36 {
		return fmt.Errorf("%w: duration must be between 1 and 36 months", ErrInvalidInput)
	}
	if len(name) < 3 || len(name) > 50 {
		return fmt.Errorf("%w: name must be between 3 and 50 characters", ErrInvalidInput)
	}
	if len(description) < 10 || len(description) > 500 {
		return fmt.Errorf("%w: description must be between 10 and 500 characters", ErrInvalidInput)
	}
	if trustScoreRequired < 0 {
		return fmt.Errorf("%w: trust score must not be negative", ErrInvalidInput)
	}
	return nil
}

func (s *ServiceImpl) CreatePlan(ctx context.Context, input CreateInput) (Plan, error) {
	creator, err := caller.Current(ctx)
	if err != nil {
		return Plan{}, fmt.Errorf("failed to get caller: %w", err)
	}

	if err := validateBounds(input.Name, input.Description, input.TotalParticipants,
		input.ContributionAmount, input.DurationMonths, input.TrustScoreRequired); err != nil {
		return Plan{}, err
	}
	frequency, err := ParseFrequency(input.Frequency)
	if err != nil {
		return Plan{}, err
	}
	policy, err := ParseAdmissionPolicy(input.AdmissionPolicy)
	if err != nil {
		return Plan{}, err
	}

	created, err := s.repo.Create(ctx, Plan{
		Name:               input.Name,
		Description:        input.Description,
		TotalParticipants:  input.TotalParticipants,
		ContributionAmount: input.ContributionAmount,
		Frequency:          frequency,
		DurationMonths:     input.DurationMonths,
		TrustScoreRequired: input.TrustScoreRequired,
		AllowPartial:       input.AllowPartial,
		AdmissionPolicy:    policy,
		CreatedBy:          creator,
	})
	if err != nil {
		return Plan{}, err
	}

	if err := s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.PlanCreated,
		event_bus.PlanCreatedData{PlanId: created.Id, CreatedBy: creator})); err != nil {
		log.Errorf("failed to publish plan created event: %v", err)
	}
	return created, nil
}

func (s *ServiceImpl) GetPlan(ctx context.Context, planId uint64) (Plan, error) {
	return s.repo.Get(ctx, planId)
}

func (s *ServiceImpl) ListPlans(ctx context.Context) ([]Plan, error) {
	return s.repo.List(ctx)
}

func (s *ServiceImpl) ListPlansByCreator(ctx context.Context, creator string) ([]Plan, error) {
	return s.repo.ListByCreator(ctx, creator)
}

func (s *ServiceImpl) CountPlans(ctx context.Context) (uint64, error) {
	return s.repo.Count(ctx)
}

// UpdatePlan applies a partial update. Only the creator may update, and only
// while the plan has not yet activated; omitted fields keep their values.
func (s *ServiceImpl) UpdatePlan(ctx context.Context, planId uint64, update Update) (Plan, error) {
	callerAddress, err := caller.Current(ctx)
	if err != nil {
		return Plan{}, fmt.Errorf("failed to get caller: %w", err)
	}

	p, err := s.repo.Get(ctx, planId)
	if err != nil {
		return Plan{}, err
	}
	if p.CreatedBy != callerAddress {
		return Plan{}, fmt.Errorf("%w: only the plan creator can update the plan", ErrUnauthorized)
	}
	if p.IsActive {
		return Plan{}, ErrPlanActive
	}
	if p.IsCancelled {
		return Plan{}, ErrPlanCancelled
	}

	if update.Name != nil {
		p.Name = *update.Name
	}
	if update.Description != nil {
		p.Description = *update.Description
	}
	if update.TotalParticipants != nil {
		p.TotalParticipants = *update.TotalParticipants
	}
	if update.ContributionAmount != nil {
		p.ContributionAmount = *update.ContributionAmount
	}
	if update.Frequency != nil {
		frequency, err := ParseFrequency(*update.Frequency)
		if err != nil {
			return Plan{}, err
		}
		p.Frequency = frequency
	}
	if update.DurationMonths != nil {
		p.DurationMonths = *update.DurationMonths
	}
	if update.TrustScoreRequired != nil {
		p.TrustScoreRequired = *update.TrustScoreRequired
	}
	if update.AllowPartial != nil {
		p.AllowPartial = *update.AllowPartial
	}

	if err := validateBounds(p.Name, p.Description, p.TotalParticipants,
		p.ContributionAmount, p.DurationMonths, p.TrustScoreRequired); err != nil {
		return Plan{}, err
	}
	// Capacity can never drop below the members already admitted.
	if p.TotalParticipants < len(p.Participants) {
		return Plan{}, fmt.Errorf("%w: total participants below current membership", ErrInvalidInput)
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return Plan{}, err
	}
	return p, nil
}

func (s *ServiceImpl) CancelPlan(ctx context.Context, planId uint64) error {
	callerAddress, err := caller.Current(ctx)
	if err != nil {
		return fmt.Errorf("failed to get caller: %w", err)
	}

	p, err := s.repo.Get(ctx, planId)
	if err != nil {
		return err
	}
	if p.CreatedBy != callerAddress {
		return fmt.Errorf("%w: only the plan creator can cancel the plan", ErrUnauthorized)
	}
	if p.IsActive {
		return ErrPlanActive
	}
	if p.IsCancelled {
		return ErrPlanCancelled
	}

	p.IsCancelled = true
	if err := s.repo.Update(ctx, p); err != nil {
		return err
	}

	if err := s.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.PlanCancelled,
		event_bus.PlanCancelledData{PlanId: planId})); err != nil {
		log.Errorf("failed to publish plan cancelled event: %v", err)
	}
	return nil
}

// EmergencyWithdraw returns the plan's escrowed funds to the creator. Legal
// only while the plan is not rotating payouts, as terminal cleanup.
func (s *ServiceImpl) EmergencyWithdraw(ctx context.Context, planId uint64) (settlement.Instruction, error) {
	callerAddress, err := caller.Current(ctx)
	if err != nil {
		return settlement.Instruction{}, fmt.Errorf("failed to get caller: %w", err)
	}

	p, err := s.repo.Get(ctx, planId)
	if err != nil {
		return settlement.Instruction{}, err
	}
	if p.CreatedBy != callerAddress {
		return settlement.Instruction{}, fmt.Errorf("%w: only the plan creator can withdraw", ErrUnauthorized)
	}
	if p.IsActive {
		return settlement.Instruction{}, ErrPlanActive
	}

	amount, err := s.repo.WithdrawEscrow(ctx, planId)
	if err != nil {
		return settlement.Instruction{}, err
	}
	if amount == 0 {
		return settlement.Instruction{}, fmt.Errorf("%w: no escrowed funds to withdraw", ErrInvalidInput)
	}

	instruction := settlement.NewInstruction(callerAddress, amount, s.cfg.Denom)
	if err := s.transfers.Submit(ctx, instruction); err != nil {
		return settlement.Instruction{}, fmt.Errorf("failed to submit withdrawal transfer: %w", err)
	}
	log.Infof("emergency withdraw of %d %s from plan %d", amount, s.cfg.Denom, planId)
	return instruction, nil
}
