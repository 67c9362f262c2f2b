package plan

import (
	"context"
	"sort"
	"time"
)

// RepositoryStub is an in-memory Repository used by service tests across
// packages.
type RepositoryStub struct {
	nextId uint64
	plans  map[uint64]Plan
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{plans: map[uint64]Plan{}}
}

func (s *RepositoryStub) Create(_ context.Context, plan Plan) (Plan, error) {
	s.nextId++
	plan.Id = s.nextId
	plan.Participants = []string{plan.CreatedBy}
	plan.CreatedAt = time.Now()
	s.plans[plan.Id] = clonePlan(plan)
	return plan, nil
}

func (s *RepositoryStub) Get(_ context.Context, planId uint64) (Plan, error) {
	plan, exists := s.plans[planId]
	if !exists {
		return Plan{}, ErrPlanNotFound
	}
	return clonePlan(plan), nil
}

func (s *RepositoryStub) List(_ context.Context) ([]Plan, error) {
	plans := make([]Plan, 0, len(s.plans))
	for _, plan := range s.plans {
		plans = append(plans, clonePlan(plan))
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].Id > plans[j].Id })
	return plans, nil
}

func (s *RepositoryStub) ListByCreator(_ context.Context, creator string) ([]Plan, error) {
	var plans []Plan
	for _, plan := range s.plans {
		if plan.CreatedBy == creator {
			plans = append(plans, clonePlan(plan))
		}
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].Id < plans[j].Id })
	return plans, nil
}

func (s *RepositoryStub) Count(_ context.Context) (uint64, error) {
	return uint64(len(s.plans)), nil
}

func (s *RepositoryStub) Update(_ context.Context, plan Plan) error {
	if _, exists := s.plans[plan.Id]; !exists {
		return ErrPlanNotFound
	}
	s.plans[plan.Id] = clonePlan(plan)
	return nil
}

func (s *RepositoryStub) AddParticipant(_ context.Context, planId uint64, address string) (Plan, error) {
	plan, exists := s.plans[planId]
	if !exists {
		return Plan{}, ErrPlanNotFound
	}
	plan.Participants = append(plan.Participants, address)
	if len(plan.Participants) == plan.TotalParticipants {
		plan.IsActive = true
	}
	s.plans[planId] = plan
	return clonePlan(plan), nil
}

func (s *RepositoryStub) WithdrawEscrow(_ context.Context, planId uint64) (int64, error) {
	plan, exists := s.plans[planId]
	if !exists {
		return 0, ErrPlanNotFound
	}
	amount := plan.EscrowBalance
	plan.EscrowBalance = 0
	s.plans[planId] = plan
	return amount, nil
}

func (s *RepositoryStub) Cleanup() {
	s.nextId = 0
	s.plans = map[uint64]Plan{}
}

func clonePlan(p Plan) Plan {
	p.Participants = append([]string(nil), p.Participants...)
	return p
}
