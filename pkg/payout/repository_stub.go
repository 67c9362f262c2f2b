package payout

import (
	"context"

	"github.com/ajohq/ajo/pkg/contribution"
	"github.com/ajohq/ajo/pkg/plan"
)

// RepositoryStub applies distributions against the in-memory plan and
// contribution stubs, mirroring the transactional implementation.
type RepositoryStub struct {
	planRepo         *plan.RepositoryStub
	contributionRepo *contribution.RepositoryStub
}

func NewRepositoryStub(planRepo *plan.RepositoryStub, contributionRepo *contribution.RepositoryStub) *RepositoryStub {
	return &RepositoryStub{planRepo: planRepo, contributionRepo: contributionRepo}
}

func (s *RepositoryStub) CommitDistribution(ctx context.Context, d Distribution) error {
	p, err := s.planRepo.Get(ctx, d.PlanId)
	if err != nil {
		return err
	}

	s.contributionRepo.ResetCycle(d.PlanId, d.Cycle)

	p.CurrentCycle = d.NextCycle
	p.PayoutIndex = d.NextPayoutIndex
	p.IsActive = !d.Completed
	p.EscrowBalance -= d.Amount
	return s.planRepo.Update(ctx, p)
}
