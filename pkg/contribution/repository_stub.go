package contribution

import (
	"context"

	"github.com/ajohq/ajo/pkg/plan"
)

type entryKey struct {
	planId      uint64
	cycle       int
	participant string
}

// RepositoryStub is an in-memory Repository. It mirrors the escrow credit of
// the real implementation against the given plan repository stub.
type RepositoryStub struct {
	planRepo *plan.RepositoryStub
	ledger   map[entryKey]int64
}

func NewRepositoryStub(planRepo *plan.RepositoryStub) *RepositoryStub {
	return &RepositoryStub{planRepo: planRepo, ledger: map[entryKey]int64{}}
}

func (s *RepositoryStub) Add(ctx context.Context, planId uint64, cycle int, participant string, amount int64) (int64, error) {
	p, err := s.planRepo.Get(ctx, planId)
	if err != nil {
		return 0, err
	}
	key := entryKey{planId, cycle, participant}
	s.ledger[key] += amount

	p.EscrowBalance += amount
	if err := s.planRepo.Update(ctx, p); err != nil {
		return 0, err
	}
	return s.ledger[key], nil
}

func (s *RepositoryStub) Get(_ context.Context, planId uint64, cycle int, participant string) (int64, error) {
	return s.ledger[entryKey{planId, cycle, participant}], nil
}

func (s *RepositoryStub) SumForCycle(_ context.Context, planId uint64, cycle int) (int64, error) {
	var sum int64
	for key, amount := range s.ledger {
		if key.planId == planId && key.cycle == cycle {
			sum += amount
		}
	}
	return sum, nil
}

// ResetCycle clears the cycle's ledger entries, as a payout distribution does.
func (s *RepositoryStub) ResetCycle(planId uint64, cycle int) {
	for key := range s.ledger {
		if key.planId == planId && key.cycle == cycle {
			delete(s.ledger, key)
		}
	}
}

func (s *RepositoryStub) Cleanup() {
	s.ledger = map[entryKey]int64{}
}
