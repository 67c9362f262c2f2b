package activity

import "context"

type RepositoryStub struct {
	entries []Entry
	nextId  uint64
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{}
}

func (s *RepositoryStub) Record(_ context.Context, entry Entry) (Entry, error) {
	s.nextId++
	entry.Id = s.nextId
	s.entries = append(s.entries, entry)
	return entry, nil
}

func (s *RepositoryStub) ListForPlan(_ context.Context, planId uint64) ([]Entry, error) {
	entries := make([]Entry, 0)
	for _, entry := range s.entries {
		if entry.PlanId == planId {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (s *RepositoryStub) Cleanup() {
	s.entries = nil
	s.nextId = 0
}
