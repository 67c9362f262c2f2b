package membership

import (
	"context"
	"sort"
	"time"
)

type requestKey struct {
	planId    uint64
	requester string
}

type storedRequest struct {
	createdAt time.Time
	votes     map[string]bool
}

// RepositoryStub is an in-memory Repository for service tests.
type RepositoryStub struct {
	requests map[requestKey]*storedRequest
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{requests: map[requestKey]*storedRequest{}}
}

func (s *RepositoryStub) CreateRequest(_ context.Context, planId uint64, requester string) (JoinRequest, error) {
	key := requestKey{planId, requester}
	if _, exists := s.requests[key]; exists {
		return JoinRequest{}, ErrAlreadyRequested
	}
	now := time.Now()
	s.requests[key] = &storedRequest{createdAt: now, votes: map[string]bool{}}
	return JoinRequest{PlanId: planId, Requester: requester, CreatedAt: now}, nil
}

func (s *RepositoryStub) toRequest(key requestKey, stored *storedRequest) JoinRequest {
	request := JoinRequest{
		PlanId:    key.planId,
		Requester: key.requester,
		CreatedAt: stored.createdAt,
	}
	for _, approve := range stored.votes {
		if approve {
			request.Approvals++
		} else {
			request.Denials++
		}
	}
	return request
}

func (s *RepositoryStub) GetRequest(_ context.Context, planId uint64, requester string) (JoinRequest, error) {
	key := requestKey{planId, requester}
	stored, exists := s.requests[key]
	if !exists {
		return JoinRequest{}, ErrRequestNotFound
	}
	return s.toRequest(key, stored), nil
}

func (s *RepositoryStub) ListRequests(_ context.Context, planId uint64) ([]JoinRequest, error) {
	var requests []JoinRequest
	for key, stored := range s.requests {
		if key.planId == planId {
			requests = append(requests, s.toRequest(key, stored))
		}
	}
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].CreatedAt.Before(requests[j].CreatedAt)
	})
	return requests, nil
}

func (s *RepositoryStub) CastVote(_ context.Context, planId uint64, requester string, voter string, approve bool) (JoinRequest, error) {
	key := requestKey{planId, requester}
	stored, exists := s.requests[key]
	if !exists {
		return JoinRequest{}, ErrRequestNotFound
	}
	if _, voted := stored.votes[voter]; !voted {
		stored.votes[voter] = approve
	}
	return s.toRequest(key, stored), nil
}

func (s *RepositoryStub) DeleteRequest(_ context.Context, planId uint64, requester string) error {
	key := requestKey{planId, requester}
	if _, exists := s.requests[key]; !exists {
		return ErrRequestNotFound
	}
	delete(s.requests, key)
	return nil
}

func (s *RepositoryStub) Cleanup() {
	s.requests = map[requestKey]*storedRequest{}
}
