package activity

import (
	"context"
	"fmt"

	"github.com/ajohq/ajo/internal/event_bus"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	ListForPlan(ctx context.Context, planId uint64) ([]Entry, error)
}

type ServiceImpl struct {
	repo Repository
}

// NewService wires the activity recorder into the event bus. Entries are
// written synchronously while the originating operation is still in flight,
// so the feed reflects every lifecycle change as soon as the call returns.
func NewService(repo Repository, eventBus *event_bus.EventBus) Service {
	service := &ServiceImpl{repo}
	event_bus.SubscribeTyped[event_bus.PlanCreatedData](
		eventBus,
		event_bus.PlanCreated,
		func(e event_bus.EventT[event_bus.PlanCreatedData]) error {
			return service.record(e.Context(), Entry{
				PlanId:     e.Data.PlanId,
				EventType:  string(e.Type),
				Actor:      e.Data.CreatedBy,
				Detail:     "plan created",
				OccurredAt: e.Timestamp,
			})
		},
	)
	event_bus.SubscribeTyped[event_bus.MemberJoinedData](
		eventBus,
		event_bus.MemberJoined,
		func(e event_bus.EventT[event_bus.MemberJoinedData]) error {
			return service.record(e.Context(), Entry{
				PlanId:     e.Data.PlanId,
				EventType:  string(e.Type),
				Actor:      e.Data.Address,
				Detail:     fmt.Sprintf("joined rotation slot %d", e.Data.Position),
				OccurredAt: e.Timestamp,
			})
		},
	)
	event_bus.SubscribeTyped[event_bus.PlanActivatedData](
		eventBus,
		event_bus.PlanActivated,
		func(e event_bus.EventT[event_bus.PlanActivatedData]) error {
			return service.record(e.Context(), Entry{
				PlanId:     e.Data.PlanId,
				EventType:  string(e.Type),
				Detail:     fmt.Sprintf("activated with %d participants", e.Data.Participants),
				OccurredAt: e.Timestamp,
			})
		},
	)
	event_bus.SubscribeTyped[event_bus.PlanCancelledData](
		eventBus,
		event_bus.PlanCancelled,
		func(e event_bus.EventT[event_bus.PlanCancelledData]) error {
			return service.record(e.Context(), Entry{
				PlanId:     e.Data.PlanId,
				EventType:  string(e.Type),
				Detail:     "plan cancelled",
				OccurredAt: e.Timestamp,
			})
		},
	)
	event_bus.SubscribeTyped[event_bus.PayoutDistributedData](
		eventBus,
		event_bus.PayoutDistributed,
		func(e event_bus.EventT[event_bus.PayoutDistributedData]) error {
			return service.record(e.Context(), Entry{
				PlanId:     e.Data.PlanId,
				EventType:  string(e.Type),
				Actor:      e.Data.Recipient,
				Detail:     fmt.Sprintf("payout of %d for cycle %d", e.Data.Amount, e.Data.Cycle),
				OccurredAt: e.Timestamp,
			})
		},
	)
	event_bus.SubscribeTyped[event_bus.PlanCompletedData](
		eventBus,
		event_bus.PlanCompleted,
		func(e event_bus.EventT[event_bus.PlanCompletedData]) error {
			return service.record(e.Context(), Entry{
				PlanId:     e.Data.PlanId,
				EventType:  string(e.Type),
				Detail:     fmt.Sprintf("completed after %d cycles", e.Data.TotalCycles),
				OccurredAt: e.Timestamp,
			})
		},
	)
	return service
}

func (s *ServiceImpl) record(ctx context.Context, entry Entry) error {
	if _, err := s.repo.Record(ctx, entry); err != nil {
		log.Errorf("failed to record activity for plan %d: %v", entry.PlanId, err)
		return err
	}
	log.Debugf("recorded %s activity for plan %d", entry.EventType, entry.PlanId)
	return nil
}

func (s *ServiceImpl) ListForPlan(ctx context.Context, planId uint64) ([]Entry, error) {
	return s.repo.ListForPlan(ctx, planId)
}
