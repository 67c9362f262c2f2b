package event_bus

const (
	PlanCreated       EventType = "plan.created"
	PlanActivated     EventType = "plan.activated"
	PlanCancelled     EventType = "plan.cancelled"
	PlanCompleted     EventType = "plan.completed"
	MemberJoined      EventType = "member.joined"
	PayoutDistributed EventType = "payout.distributed"
)

type PlanCreatedData struct {
	PlanId    uint64
	CreatedBy string
}

type PlanActivatedData struct {
	PlanId       uint64
	Participants int
}

type PlanCancelledData struct {
	PlanId uint64
}

type PlanCompletedData struct {
	PlanId      uint64
	TotalCycles int
}

type MemberJoinedData struct {
	PlanId  uint64
	Address string
	// Position is the member's fixed slot in the payout rotation.
	Position int
}

type PayoutDistributedData struct {
	PlanId    uint64
	Cycle     int
	Recipient string
	Amount    int64
}
