package activity

import "time"

// Entry is one row in a plan's activity feed. Entries are written by the
// event recorder as domain events are published, in the order they happened.
type Entry struct {
	Id         uint64
	PlanId     uint64
	EventType  string
	Actor      string
	Detail     string
	OccurredAt time.Time
}
