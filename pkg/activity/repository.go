package activity

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Record(ctx context.Context, entry Entry) (Entry, error)
	ListForPlan(ctx context.Context, planId uint64) ([]Entry, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) Record(ctx context.Context, entry Entry) (Entry, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO plan_activity (plan_id, event_type, actor, detail, occurred_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		entry.PlanId, entry.EventType, entry.Actor, entry.Detail, entry.OccurredAt)
	if err := row.Scan(&entry.Id); err != nil {
		return Entry{}, fmt.Errorf("failed to record activity entry: %w", err)
	}
	return entry, nil
}

func (r *RepositoryImpl) ListForPlan(ctx context.Context, planId uint64) ([]Entry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, plan_id, event_type, actor, detail, occurred_at
		 FROM plan_activity
		 WHERE plan_id = $1
		 ORDER BY id`, planId)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity entries: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.Id, &entry.PlanId, &entry.EventType,
			&entry.Actor, &entry.Detail, &entry.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
