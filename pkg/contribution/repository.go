package contribution

import (
	"context"
	"errors"
	"fmt"

	"github.com/ajohq/ajo/internal/utils"
	"github.com/ajohq/ajo/pkg/plan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	// Add credits amount to the participant's entry for the cycle and to the
	// plan's escrow balance, returning the new cumulative amount.
	Add(ctx context.Context, planId uint64, cycle int, participant string, amount int64) (int64, error)
	Get(ctx context.Context, planId uint64, cycle int, participant string) (int64, error)
	SumForCycle(ctx context.Context, planId uint64, cycle int) (int64, error)
}

type RepositoryImpl struct {
	db    *pgxpool.Pool
	clock utils.Clock
}

func NewRepository(db *pgxpool.Pool, clock utils.Clock) *RepositoryImpl {
	return &RepositoryImpl{db: db, clock: clock}
}

func (r RepositoryImpl) Add(ctx context.Context, planId uint64, cycle int, participant string, amount int64) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var total int64
	err = tx.QueryRow(ctx,
		`INSERT INTO contributions (plan_id, cycle, participant, amount, updated_at)
             VALUES ($1, $2, $3, $4, $5)
             ON CONFLICT (plan_id, cycle, participant)
             DO UPDATE SET amount = contributions.amount + EXCLUDED.amount, updated_at = EXCLUDED.updated_at
             RETURNING amount`,
		planId, cycle, participant, amount, r.clock.Now(),
	).Scan(&total)
	if err != nil {
		err := fmt.Errorf("could not upsert contribution: %w", err)
		log.Error(err)
		return 0, err
	}

	result, err := tx.Exec(ctx,
		`UPDATE plans SET escrow_balance = escrow_balance + $1 WHERE id = $2`, amount, planId)
	if err != nil {
		err := fmt.Errorf("could not credit escrow: %w", err)
		log.Error(err)
		return 0, err
	}
	if result.RowsAffected() == 0 {
		return 0, plan.ErrPlanNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("could not commit transaction: %w", err)
	}
	return total, nil
}

func (r RepositoryImpl) Get(ctx context.Context, planId uint64, cycle int, participant string) (int64, error) {
	var amount int64
	err := r.db.QueryRow(ctx,
		`SELECT amount FROM contributions WHERE plan_id = $1 AND cycle = $2 AND participant = $3`,
		planId, cycle, participant).Scan(&amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		err := fmt.Errorf("could not query contribution: %w", err)
		log.Error(err)
		return 0, err
	}
	return amount, nil
}

func (r RepositoryImpl) SumForCycle(ctx context.Context, planId uint64, cycle int) (int64, error) {
	var sum int64
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM contributions WHERE plan_id = $1 AND cycle = $2`,
		planId, cycle).Scan(&sum)
	if err != nil {
		err := fmt.Errorf("could not sum contributions: %w", err)
		log.Error(err)
		return 0, err
	}
	return sum, nil
}
