package payout

import (
	"context"
	"fmt"

	"github.com/ajohq/ajo/pkg/plan"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	// CommitDistribution applies a payout round in one transaction: the
	// cycle's ledger is cleared, the rotation state advances, and the payout
	// leaves escrow.
	CommitDistribution(ctx context.Context, distribution Distribution) error
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r RepositoryImpl) CommitDistribution(ctx context.Context, d Distribution) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM contributions WHERE plan_id = $1 AND cycle = $2`, d.PlanId, d.Cycle); err != nil {
		err := fmt.Errorf("could not reset cycle ledger: %w", err)
		log.Error(err)
		return err
	}

	result, err := tx.Exec(ctx,
		`UPDATE plans SET
                 current_cycle = $1,
                 payout_index = $2,
                 is_active = $3,
                 escrow_balance = escrow_balance - $4
             WHERE id = $5`,
		d.NextCycle, d.NextPayoutIndex, !d.Completed, d.Amount, d.PlanId)
	if err != nil {
		err := fmt.Errorf("could not advance rotation: %w", err)
		log.Error(err)
		return err
	}
	if result.RowsAffected() == 0 {
		return plan.ErrPlanNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}
