package plan

import (
	"context"
	"errors"
	"fmt"

	"github.com/ajohq/ajo/internal/utils"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	Create(ctx context.Context, plan Plan) (Plan, error)
	Get(ctx context.Context, planId uint64) (Plan, error)
	List(ctx context.Context) ([]Plan, error)
	ListByCreator(ctx context.Context, creator string) ([]Plan, error)
	Count(ctx context.Context) (uint64, error)
	Update(ctx context.Context, plan Plan) error
	AddParticipant(ctx context.Context, planId uint64, address string) (Plan, error)
	WithdrawEscrow(ctx context.Context, planId uint64) (int64, error)
}

type RepositoryImpl struct {
	db    *pgxpool.Pool
	clock utils.Clock
}

func NewRepository(db *pgxpool.Pool, clock utils.Clock) *RepositoryImpl {
	return &RepositoryImpl{db: db, clock: clock}
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so plan loading can
// run inside or outside a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r RepositoryImpl) Create(ctx context.Context, plan Plan) (Plan, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Plan{}, err
	}
	defer tx.Rollback(ctx)

	now := r.clock.Now()
	query := `INSERT INTO plans (
                    name,
                    description,
                    total_participants,
                    contribution_amount,
                    frequency,
                    duration_months,
                    trust_score_required,
                    allow_partial,
                    admission_policy,
                    created_by,
                    created_at
                ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`

	var planId uint64
	err = tx.QueryRow(ctx, query,
		plan.Name,
		plan.Description,
		plan.TotalParticipants,
		plan.ContributionAmount,
		string(plan.Frequency),
		plan.DurationMonths,
		plan.TrustScoreRequired,
		plan.AllowPartial,
		string(plan.AdmissionPolicy),
		plan.CreatedBy,
		now,
	).Scan(&planId)
	if err != nil {
		err := fmt.Errorf("could not insert plan: %w", err)
		log.Error(err)
		return Plan{}, err
	}

	// The creator occupies rotation slot 0.
	_, err = tx.Exec(ctx,
		`INSERT INTO plan_participants (plan_id, position, address, joined_at) VALUES ($1, 0, $2, $3)`,
		planId, plan.CreatedBy, now,
	)
	if err != nil {
		err := fmt.Errorf("could not insert creator participant: %w", err)
		log.Error(err)
		return Plan{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Plan{}, fmt.Errorf("could not commit transaction: %w", err)
	}

	plan.Id = planId
	plan.Participants = []string{plan.CreatedBy}
	plan.CreatedAt = now
	return plan, nil
}

const planColumns = `id, name, description, total_participants, contribution_amount, frequency,
              duration_months, trust_score_required, allow_partial, admission_policy,
              current_cycle, payout_index, is_active, is_cancelled, created_by, escrow_balance, created_at`

func scanPlan(row pgx.Row) (Plan, error) {
	var p Plan
	var frequency, policy string
	err := row.Scan(
		&p.Id,
		&p.Name,
		&p.Description,
		&p.TotalParticipants,
		&p.ContributionAmount,
		&frequency,
		&p.DurationMonths,
		&p.TrustScoreRequired,
		&p.AllowPartial,
		&policy,
		&p.CurrentCycle,
		&p.PayoutIndex,
		&p.IsActive,
		&p.IsCancelled,
		&p.CreatedBy,
		&p.EscrowBalance,
		&p.CreatedAt,
	)
	if err != nil {
		return Plan{}, err
	}
	p.Frequency = Frequency(frequency)
	p.AdmissionPolicy = AdmissionPolicy(policy)
	return p, nil
}

func loadParticipants(ctx context.Context, q querier, planId uint64) ([]string, error) {
	rows, err := q.Query(ctx,
		`SELECT address FROM plan_participants WHERE plan_id = $1 ORDER BY position`, planId)
	if err != nil {
		return nil, fmt.Errorf("could not query participants: %w", err)
	}
	defer rows.Close()

	var participants []string
	for rows.Next() {
		var address string
		if err := rows.Scan(&address); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		participants = append(participants, address)
	}
	return participants, rows.Err()
}

func getPlan(ctx context.Context, q querier, planId uint64, forUpdate bool) (Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	p, err := scanPlan(q.QueryRow(ctx, query, planId))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Plan{}, ErrPlanNotFound
		}
		err := fmt.Errorf("could not query plan: %w", err)
		log.Error(err)
		return Plan{}, err
	}

	p.Participants, err = loadParticipants(ctx, q, planId)
	if err != nil {
		log.Error(err)
		return Plan{}, err
	}
	return p, nil
}

func (r RepositoryImpl) Get(ctx context.Context, planId uint64) (Plan, error) {
	return getPlan(ctx, r.db, planId, false)
}

func (r RepositoryImpl) list(ctx context.Context, query string, args ...any) ([]Plan, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		err := fmt.Errorf("could not query plans: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var plans []Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			err := fmt.Errorf("error scanning row: %w", err)
			log.Error(err)
			return nil, err
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}

	for i := range plans {
		plans[i].Participants, err = loadParticipants(ctx, r.db, plans[i].Id)
		if err != nil {
			log.Error(err)
			return nil, err
		}
	}
	return plans, nil
}

func (r RepositoryImpl) List(ctx context.Context) ([]Plan, error) {
	return r.list(ctx, `SELECT `+planColumns+` FROM plans ORDER BY created_at DESC, id DESC`)
}

func (r RepositoryImpl) ListByCreator(ctx context.Context, creator string) ([]Plan, error) {
	return r.list(ctx,
		`SELECT `+planColumns+` FROM plans WHERE created_by = $1 ORDER BY id`, creator)
}

func (r RepositoryImpl) Count(ctx context.Context) (uint64, error) {
	var count uint64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM plans`).Scan(&count)
	if err != nil {
		err := fmt.Errorf("could not count plans: %w", err)
		log.Error(err)
		return 0, err
	}
	return count, nil
}

func (r RepositoryImpl) Update(ctx context.Context, plan Plan) error {
	query := `UPDATE plans SET
                  name = $1,
                  description = $2,
                  total_participants = $3,
                  contribution_amount = $4,
                  frequency = $5,
                  duration_months = $6,
                  trust_score_required = $7,
                  allow_partial = $8,
                  current_cycle = $9,
                  payout_index = $10,
                  is_active = $11,
                  is_cancelled = $12,
                  escrow_balance = $13
              WHERE id = $14`
	result, err := r.db.Exec(ctx, query,
		plan.Name,
		plan.Description,
		plan.TotalParticipants,
		plan.ContributionAmount,
		string(plan.Frequency),
		plan.DurationMonths,
		plan.TrustScoreRequired,
		plan.AllowPartial,
		plan.CurrentCycle,
		plan.PayoutIndex,
		plan.IsActive,
		plan.IsCancelled,
		plan.EscrowBalance,
		plan.Id,
	)
	if err != nil {
		err := fmt.Errorf("could not update plan: %w", err)
		log.Error(err)
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}

// AddParticipant appends the address to the plan's rotation and activates the
// plan when the group reaches capacity. Append and activation happen in one
// transaction so the activation trigger cannot be observed half-applied.
func (r RepositoryImpl) AddParticipant(ctx context.Context, planId uint64, address string) (Plan, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Plan{}, err
	}
	defer tx.Rollback(ctx)

	p, err := getPlan(ctx, tx, planId, true)
	if err != nil {
		return Plan{}, err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO plan_participants (plan_id, position, address, joined_at) VALUES ($1, $2, $3, $4)`,
		planId, len(p.Participants), address, r.clock.Now(),
	)
	if err != nil {
		err := fmt.Errorf("could not insert participant: %w", err)
		log.Error(err)
		return Plan{}, err
	}
	p.Participants = append(p.Participants, address)

	if len(p.Participants) == p.TotalParticipants {
		p.IsActive = true
		if _, err := tx.Exec(ctx, `UPDATE plans SET is_active = TRUE WHERE id = $1`, planId); err != nil {
			err := fmt.Errorf("could not activate plan: %w", err)
			log.Error(err)
			return Plan{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Plan{}, fmt.Errorf("could not commit transaction: %w", err)
	}
	return p, nil
}

// WithdrawEscrow zeroes the plan's escrow balance and returns the amount that
// was held. Scoping the withdrawal to the plan's own balance keeps multi-plan
// deployments from draining funds escrowed for other plans.
func (r RepositoryImpl) WithdrawEscrow(ctx context.Context, planId uint64) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var amount int64
	err = tx.QueryRow(ctx,
		`SELECT escrow_balance FROM plans WHERE id = $1 FOR UPDATE`, planId).Scan(&amount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrPlanNotFound
		}
		err := fmt.Errorf("could not read escrow balance: %w", err)
		log.Error(err)
		return 0, err
	}

	if _, err := tx.Exec(ctx, `UPDATE plans SET escrow_balance = 0 WHERE id = $1`, planId); err != nil {
		err := fmt.Errorf("could not zero escrow balance: %w", err)
		log.Error(err)
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("could not commit transaction: %w", err)
	}
	return amount, nil
}
