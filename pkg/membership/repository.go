package membership

import (
	"context"
	"errors"
	"fmt"

	"github.com/ajohq/ajo/internal/utils"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	CreateRequest(ctx context.Context, planId uint64, requester string) (JoinRequest, error)
	GetRequest(ctx context.Context, planId uint64, requester string) (JoinRequest, error)
	ListRequests(ctx context.Context, planId uint64) ([]JoinRequest, error)
	CastVote(ctx context.Context, planId uint64, requester string, voter string, approve bool) (JoinRequest, error)
	DeleteRequest(ctx context.Context, planId uint64, requester string) error
}

type RepositoryImpl struct {
	db    *pgxpool.Pool
	clock utils.Clock
}

func NewRepository(db *pgxpool.Pool, clock utils.Clock) *RepositoryImpl {
	return &RepositoryImpl{db: db, clock: clock}
}

func (r RepositoryImpl) CreateRequest(ctx context.Context, planId uint64, requester string) (JoinRequest, error) {
	now := r.clock.Now()
	_, err := r.db.Exec(ctx,
		`INSERT INTO join_requests (plan_id, requester, created_at) VALUES ($1, $2, $3)`,
		planId, requester, now,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return JoinRequest{}, ErrAlreadyRequested
		}
		err := fmt.Errorf("could not insert join request: %w", err)
		log.Error(err)
		return JoinRequest{}, err
	}
	return JoinRequest{PlanId: planId, Requester: requester, CreatedAt: now}, nil
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const requestQuery = `SELECT r.plan_id, r.requester, r.created_at,
                 COUNT(v.voter) FILTER (WHERE v.approve) AS approvals,
                 COUNT(v.voter) FILTER (WHERE NOT v.approve) AS denials
             FROM join_requests r
             LEFT JOIN join_request_votes v
                 ON v.plan_id = r.plan_id AND v.requester = r.requester
             WHERE r.plan_id = $1 AND r.requester = $2
             GROUP BY r.plan_id, r.requester, r.created_at`

func getRequest(ctx context.Context, q rowQuerier, planId uint64, requester string) (JoinRequest, error) {
	var request JoinRequest
	err := q.QueryRow(ctx, requestQuery, planId, requester).Scan(
		&request.PlanId, &request.Requester, &request.CreatedAt,
		&request.Approvals, &request.Denials,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JoinRequest{}, ErrRequestNotFound
		}
		err := fmt.Errorf("could not query join request: %w", err)
		log.Error(err)
		return JoinRequest{}, err
	}
	return request, nil
}

func (r RepositoryImpl) GetRequest(ctx context.Context, planId uint64, requester string) (JoinRequest, error) {
	return getRequest(ctx, r.db, planId, requester)
}

func (r RepositoryImpl) ListRequests(ctx context.Context, planId uint64) ([]JoinRequest, error) {
	rows, err := r.db.Query(ctx,
		`SELECT r.plan_id, r.requester, r.created_at,
                COUNT(v.voter) FILTER (WHERE v.approve) AS approvals,
                COUNT(v.voter) FILTER (WHERE NOT v.approve) AS denials
            FROM join_requests r
            LEFT JOIN join_request_votes v
                ON v.plan_id = r.plan_id AND v.requester = r.requester
            WHERE r.plan_id = $1
            GROUP BY r.plan_id, r.requester, r.created_at
            ORDER BY r.created_at`, planId)
	if err != nil {
		err := fmt.Errorf("could not query join requests: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var requests []JoinRequest
	for rows.Next() {
		var request JoinRequest
		if err := rows.Scan(&request.PlanId, &request.Requester, &request.CreatedAt,
			&request.Approvals, &request.Denials); err != nil {
			err := fmt.Errorf("error scanning row: %w", err)
			log.Error(err)
			return nil, err
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}

// CastVote records the voter's decision and returns the resulting tally. A
// voter's second vote on the same request is ignored, whichever way it goes.
func (r RepositoryImpl) CastVote(ctx context.Context, planId uint64, requester string, voter string, approve bool) (JoinRequest, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return JoinRequest{}, err
	}
	defer tx.Rollback(ctx)

	var lockedPlanId uint64
	err = tx.QueryRow(ctx,
		`SELECT plan_id FROM join_requests WHERE plan_id = $1 AND requester = $2 FOR UPDATE`,
		planId, requester).Scan(&lockedPlanId)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JoinRequest{}, ErrRequestNotFound
		}
		err := fmt.Errorf("could not query join request: %w", err)
		log.Error(err)
		return JoinRequest{}, err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO join_request_votes (plan_id, requester, voter, approve, voted_at)
             VALUES ($1, $2, $3, $4, $5)
             ON CONFLICT (plan_id, requester, voter) DO NOTHING`,
		planId, requester, voter, approve, r.clock.Now(),
	)
	if err != nil {
		err := fmt.Errorf("could not insert vote: %w", err)
		log.Error(err)
		return JoinRequest{}, err
	}

	request, err := getRequest(ctx, tx, planId, requester)
	if err != nil {
		return JoinRequest{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return JoinRequest{}, fmt.Errorf("could not commit transaction: %w", err)
	}
	return request, nil
}

func (r RepositoryImpl) DeleteRequest(ctx context.Context, planId uint64, requester string) error {
	result, err := r.db.Exec(ctx,
		`DELETE FROM join_requests WHERE plan_id = $1 AND requester = $2`, planId, requester)
	if err != nil {
		err := fmt.Errorf("could not delete join request: %w", err)
		log.Error(err)
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrRequestNotFound
	}
	return nil
}
