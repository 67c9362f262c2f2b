package app

import (
	"github.com/ajohq/ajo/internal/config"
	"github.com/ajohq/ajo/internal/event_bus"
	"github.com/ajohq/ajo/internal/utils"
	"github.com/ajohq/ajo/pkg/activity"
	"github.com/ajohq/ajo/pkg/caller"
	"github.com/ajohq/ajo/pkg/contribution"
	"github.com/ajohq/ajo/pkg/membership"
	"github.com/ajohq/ajo/pkg/payout"
	"github.com/ajohq/ajo/pkg/plan"
	"github.com/ajohq/ajo/pkg/settlement"
	"github.com/ajohq/ajo/pkg/trust"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	EventBus         *event_bus.EventBus
	Clock            utils.Clock
	Transfers        settlement.Transfers
	TrustScorer      trust.Scorer
	AddressValidator caller.Validator

	PlanRepo    plan.Repository
	PlanService plan.Service
	PlanHandler *plan.Handler

	MembershipRepo    membership.Repository
	MembershipService membership.Service
	MembershipHandler *membership.Handler

	ContributionRepo    contribution.Repository
	ContributionService contribution.Service
	ContributionHandler *contribution.Handler

	PayoutRepo    payout.Repository
	PayoutService payout.Service
	PayoutHandler *payout.Handler

	ActivityRepo    activity.Repository
	ActivityService activity.Service
	ActivityHandler *activity.Handler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.EventBus = event_bus.NewEventBus()
	deps.Clock = &utils.SystemClock{}
	deps.Transfers = settlement.LogTransfers{}
	deps.TrustScorer = trust.NewStaticScorer()
	deps.AddressValidator = caller.AddressValidator{}

	// The activity recorder subscribes during construction, so it is wired
	// before any service that publishes events.
	deps.ActivityRepo = activity.NewRepository(db)
	deps.ActivityService = activity.NewService(deps.ActivityRepo, deps.EventBus)
	deps.ActivityHandler = activity.NewActivityHandler(deps.ActivityService)

	deps.PlanRepo = plan.NewRepository(db, deps.Clock)
	deps.PlanService = plan.NewService(deps.PlanRepo, deps.EventBus, deps.Transfers, cfg)
	deps.PlanHandler = plan.NewPlanHandler(deps.PlanService)

	deps.MembershipRepo = membership.NewRepository(db, deps.Clock)
	deps.MembershipService = membership.NewService(deps.MembershipRepo, deps.PlanRepo, deps.TrustScorer, deps.EventBus)
	deps.MembershipHandler = membership.NewMembershipHandler(deps.MembershipService)

	deps.ContributionRepo = contribution.NewRepository(db, deps.Clock)
	deps.ContributionService = contribution.NewService(deps.ContributionRepo, deps.PlanRepo, cfg)
	deps.ContributionHandler = contribution.NewContributionHandler(deps.ContributionService, deps.PlanRepo)

	deps.PayoutRepo = payout.NewRepository(db)
	deps.PayoutService = payout.NewService(deps.PayoutRepo, deps.PlanRepo, deps.ContributionRepo,
		deps.Transfers, deps.EventBus, cfg)
	deps.PayoutHandler = payout.NewPayoutHandler(deps.PayoutService)

	return deps
}
