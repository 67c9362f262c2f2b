package app

import (
	"github.com/ajohq/ajo/internal/config"
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Plan registry
	r.HandleFunc("/api/plan", deps.PlanHandler.ListPlans).Methods("GET")
	r.HandleFunc("/api/plan", deps.PlanHandler.CreatePlan).Methods("POST")
	r.HandleFunc("/api/plan/count", deps.PlanHandler.CountPlans).Methods("GET")
	r.HandleFunc("/api/plan/{planId}", deps.PlanHandler.GetPlan).Methods("GET")
	r.HandleFunc("/api/plan/{planId}", deps.PlanHandler.UpdatePlan).Methods("PATCH")
	r.HandleFunc("/api/plan/{planId}", deps.PlanHandler.CancelPlan).Methods("DELETE")
	r.HandleFunc("/api/plan/{planId}/withdraw", deps.PlanHandler.EmergencyWithdraw).Methods("POST")

	// Membership
	r.HandleFunc("/api/plan/{planId}/join", deps.MembershipHandler.JoinPlan).Methods("POST")
	r.HandleFunc("/api/plan/{planId}/join-request", deps.MembershipHandler.RequestToJoin).Methods("POST")
	r.HandleFunc("/api/plan/{planId}/join-request", deps.MembershipHandler.ListRequests).Methods("GET")
	r.HandleFunc("/api/plan/{planId}/join-request/{requester}/approval", deps.MembershipHandler.ApproveRequest).Methods("POST")
	r.HandleFunc("/api/plan/{planId}/join-request/{requester}/denial", deps.MembershipHandler.DenyRequest).Methods("POST")

	// Contributions
	r.HandleFunc("/api/plan/{planId}/contribution", deps.ContributionHandler.Contribute).Methods("POST")
	r.HandleFunc("/api/plan/{planId}/participant/{address}", deps.ContributionHandler.ParticipantCycleStatus).Methods("GET")

	// Payouts
	r.HandleFunc("/api/plan/{planId}/payout", deps.PayoutHandler.Distribute).Methods("POST")

	// Activity feed
	r.HandleFunc("/api/plan/{planId}/activity", deps.ActivityHandler.ListForPlan).Methods("GET")
}
