package payout

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ajohq/ajo/pkg/caller"
	"github.com/ajohq/ajo/pkg/plan"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type DistributionDTO struct {
	PlanId          uint64 `json:"planId"`
	Cycle           int    `json:"cycle"`
	Recipient       string `json:"recipient"`
	Amount          int64  `json:"amount"`
	NextCycle       int    `json:"nextCycle"`
	NextPayoutIndex int    `json:"nextPayoutIndex"`
	Completed       bool   `json:"completed"`
	InstructionId   string `json:"instructionId"`
}

type Handler struct {
	service Service
}

func NewPayoutHandler(service Service) *Handler {
	return &Handler{service}
}

// Distribute handles POST /api/plan/{planId}/payout.
func (handler *Handler) Distribute(w http.ResponseWriter, r *http.Request) {
	log.Debug("Distributing payout")
	w.Header().Set("Content-Type", "application/json")
	planId, err := strconv.ParseUint(mux.Vars(r)["planId"], 10, 64)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := handler.service.Distribute(r.Context(), planId)
	if err != nil {
		switch {
		case errors.Is(err, plan.ErrUnauthorized), errors.Is(err, caller.ErrNoCaller):
			http.Error(w, err.Error(), http.StatusForbidden)
		case errors.Is(err, plan.ErrPlanNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, plan.ErrPlanNotActive), errors.Is(err, plan.ErrPlanCancelled),
			errors.Is(err, ErrInsufficientContributions):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(DistributionDTO{
		PlanId:          result.Distribution.PlanId,
		Cycle:           result.Distribution.Cycle,
		Recipient:       result.Distribution.Recipient,
		Amount:          result.Distribution.Amount,
		NextCycle:       result.Distribution.NextCycle,
		NextPayoutIndex: result.Distribution.NextPayoutIndex,
		Completed:       result.Distribution.Completed,
		InstructionId:   result.Instruction.Id,
	}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}
