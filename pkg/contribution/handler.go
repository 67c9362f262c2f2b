package contribution

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ajohq/ajo/pkg/caller"
	"github.com/ajohq/ajo/pkg/plan"
	"github.com/ajohq/ajo/pkg/settlement"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type ContributeDTO struct {
	// Cycle is optional and defaults to the plan's current cycle.
	Cycle  *int  `json:"cycle"`
	Amount int64 `json:"amount"`
	Funds  struct {
		Denom  string `json:"denom"`
		Amount int64  `json:"amount"`
	} `json:"funds"`
}

type CycleStatusDTO struct {
	PlanId           uint64 `json:"planId"`
	Cycle            int    `json:"cycle"`
	Participant      string `json:"participant"`
	Required         int64  `json:"required"`
	Contributed      int64  `json:"contributed"`
	Remaining        int64  `json:"remaining"`
	FullyContributed bool   `json:"fullyContributed"`
	ReceivedPayout   bool   `json:"receivedPayout"`
}

type Handler struct {
	service  Service
	planRepo plan.Repository
}

func NewContributionHandler(service Service, planRepo plan.Repository) *Handler {
	return &Handler{service, planRepo}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, plan.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, caller.ErrNoCaller):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, plan.ErrPlanNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, plan.ErrPlanNotActive), errors.Is(err, plan.ErrPlanCancelled),
		errors.Is(err, plan.ErrNotParticipant), errors.Is(err, ErrAlreadyContributed):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Contribute handles POST /api/plan/{planId}/contribution.
func (handler *Handler) Contribute(w http.ResponseWriter, r *http.Request) {
	log.Debug("Recording contribution")
	w.Header().Set("Content-Type", "application/json")
	planId, err := strconv.ParseUint(mux.Vars(r)["planId"], 10, 64)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var contributeDTO ContributeDTO
	if err := json.NewDecoder(r.Body).Decode(&contributeDTO); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cycle := -1
	if contributeDTO.Cycle != nil {
		cycle = *contributeDTO.Cycle
	} else {
		p, err := handler.planRepo.Get(r.Context(), planId)
		if err != nil {
			writeError(w, err)
			return
		}
		cycle = p.CurrentCycle
	}

	status, err := handler.service.Contribute(r.Context(), planId, cycle, contributeDTO.Amount,
		settlement.Funds{Denom: contributeDTO.Funds.Denom, Amount: contributeDTO.Funds.Amount})
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(StatusToDTO(status)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// ParticipantCycleStatus handles GET /api/plan/{planId}/participant/{address},
// optionally for a specific ?cycle=.
func (handler *Handler) ParticipantCycleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	planId, err := strconv.ParseUint(mux.Vars(r)["planId"], 10, 64)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	address := mux.Vars(r)["address"]

	cycle := -1
	if cycleParam := r.URL.Query().Get("cycle"); cycleParam != "" {
		cycle, err = strconv.Atoi(cycleParam)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	status, err := handler.service.ParticipantCycleStatus(r.Context(), planId, address, cycle)
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(StatusToDTO(status)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func StatusToDTO(status CycleStatus) CycleStatusDTO {
	return CycleStatusDTO{
		PlanId:           status.PlanId,
		Cycle:            status.Cycle,
		Participant:      status.Participant,
		Required:         status.Required,
		Contributed:      status.Contributed,
		Remaining:        status.Remaining,
		FullyContributed: status.FullyContributed,
		ReceivedPayout:   status.ReceivedPayout,
	}
}
