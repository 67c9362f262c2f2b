package membership

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ajohq/ajo/pkg/caller"
	"github.com/ajohq/ajo/pkg/plan"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type JoinRequestDTO struct {
	PlanId    uint64 `json:"planId"`
	Requester string `json:"requester"`
	Approvals int    `json:"approvals"`
	Denials   int    `json:"denials"`
	CreatedAt string `json:"createdAt"`
}

type VoteResultDTO struct {
	Request  JoinRequestDTO `json:"request"`
	Admitted bool           `json:"admitted"`
	Removed  bool           `json:"removed"`
}

type Handler struct {
	service Service
}

func NewMembershipHandler(service Service) *Handler {
	return &Handler{service}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, plan.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, caller.ErrNoCaller):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, plan.ErrPlanNotFound), errors.Is(err, ErrRequestNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, plan.ErrPlanActive), errors.Is(err, plan.ErrPlanCancelled),
		errors.Is(err, plan.ErrNotParticipant), errors.Is(err, ErrPlanFull),
		errors.Is(err, ErrAlreadyParticipant), errors.Is(err, ErrAlreadyRequested),
		errors.Is(err, ErrInsufficientTrustScore):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func planIdFromRequest(r *http.Request) (uint64, error) {
	return strconv.ParseUint(mux.Vars(r)["planId"], 10, 64)
}

// JoinPlan handles POST /api/plan/{planId}/join.
func (handler *Handler) JoinPlan(w http.ResponseWriter, r *http.Request) {
	log.Debug("Joining plan")
	w.Header().Set("Content-Type", "application/json")
	planId, err := planIdFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := handler.service.JoinPlan(r.Context(), planId)
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(plan.PlanToDTO(p)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// RequestToJoin handles POST /api/plan/{planId}/join-request.
func (handler *Handler) RequestToJoin(w http.ResponseWriter, r *http.Request) {
	log.Debug("Requesting to join plan")
	w.Header().Set("Content-Type", "application/json")
	planId, err := planIdFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	request, err := handler.service.RequestToJoin(r.Context(), planId)
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(RequestToDTO(request)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// ListRequests handles GET /api/plan/{planId}/join-request.
func (handler *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	planId, err := planIdFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	requests, err := handler.service.ListRequests(r.Context(), planId)
	if err != nil {
		writeError(w, err)
		return
	}

	requestsDTO := make([]JoinRequestDTO, 0, len(requests))
	for _, request := range requests {
		requestsDTO = append(requestsDTO, RequestToDTO(request))
	}
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(requestsDTO); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// ApproveRequest handles POST /api/plan/{planId}/join-request/{requester}/approval.
func (handler *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	handler.vote(w, r, handler.service.ApproveRequest)
}

// DenyRequest handles POST /api/plan/{planId}/join-request/{requester}/denial.
func (handler *Handler) DenyRequest(w http.ResponseWriter, r *http.Request) {
	handler.vote(w, r, handler.service.DenyRequest)
}

func (handler *Handler) vote(w http.ResponseWriter, r *http.Request,
	cast func(ctx context.Context, planId uint64, requester string) (VoteResult, error)) {
	log.Debug("Voting on join request")
	w.Header().Set("Content-Type", "application/json")
	planId, err := planIdFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	requester := mux.Vars(r)["requester"]

	result, err := cast(r.Context(), planId, requester)
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(VoteResultDTO{
		Request:  RequestToDTO(result.Request),
		Admitted: result.Admitted,
		Removed:  result.Removed,
	}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func RequestToDTO(request JoinRequest) JoinRequestDTO {
	return JoinRequestDTO{
		PlanId:    request.PlanId,
		Requester: request.Requester,
		Approvals: request.Approvals,
		Denials:   request.Denials,
		CreatedAt: request.CreatedAt.Format(time.RFC3339),
	}
}
