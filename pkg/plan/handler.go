package plan

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ajohq/ajo/pkg/caller"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type PlanDTO struct {
	Id                 uint64   `json:"id"`
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	TotalParticipants  int      `json:"totalParticipants"`
	ContributionAmount int64    `json:"contributionAmount"`
	Frequency          string   `json:"frequency"`
	DurationMonths     int      `json:"durationMonths"`
	TrustScoreRequired int      `json:"trustScoreRequired"`
	AllowPartial       bool     `json:"allowPartial"`
	AdmissionPolicy    string   `json:"admissionPolicy"`
	Participants       []string `json:"participants"`
	CurrentCycle       int      `json:"currentCycle"`
	TotalCycles        int      `json:"totalCycles"`
	PayoutIndex        int      `json:"payoutIndex"`
	Status             string   `json:"status"`
	CreatedBy          string   `json:"createdBy"`
	EscrowBalance      int64    `json:"escrowBalance"`
	CreatedAt          string   `json:"createdAt"`
}

type CreatePlanDTO struct {
	Name               string `json:"name"`
	Description        string `json:"description"`
	TotalParticipants  int    `json:"totalParticipants"`
	ContributionAmount int64  `json:"contributionAmount"`
	Frequency          string `json:"frequency"`
	DurationMonths     int    `json:"durationMonths"`
	TrustScoreRequired int    `json:"trustScoreRequired"`
	AllowPartial       bool   `json:"allowPartial"`
	AdmissionPolicy    string `json:"admissionPolicy"`
}

type UpdatePlanDTO struct {
	Name               *string `json:"name"`
	Description        *string `json:"description"`
	TotalParticipants  *int    `json:"totalParticipants"`
	ContributionAmount *int64  `json:"contributionAmount"`
	Frequency          *string `json:"frequency"`
	DurationMonths     *int    `json:"durationMonths"`
	TrustScoreRequired *int    `json:"trustScoreRequired"`
	AllowPartial       *bool   `json:"allowPartial"`
}

type WithdrawalDTO struct {
	Recipient string `json:"recipient"`
	Amount    int64  `json:"amount"`
	Denom     string `json:"denom"`
}

type Handler struct {
	service Service
}

func NewPlanHandler(service Service) *Handler {
	return &Handler{service}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrUnauthorized), errors.Is(err, caller.ErrNoCaller):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrPlanNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrPlanActive), errors.Is(err, ErrPlanNotActive),
		errors.Is(err, ErrPlanCancelled), errors.Is(err, ErrNotParticipant):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func planIdFromRequest(r *http.Request) (uint64, error) {
	return strconv.ParseUint(mux.Vars(r)["planId"], 10, 64)
}

// CreatePlan handles POST /api/plan.
func (handler *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	log.Debug("Creating new plan")
	w.Header().Set("Content-Type", "application/json")
	var createDTO CreatePlanDTO
	if err := json.NewDecoder(r.Body).Decode(&createDTO); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := handler.service.CreatePlan(r.Context(), CreateInput{
		Name:               createDTO.Name,
		Description:        createDTO.Description,
		TotalParticipants:  createDTO.TotalParticipants,
		ContributionAmount: createDTO.ContributionAmount,
		Frequency:          createDTO.Frequency,
		DurationMonths:     createDTO.DurationMonths,
		TrustScoreRequired: createDTO.TrustScoreRequired,
		AllowPartial:       createDTO.AllowPartial,
		AdmissionPolicy:    createDTO.AdmissionPolicy,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(PlanToDTO(created)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// ListPlans handles GET /api/plan, optionally filtered by ?creator=address.
func (handler *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	log.Debug("Listing plans")
	w.Header().Set("Content-Type", "application/json")

	var plans []Plan
	var err error
	if creator := r.URL.Query().Get("creator"); creator != "" {
		plans, err = handler.service.ListPlansByCreator(r.Context(), creator)
	} else {
		plans, err = handler.service.ListPlans(r.Context())
	}
	if err != nil {
		writeError(w, err)
		return
	}

	plansDTO := make([]PlanDTO, 0, len(plans))
	for _, p := range plans {
		plansDTO = append(plansDTO, PlanToDTO(p))
	}
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(plansDTO); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// CountPlans handles GET /api/plan/count.
func (handler *Handler) CountPlans(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	count, err := handler.service.CountPlans(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(struct {
		Count uint64 `json:"count"`
	}{count}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// GetPlan handles GET /api/plan/{planId}.
func (handler *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	planId, err := planIdFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := handler.service.GetPlan(r.Context(), planId)
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(PlanToDTO(p)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// UpdatePlan handles PATCH /api/plan/{planId}. Absent fields are unchanged.
func (handler *Handler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	log.Debug("Updating plan")
	w.Header().Set("Content-Type", "application/json")
	planId, err := planIdFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var updateDTO UpdatePlanDTO
	if err := json.NewDecoder(r.Body).Decode(&updateDTO); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := handler.service.UpdatePlan(r.Context(), planId, Update{
		Name:               updateDTO.Name,
		Description:        updateDTO.Description,
		TotalParticipants:  updateDTO.TotalParticipants,
		ContributionAmount: updateDTO.ContributionAmount,
		Frequency:          updateDTO.Frequency,
		DurationMonths:     updateDTO.DurationMonths,
		TrustScoreRequired: updateDTO.TrustScoreRequired,
		AllowPartial:       updateDTO.AllowPartial,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(PlanToDTO(updated)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

// CancelPlan handles DELETE /api/plan/{planId}.
func (handler *Handler) CancelPlan(w http.ResponseWriter, r *http.Request) {
	log.Debug("Cancelling plan")
	w.Header().Set("Content-Type", "application/json")
	planId, err := planIdFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := handler.service.CancelPlan(r.Context(), planId); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EmergencyWithdraw handles POST /api/plan/{planId}/withdraw.
func (handler *Handler) EmergencyWithdraw(w http.ResponseWriter, r *http.Request) {
	log.Debug("Emergency withdraw")
	w.Header().Set("Content-Type", "application/json")
	planId, err := planIdFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	instruction, err := handler.service.EmergencyWithdraw(r.Context(), planId)
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(WithdrawalDTO{
		Recipient: instruction.Recipient,
		Amount:    instruction.Amount,
		Denom:     instruction.Denom,
	}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func PlanToDTO(p Plan) PlanDTO {
	return PlanDTO{
		Id:                 p.Id,
		Name:               p.Name,
		Description:        p.Description,
		TotalParticipants:  p.TotalParticipants,
		ContributionAmount: p.ContributionAmount,
		Frequency:          string(p.Frequency),
		DurationMonths:     p.DurationMonths,
		TrustScoreRequired: p.TrustScoreRequired,
		AllowPartial:       p.AllowPartial,
		AdmissionPolicy:    string(p.AdmissionPolicy),
		Participants:       p.Participants,
		CurrentCycle:       p.CurrentCycle,
		TotalCycles:        p.TotalCycles(),
		PayoutIndex:        p.PayoutIndex,
		Status:             string(p.Status()),
		CreatedBy:          p.CreatedBy,
		EscrowBalance:      p.EscrowBalance,
		CreatedAt:          p.CreatedAt.Format(time.RFC3339),
	}
}
