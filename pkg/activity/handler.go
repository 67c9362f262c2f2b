package activity

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type EntryDTO struct {
	Id         uint64 `json:"id"`
	PlanId     uint64 `json:"planId"`
	EventType  string `json:"eventType"`
	Actor      string `json:"actor,omitempty"`
	Detail     string `json:"detail"`
	OccurredAt string `json:"occurredAt"`
}

type Handler struct {
	service Service
}

func NewActivityHandler(service Service) *Handler {
	return &Handler{service}
}

// ListForPlan handles GET /api/plan/{planId}/activity.
func (handler *Handler) ListForPlan(w http.ResponseWriter, r *http.Request) {
	log.Debug("Listing plan activity")
	w.Header().Set("Content-Type", "application/json")
	planId, err := strconv.ParseUint(mux.Vars(r)["planId"], 10, 64)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entries, err := handler.service.ListForPlan(r.Context(), planId)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	dtos := make([]EntryDTO, 0, len(entries))
	for _, entry := range entries {
		dtos = append(dtos, EntryToDTO(entry))
	}
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(dtos); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func EntryToDTO(entry Entry) EntryDTO {
	return EntryDTO{
		Id:         entry.Id,
		PlanId:     entry.PlanId,
		EventType:  entry.EventType,
		Actor:      entry.Actor,
		Detail:     entry.Detail,
		OccurredAt: entry.OccurredAt.Format(time.RFC3339),
	}
}
