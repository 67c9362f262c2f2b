package plan

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ajohq/ajo/internal/config"
	"github.com/ajohq/ajo/internal/event_bus"
	"github.com/ajohq/ajo/pkg/caller"
	"github.com/ajohq/ajo/pkg/settlement"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A middleware that sets the caller address in the context
func withCaller(address string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := caller.WithAddress(r.Context(), address)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func setupHandlerTest(t *testing.T) (*mux.Router, func()) {
	repo := NewRepositoryStub()
	cfg := config.Application{Admin: "xion1admin", Denom: "uxion"}
	handler := NewPlanHandler(NewService(repo, event_bus.NewEventBus(), settlement.NewTransfersStub(), cfg))

	router := mux.NewRouter()
	router.HandleFunc("/api/plan", handler.CreatePlan).Methods("POST")
	router.HandleFunc("/api/plan/count", handler.CountPlans).Methods("GET")
	router.HandleFunc("/api/plan/{planId}", handler.GetPlan).Methods("GET")
	router.HandleFunc("/api/plan/{planId}", handler.UpdatePlan).Methods("PATCH")
	router.HandleFunc("/api/plan/{planId}", handler.CancelPlan).Methods("DELETE")
	return router, func() {
		repo.Cleanup()
	}
}

func createTestPlan(t *testing.T, router *mux.Router, address string) PlanDTO {
	t.Helper()
	body, err := json.Marshal(CreatePlanDTO{
		Name:               "Office Ajo",
		Description:        "Monthly savings circle for the office",
		TotalParticipants:  3,
		ContributionAmount: 100,
		Frequency:          "Monthly",
		DurationMonths:     2,
		AllowPartial:       true,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/plan", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	withCaller(address, router).ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created PlanDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	return created
}

func TestHandler_CreatePlan(t *testing.T) {
	router, teardown := setupHandlerTest(t)
	defer teardown()

	// when
	created := createTestPlan(t, router, "xion1creator")

	// then
	assert.NotZero(t, created.Id)
	assert.Equal(t, "Office Ajo", created.Name)
	assert.Equal(t, []string{"xion1creator"}, created.Participants)
	assert.Equal(t, "open", created.Status)
	assert.Equal(t, 2, created.TotalCycles)
}

func TestHandler_CreatePlan_InvalidInput(t *testing.T) {
	router, teardown := setupHandlerTest(t)
	defer teardown()

	// given a name below the minimum length
	body, err := json.Marshal(CreatePlanDTO{
		Name:               "ab",
		Description:        "Monthly savings circle for the office",
		TotalParticipants:  3,
		ContributionAmount: 100,
		Frequency:          "Monthly",
		DurationMonths:     2,
	})
	require.NoError(t, err)

	// when
	req := httptest.NewRequest(http.MethodPost, "/api/plan", bytes.NewBuffer(body))
	w := httptest.NewRecorder()
	withCaller("xion1creator", router).ServeHTTP(w, req)

	// then
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_CreatePlan_NoCaller(t *testing.T) {
	router, teardown := setupHandlerTest(t)
	defer teardown()

	body, err := json.Marshal(CreatePlanDTO{
		Name:               "Office Ajo",
		Description:        "Monthly savings circle for the office",
		TotalParticipants:  3,
		ContributionAmount: 100,
		Frequency:          "Monthly",
		DurationMonths:     2,
	})
	require.NoError(t, err)

	// when the request carries no caller identity
	req := httptest.NewRequest(http.MethodPost, "/api/plan", bytes.NewBuffer(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// then
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandler_GetPlan_NotFound(t *testing.T) {
	router, teardown := setupHandlerTest(t)
	defer teardown()

	// when
	req := httptest.NewRequest(http.MethodGet, "/api/plan/999", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// then
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_UpdatePlan_NotCreator(t *testing.T) {
	router, teardown := setupHandlerTest(t)
	defer teardown()

	// given
	created := createTestPlan(t, router, "xion1creator")
	body := []byte(`{"name": "Hijacked Circle"}`)

	// when someone else updates it
	req := httptest.NewRequest(http.MethodPatch, "/api/plan/1", bytes.NewBuffer(body))
	w := httptest.NewRecorder()
	withCaller("xion1other", router).ServeHTTP(w, req)

	// then
	assert.Equal(t, http.StatusForbidden, w.Code)

	// and the plan is unchanged
	req = httptest.NewRequest(http.MethodGet, "/api/plan/1", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var stored PlanDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&stored))
	assert.Equal(t, created.Name, stored.Name)
}

func TestHandler_CancelPlan(t *testing.T) {
	router, teardown := setupHandlerTest(t)
	defer teardown()

	// given
	createTestPlan(t, router, "xion1creator")

	// when
	req := httptest.NewRequest(http.MethodDelete, "/api/plan/1", nil)
	w := httptest.NewRecorder()
	withCaller("xion1creator", router).ServeHTTP(w, req)

	// then
	assert.Equal(t, http.StatusNoContent, w.Code)

	// and a second cancel conflicts
	req = httptest.NewRequest(http.MethodDelete, "/api/plan/1", nil)
	w = httptest.NewRecorder()
	withCaller("xion1creator", router).ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandler_CountPlans(t *testing.T) {
	router, teardown := setupHandlerTest(t)
	defer teardown()

	// given
	createTestPlan(t, router, "xion1creator")
	createTestPlan(t, router, "xion1creator")

	// when
	req := httptest.NewRequest(http.MethodGet, "/api/plan/count", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	// then
	require.Equal(t, http.StatusOK, w.Code)
	var response struct {
		Count uint64 `json:"count"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, uint64(2), response.Count)
}
