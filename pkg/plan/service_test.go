package plan

import (
	"context"
	"testing"

	"github.com/ajohq/ajo/internal/config"
	"github.com/ajohq/ajo/internal/event_bus"
	"github.com/ajohq/ajo/pkg/caller"
	"github.com/ajohq/ajo/pkg/settlement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = caller.WithAddress(context.Background(), "xion1creator")

var planRepoStub = NewRepositoryStub()
var transfersStub = settlement.NewTransfersStub()

var service Service

func setup(t *testing.T) func() {
	cfg := config.Application{Admin: "xion1admin", Denom: "uxion"}
	service = NewService(planRepoStub, event_bus.NewEventBus(), transfersStub, cfg)
	return func() {
		t.Log("Teardown after test")
		planRepoStub.Cleanup()
		transfersStub.Cleanup()
	}
}

func validInput() CreateInput {
	return CreateInput{
		Name:               "Office Ajo",
		Description:        "Monthly savings circle for the office",
		TotalParticipants:  3,
		ContributionAmount: 100,
		Frequency:          "Monthly",
		DurationMonths:     2,
		AllowPartial:       true,
	}
}

func TestServiceImpl_CreatePlan(t *testing.T) {
	t.Run("should create a plan with the creator in slot 0", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		created, err := service.CreatePlan(ctx, validInput())

		// then
		assert.NoError(t, err)
		assert.NotZero(t, created.Id)
		assert.Equal(t, []string{"xion1creator"}, created.Participants)
		assert.False(t, created.IsActive)
		assert.Equal(t, StatusOpen, created.Status())
		assert.Equal(t, AdmissionDirect, created.AdmissionPolicy)
	})

	t.Run("should compute total cycles from frequency and duration", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		input := validInput()
		input.Frequency = "Weekly"
		input.DurationMonths = 3

		// when
		created, err := service.CreatePlan(ctx, input)

		// then
		assert.NoError(t, err)
		assert.Equal(t, 12, created.TotalCycles())
	})

	t.Run("should reject out of bounds fields", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		tests := []struct {
			name   string
			mutate func(*CreateInput)
		}{
			{"too few participants", func(i *CreateInput) { i.TotalParticipants = 1 }},
			{"too many participants", func(i *CreateInput) { i.TotalParticipants = 101 }},
			{"contribution too small", func(i *CreateInput) { i.ContributionAmount = 9 }},
			{"contribution too large", func(i *CreateInput) { i.ContributionAmount = 100001 }},
			{"duration too short", func(i *CreateInput) { i.DurationMonths = 0 }},
			{"duration too long", func(i *CreateInput) { i.DurationMonths = 37 }},
			{"name too short", func(i *CreateInput) { i.Name = "ab" }},
			{"negative trust score", func(i *CreateInput) { i.TrustScoreRequired = -1 }},
			{"description too short", func(i *CreateInput) { i.Description = "short" }},
			{"unknown frequency", func(i *CreateInput) { i.Frequency = "Hourly" }},
			{"unknown admission policy", func(i *CreateInput) { i.AdmissionPolicy = "invite-only" }},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				input := validInput()
				tt.mutate(&input)

				_, err := service.CreatePlan(ctx, input)

				assert.ErrorIs(t, err, ErrInvalidInput)
			})
		}
	})

	t.Run("should return error when context has no caller", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		_, err := service.CreatePlan(context.Background(), validInput())

		// then
		assert.ErrorIs(t, err, caller.ErrNoCaller)
	})
}

func TestServiceImpl_GetPlan(t *testing.T) {
	t.Run("should get a plan successfully", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		created, err := service.CreatePlan(ctx, validInput())
		require.NoError(t, err)

		// when
		result, err := service.GetPlan(ctx, created.Id)

		// then
		assert.NoError(t, err)
		assert.Equal(t, created.Id, result.Id)
		assert.Equal(t, "Office Ajo", result.Name)
	})

	t.Run("should return not found for unknown plan", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		_, err := service.GetPlan(ctx, 42)

		// then
		assert.ErrorIs(t, err, ErrPlanNotFound)
	})
}

func TestServiceImpl_ListPlans(t *testing.T) {
	t.Run("should list all plans", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		_, err := service.CreatePlan(ctx, validInput())
		require.NoError(t, err)
		_, err = service.CreatePlan(ctx, validInput())
		require.NoError(t, err)

		// when
		plans, err := service.ListPlans(ctx)

		// then
		assert.NoError(t, err)
		assert.Len(t, plans, 2)
	})

	t.Run("should filter plans by creator", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		_, err := service.CreatePlan(ctx, validInput())
		require.NoError(t, err)
		otherCtx := caller.WithAddress(context.Background(), "xion1other")
		_, err = service.CreatePlan(otherCtx, validInput())
		require.NoError(t, err)

		// when
		plans, err := service.ListPlansByCreator(ctx, "xion1creator")

		// then
		assert.NoError(t, err)
		assert.Len(t, plans, 1)
		assert.Equal(t, "xion1creator", plans[0].CreatedBy)
	})
}

func TestServiceImpl_CountPlans(t *testing.T) {
	t.Run("should count plans", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		_, err := service.CreatePlan(ctx, validInput())
		require.NoError(t, err)
		_, err = service.CreatePlan(ctx, validInput())
		require.NoError(t, err)

		// when
		count, err := service.CountPlans(ctx)

		// then
		assert.NoError(t, err)
		assert.Equal(t, uint64(2), count)
	})
}

func TestServiceImpl_UpdatePlan(t *testing.T) {
	t.Run("should apply a partial update", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		created, err := service.CreatePlan(ctx, validInput())
		require.NoError(t, err)
		newName := "Neighbourhood Ajo"

		// when
		updated, err := service.UpdatePlan(ctx, created.Id, Update{Name: &newName})

		// then
		assert.NoError(t, err)
		assert.Equal(t, "Neighbourhood Ajo", updated.Name)
		assert.Equal(t, created.Description, updated.Description)
		assert.Equal(t, created.ContributionAmount, updated.ContributionAmount)
	})

	t.Run("should reject update from non creator", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		created, err := service.CreatePlan(ctx, validInput())
		require.NoError(t, err)
		newName := "Hijacked"
		otherCtx := caller.WithAddress(context.Background(), "xion1other")

		// when
		_, err = service.UpdatePlan(otherCtx, created.Id, Update{Name: &newName})

		// then
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("should reject update once plan is active", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		input := validInput()
		input.TotalParticipants = 2
		created, err := service.CreatePlan(ctx, input)
		require.NoError(t, err)
		_, err = planRepoStub.AddParticipant(ctx, created.Id, "xion1bob")
		require.NoError(t, err)
		newName := "Too Late"

		// when
		_, err = service.UpdatePlan(ctx, created.Id, Update{Name: &newName})

		// then
		assert.ErrorIs(t, err, ErrPlanActive)
	})

	t.Run("should validate merged fields", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		created, err := service.CreatePlan(ctx, validInput())
		require.NoError(t, err)
		badAmount := int64(5)

		// when
		_, err = service.UpdatePlan(ctx, created.Id, Update{ContributionAmount: &badAmount})

		// then
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("should reject a negative trust score", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		created, err := service.CreatePlan(ctx, validInput())
		require.NoError(t, err)
		negativeScore := -10

		// when
		_, err = service.UpdatePlan(ctx, created.Id, Update{TrustScoreRequired: &negativeScore})

		// then
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("should reject capacity below current membership", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		input := validInput()
		input.TotalParticipants = 4
		created, err := service.CreatePlan(ctx, input)
		require.NoError(t, err)
		_, err = planRepoStub.AddParticipant(ctx, created.Id, "xion1bob")
		require.NoError(t, err)
		_, err = planRepoStub.AddParticipant(ctx, created.Id, "xion1carol")
		require.NoError(t, err)
		capacity := 2

		// when
		_, err = service.UpdatePlan(ctx, created.Id, Update{TotalParticipants: &capacity})

		// then
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestServiceImpl_CancelPlan(t *testing.T) {
	t.Run("should cancel an open plan", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		created, err := service.CreatePlan(ctx, validInput())
		require.NoError(t, err)

		// when
		err = service.CancelPlan(ctx, created.Id)

		// then
		assert.NoError(t, err)
		p, err := service.GetPlan(ctx, created.Id)
		require.NoError(t, err)
		assert.True(t, p.IsCancelled)
		assert.Equal(t, StatusCancelled, p.Status())
	})

	t.Run("should reject cancel from non creator", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		created, err := service.CreatePlan(ctx, validInput())
		require.NoError(t, err)
		otherCtx := caller.WithAddress(context.Background(), "xion1other")

		// when
		err = service.CancelPlan(otherCtx, created.Id)

		// then
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("should reject cancel of an active plan", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		input := validInput()
		input.TotalParticipants = 2
		created, err := service.CreatePlan(ctx, input)
		require.NoError(t, err)
		_, err = planRepoStub.AddParticipant(ctx, created.Id, "xion1bob")
		require.NoError(t, err)

		// when
		err = service.CancelPlan(ctx, created.Id)

		// then
		assert.ErrorIs(t, err, ErrPlanActive)
	})

	t.Run("should reject double cancel", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		created, err := service.CreatePlan(ctx, validInput())
		require.NoError(t, err)
		require.NoError(t, service.CancelPlan(ctx, created.Id))

		// when
		err = service.CancelPlan(ctx, created.Id)

		// then
		assert.ErrorIs(t, err, ErrPlanCancelled)
	})
}

func TestServiceImpl_EmergencyWithdraw(t *testing.T) {
	t.Run("should return escrowed funds to the creator", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		created, err := service.CreatePlan(ctx, validInput())
		require.NoError(t, err)
		created.EscrowBalance = 250
		require.NoError(t, planRepoStub.Update(ctx, created))
		require.NoError(t, service.CancelPlan(ctx, created.Id))

		// when
		instruction, err := service.EmergencyWithdraw(ctx, created.Id)

		// then
		assert.NoError(t, err)
		assert.Equal(t, "xion1creator", instruction.Recipient)
		assert.Equal(t, int64(250), instruction.Amount)
		assert.Equal(t, "uxion", instruction.Denom)
		require.Len(t, transfersStub.Instructions, 1)
		assert.Equal(t, instruction, transfersStub.Instructions[0])

		p, err := service.GetPlan(ctx, created.Id)
		require.NoError(t, err)
		assert.Zero(t, p.EscrowBalance)
	})

	t.Run("should reject withdraw while plan is active", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		input := validInput()
		input.TotalParticipants = 2
		created, err := service.CreatePlan(ctx, input)
		require.NoError(t, err)
		_, err = planRepoStub.AddParticipant(ctx, created.Id, "xion1bob")
		require.NoError(t, err)

		// when
		_, err = service.EmergencyWithdraw(ctx, created.Id)

		// then
		assert.ErrorIs(t, err, ErrPlanActive)
		assert.Empty(t, transfersStub.Instructions)
	})

	t.Run("should reject withdraw from non creator", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		created, err := service.CreatePlan(ctx, validInput())
		require.NoError(t, err)
		otherCtx := caller.WithAddress(context.Background(), "xion1other")

		// when
		_, err = service.EmergencyWithdraw(otherCtx, created.Id)

		// then
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("should reject withdraw when nothing is escrowed", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		created, err := service.CreatePlan(ctx, validInput())
		require.NoError(t, err)

		// when
		_, err = service.EmergencyWithdraw(ctx, created.Id)

		// then
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Empty(t, transfersStub.Instructions)
	})
}
