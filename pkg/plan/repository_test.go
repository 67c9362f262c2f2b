package plan

import (
	"context"
	"os"
	"testing"

	"github.com/ajohq/ajo/internal/test_utils"
	"github.com/ajohq/ajo/internal/utils"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var db *pgxpool.Pool

func TestMain(m *testing.M) {
	container, connect := test_utils.TestWithDB()
	db = connect()
	code := m.Run()
	db.Close()
	_ = container.Terminate(context.Background())
	os.Exit(code)
}

func setupTestRepository(t *testing.T) (context.Context, Repository) {
	t.Helper()
	return context.Background(), NewRepository(db, &utils.SystemClock{})
}

func testPlan(name string) Plan {
	return Plan{
		Name:               name,
		Description:        "A rotating savings circle for testing",
		TotalParticipants:  3,
		ContributionAmount: 100,
		Frequency:          FrequencyMonthly,
		DurationMonths:     2,
		AllowPartial:       true,
		AdmissionPolicy:    AdmissionDirect,
		CreatedBy:          "xion1creator",
	}
}

func TestRepositoryImpl_Create(t *testing.T) {
	// given
	ctx, repo := setupTestRepository(t)

	// when
	created, err := repo.Create(ctx, testPlan("Create Roundtrip"))
	require.NoError(t, err)

	// then
	stored, err := repo.Get(ctx, created.Id)
	require.NoError(t, err)
	assert.Equal(t, "Create Roundtrip", stored.Name)
	assert.Equal(t, []string{"xion1creator"}, stored.Participants)
	assert.False(t, stored.IsActive)
	assert.Zero(t, stored.EscrowBalance)
	assert.False(t, stored.CreatedAt.IsZero())
}

func TestRepositoryImpl_Get_NotFound(t *testing.T) {
	// given
	ctx, repo := setupTestRepository(t)

	// when
	_, err := repo.Get(ctx, 999999)

	// then
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestRepositoryImpl_AddParticipant(t *testing.T) {
	// given
	ctx, repo := setupTestRepository(t)
	created, err := repo.Create(ctx, testPlan("Participant Order"))
	require.NoError(t, err)

	// when
	withBob, err := repo.AddParticipant(ctx, created.Id, "xion1bob")
	require.NoError(t, err)

	// then participants keep admission order and the plan stays open
	assert.Equal(t, []string{"xion1creator", "xion1bob"}, withBob.Participants)
	assert.False(t, withBob.IsActive)

	// when the last slot fills
	full, err := repo.AddParticipant(ctx, created.Id, "xion1carol")
	require.NoError(t, err)

	// then the plan activates
	assert.True(t, full.IsActive)
	stored, err := repo.Get(ctx, created.Id)
	require.NoError(t, err)
	assert.True(t, stored.IsActive)
	assert.Equal(t, []string{"xion1creator", "xion1bob", "xion1carol"}, stored.Participants)
}

func TestRepositoryImpl_Update(t *testing.T) {
	// given
	ctx, repo := setupTestRepository(t)
	created, err := repo.Create(ctx, testPlan("Before Update"))
	require.NoError(t, err)

	// when
	created.Name = "After Update"
	created.CurrentCycle = 1
	created.PayoutIndex = 1
	created.EscrowBalance = 300
	require.NoError(t, repo.Update(ctx, created))

	// then
	stored, err := repo.Get(ctx, created.Id)
	require.NoError(t, err)
	assert.Equal(t, "After Update", stored.Name)
	assert.Equal(t, 1, stored.CurrentCycle)
	assert.Equal(t, 1, stored.PayoutIndex)
	assert.Equal(t, int64(300), stored.EscrowBalance)
}

func TestRepositoryImpl_Update_NotFound(t *testing.T) {
	// given
	ctx, repo := setupTestRepository(t)
	missing := testPlan("Missing")
	missing.Id = 999999

	// when
	err := repo.Update(ctx, missing)

	// then
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestRepositoryImpl_ListByCreator(t *testing.T) {
	// given
	ctx, repo := setupTestRepository(t)
	mine := testPlan("Mine")
	mine.CreatedBy = "xion1lister"
	_, err := repo.Create(ctx, mine)
	require.NoError(t, err)

	// when
	plans, err := repo.ListByCreator(ctx, "xion1lister")

	// then
	require.NoError(t, err)
	require.Len(t, plans, 1)
	assert.Equal(t, "Mine", plans[0].Name)
	assert.Equal(t, []string{"xion1lister"}, plans[0].Participants)
}

func TestRepositoryImpl_Count(t *testing.T) {
	// given
	ctx, repo := setupTestRepository(t)
	before, err := repo.Count(ctx)
	require.NoError(t, err)

	// when
	_, err = repo.Create(ctx, testPlan("Counted"))
	require.NoError(t, err)

	// then
	after, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)
}

func TestRepositoryImpl_WithdrawEscrow(t *testing.T) {
	// given
	ctx, repo := setupTestRepository(t)
	created, err := repo.Create(ctx, testPlan("Escrowed"))
	require.NoError(t, err)
	created.EscrowBalance = 500
	require.NoError(t, repo.Update(ctx, created))

	// when
	amount, err := repo.WithdrawEscrow(ctx, created.Id)

	// then
	require.NoError(t, err)
	assert.Equal(t, int64(500), amount)

	stored, err := repo.Get(ctx, created.Id)
	require.NoError(t, err)
	assert.Zero(t, stored.EscrowBalance)

	// a second withdrawal finds nothing left
	amount, err = repo.WithdrawEscrow(ctx, created.Id)
	require.NoError(t, err)
	assert.Zero(t, amount)
}
