package activity

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ajohq/ajo/internal/test_utils"
	"github.com/ajohq/ajo/internal/utils"
	"github.com/ajohq/ajo/pkg/plan"
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

func createFeedPlan(t *testing.T, ctx context.Context, name string) plan.Plan {
	t.Helper()
	created, err := plan.NewRepository(db, &utils.SystemClock{}).Create(ctx, plan.Plan{
		Name:               name,
		Description:        "A rotating savings circle for testing",
		TotalParticipants:  3,
		ContributionAmount: 100,
		Frequency:          plan.FrequencyMonthly,
		DurationMonths:     2,
		AdmissionPolicy:    plan.AdmissionDirect,
		CreatedBy:          "xion1creator",
	})
	require.NoError(t, err)
	return created
}

func TestRepositoryImpl_RecordAndList(t *testing.T) {
	// given
	ctx := context.Background()
	p := createFeedPlan(t, ctx, "Feed Roundtrip")
	repo := NewRepository(db)

	// when
	first, err := repo.Record(ctx, Entry{
		PlanId:     p.Id,
		EventType:  "plan.created",
		Actor:      "xion1creator",
		Detail:     "plan created",
		OccurredAt: time.Now(),
	})
	require.NoError(t, err)
	second, err := repo.Record(ctx, Entry{
		PlanId:     p.Id,
		EventType:  "member.joined",
		Actor:      "xion1bob",
		Detail:     "joined rotation slot 1",
		OccurredAt: time.Now(),
	})
	require.NoError(t, err)

	// then
	assert.NotZero(t, first.Id)
	assert.Greater(t, second.Id, first.Id)
	entries, err := repo.ListForPlan(ctx, p.Id)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "plan created", entries[0].Detail)
	assert.Equal(t, "xion1bob", entries[1].Actor)
	assert.False(t, entries[0].OccurredAt.IsZero())
}

func TestRepositoryImpl_ListForPlan_Empty(t *testing.T) {
	// given
	ctx := context.Background()
	p := createFeedPlan(t, ctx, "Feed Empty")
	repo := NewRepository(db)

	// when
	entries, err := repo.ListForPlan(ctx, p.Id)

	// then
	assert.NoError(t, err)
	assert.Empty(t, entries)
}
