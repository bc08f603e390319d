package reptracking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getflash/salesops/pkg/auth"
	"github.com/getflash/salesops/pkg/domain"
	"github.com/getflash/salesops/pkg/logger"
	"github.com/getflash/salesops/pkg/models"
	"github.com/getflash/salesops/pkg/store"
)

var (
	manager = models.Actor{ID: "m1", Username: "boss", Role: auth.RoleManager}
	rep     = models.Actor{ID: "u1", Username: "jdoe", Role: auth.RoleRep}
)

func newTestService() *Service {
	return NewService(store.NewMemoryStore(), logger.Default())
}

func TestUpsertRequiresMonday(t *testing.T) {
	svc := newTestService()

	// 2024-06-04 is a Tuesday.
	_, err := svc.Upsert(context.Background(), rep, models.RepWeeklyUpsert{
		RepName: "jdoe", WeekStartDate: "2024-06-04", SubmittedMondayUpdate: true,
	})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestUpsertRejectsBadDate(t *testing.T) {
	svc := newTestService()

	_, err := svc.Upsert(context.Background(), rep, models.RepWeeklyUpsert{
		RepName: "jdoe", WeekStartDate: "June 3rd",
	})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))

	_, err = svc.Upsert(context.Background(), rep, models.RepWeeklyUpsert{WeekStartDate: "2024-06-03"})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestUpsertOwnWeek(t *testing.T) {
	svc := newTestService()

	got, err := svc.Upsert(context.Background(), rep, models.RepWeeklyUpsert{
		RepName: "jdoe", WeekStartDate: "2024-06-03", SubmittedMondayUpdate: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "jdoe", got.RepName)
	assert.True(t, got.SubmittedMondayUpdate)
	assert.False(t, got.AttendedTuesdayCall)
}

func TestUpsertForbiddenForOtherReps(t *testing.T) {
	svc := newTestService()

	_, err := svc.Upsert(context.Background(), rep, models.RepWeeklyUpsert{
		RepName: "asmith", WeekStartDate: "2024-06-03",
	})
	assert.True(t, domain.IsForbidden(err))

	// Managers can record for anyone.
	_, err = svc.Upsert(context.Background(), manager, models.RepWeeklyUpsert{
		RepName: "asmith", WeekStartDate: "2024-06-03",
	})
	require.NoError(t, err)
}

func TestUpsertSameWeekOverwrites(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	first, err := svc.Upsert(ctx, rep, models.RepWeeklyUpsert{
		RepName: "jdoe", WeekStartDate: "2024-06-03", SubmittedMondayUpdate: true,
	})
	require.NoError(t, err)

	second, err := svc.Upsert(ctx, rep, models.RepWeeklyUpsert{
		RepName: "jdoe", WeekStartDate: "2024-06-03", AttendedTuesdayCall: true,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.False(t, second.SubmittedMondayUpdate)
	assert.True(t, second.AttendedTuesdayCall)

	weeks, err := svc.List(ctx, rep, models.RepTrackingFilters{})
	require.NoError(t, err)
	assert.Len(t, weeks, 1)
}

func TestListScoping(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.Upsert(ctx, manager, models.RepWeeklyUpsert{RepName: "jdoe", WeekStartDate: "2024-06-03"})
	require.NoError(t, err)
	_, err = svc.Upsert(ctx, manager, models.RepWeeklyUpsert{RepName: "asmith", WeekStartDate: "2024-06-03"})
	require.NoError(t, err)

	all, err := svc.List(ctx, manager, models.RepTrackingFilters{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := svc.List(ctx, rep, models.RepTrackingFilters{RepName: "asmith"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "jdoe", mine[0].RepName)
}
