package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getflash/salesops/pkg/auth"
	"github.com/getflash/salesops/pkg/domain"
	"github.com/getflash/salesops/pkg/logger"
	"github.com/getflash/salesops/pkg/models"
	"github.com/getflash/salesops/pkg/query"
	"github.com/getflash/salesops/pkg/store"
	"github.com/getflash/salesops/pkg/workflow"
)

var (
	manager = models.Actor{ID: "m1", Username: "boss", Role: auth.RoleManager}
	rep     = models.Actor{ID: "u1", Username: "jdoe", Role: auth.RoleRep}
)

func newTestService(t *testing.T) (*Service, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	compiler := query.NewCompiler(st, "getflash.io", logger.Default())
	return NewService(st, compiler, logger.Default()), st
}

func seed(t *testing.T, st *store.MemoryStore) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.CreateUser(ctx, &models.Identity{ID: "u1", Username: "jdoe", Email: "jdoe@getflash.io"}))

	now := time.Now().UTC()
	subs := []models.Submission{
		{ID: "s1", OwnerName: "Acme", Username: "jdoe", OwnerID: "u1", Timestamp: now},
		{ID: "s2", OwnerName: "Blue Mountain", Username: "jdoe", OwnerID: "u1", InterestLevel: 3, Timestamp: now},
		{ID: "s3", OwnerName: "Harbour", Username: "asmith", SignedUp: true, Timestamp: now},
	}
	for i := range subs {
		require.NoError(t, st.Insert(ctx, &subs[i]))
	}
}

func TestBoardGroupsByStage(t *testing.T) {
	svc, st := newTestService(t)
	seed(t, st)

	board, err := svc.Board(context.Background(), manager)
	require.NoError(t, err)

	// Every stage has a column even when empty, in pipeline order.
	require.Len(t, board.Columns, 5)
	assert.Equal(t, workflow.StageNew, board.Columns[0].Stage)
	assert.Equal(t, workflow.StageCustomer, board.Columns[4].Stage)

	assert.Len(t, board.Columns[0].Cards, 1) // s1
	assert.Empty(t, board.Columns[1].Cards)
	assert.Len(t, board.Columns[2].Cards, 1) // s2
	assert.Len(t, board.Columns[4].Cards, 1) // s3

	card := board.Columns[2].Cards[0]
	assert.Equal(t, "s2", card.Submission.ID)
	require.NotNil(t, card.Workflow)
	require.NotNil(t, card.Probability)
	assert.Equal(t, workflow.StageQualified, card.Workflow.CurrentStage)
}

func TestBoardScopedForReps(t *testing.T) {
	svc, st := newTestService(t)
	seed(t, st)

	board, err := svc.Board(context.Background(), rep)
	require.NoError(t, err)

	total := 0
	for _, col := range board.Columns {
		total += len(col.Cards)
		for _, card := range col.Cards {
			assert.Equal(t, "jdoe", card.Submission.Username)
		}
	}
	assert.Equal(t, 2, total)
}

func TestCard(t *testing.T) {
	svc, st := newTestService(t)
	seed(t, st)
	ctx := context.Background()

	card, err := svc.Card(ctx, rep, "s2")
	require.NoError(t, err)
	assert.Equal(t, workflow.StageQualified, card.Workflow.CurrentStage)
	assert.Equal(t, 35, card.Probability.StageBase)

	_, err = svc.Card(ctx, rep, "s3")
	assert.True(t, domain.IsForbidden(err))

	_, err = svc.Card(ctx, manager, "missing")
	assert.True(t, domain.IsNotFound(err))
}
