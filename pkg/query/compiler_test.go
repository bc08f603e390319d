package query

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getflash/salesops/pkg/domain"
	"github.com/getflash/salesops/pkg/logger"
	"github.com/getflash/salesops/pkg/models"
)

type fakeDirectory struct {
	users map[string]*models.Identity
	err   error
}

func (d *fakeDirectory) LookupUser(ctx context.Context, username, email string) (*models.Identity, error) {
	if d.err != nil {
		return nil, d.err
	}
	if u, ok := d.users[username]; ok {
		return u, nil
	}
	return nil, nil
}

func newTestCompiler(dir *fakeDirectory) *Compiler {
	if dir == nil {
		dir = &fakeDirectory{}
	}
	return NewCompiler(dir, "getflash.io", logger.Default())
}

func TestCompilePagination(t *testing.T) {
	c := newTestCompiler(nil)

	plan, err := c.Compile(context.Background(), models.SubmissionFilters{}, models.Pagination{PageIndex: 2, PageSize: 10}, nil)
	require.NoError(t, err)

	assert.Equal(t, 20, plan.Offset)
	assert.Equal(t, 10, plan.Limit)
}

func TestCompileDefaultPageSize(t *testing.T) {
	c := newTestCompiler(nil)

	plan, err := c.Compile(context.Background(), models.SubmissionFilters{}, models.Pagination{}, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, plan.Offset)
	assert.Equal(t, models.DefaultPageSize, plan.Limit)
}

func TestCompileRejectsNegativePaging(t *testing.T) {
	c := newTestCompiler(nil)

	_, err := c.Compile(context.Background(), models.SubmissionFilters{}, models.Pagination{PageIndex: -1, PageSize: 10}, nil)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))

	_, err = c.Compile(context.Background(), models.SubmissionFilters{}, models.Pagination{PageIndex: 0, PageSize: -5}, nil)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestCompileSearchTextFields(t *testing.T) {
	c := newTestCompiler(nil)

	plan, err := c.Compile(context.Background(), models.SubmissionFilters{Search: "  Acme  "}, models.Pagination{PageSize: 10}, nil)
	require.NoError(t, err)
	require.Len(t, plan.Conjuncts, 1)

	preds := plan.Conjuncts[0].Any
	require.Len(t, preds, 4)
	fields := make([]string, 0, len(preds))
	for _, p := range preds {
		assert.Equal(t, OpContains, p.Op)
		assert.Equal(t, "acme", p.Value)
		fields = append(fields, p.Field)
	}
	assert.ElementsMatch(t, []string{FieldName, FieldDecisionMaker, FieldSpecificNeeds, FieldDescription}, fields)
}

func TestCompileSearchNumericTerm(t *testing.T) {
	c := newTestCompiler(nil)

	plan, err := c.Compile(context.Background(), models.SubmissionFilters{Search: "42"}, models.Pagination{PageSize: 10}, nil)
	require.NoError(t, err)
	require.Len(t, plan.Conjuncts, 1)

	preds := plan.Conjuncts[0].Any
	require.Len(t, preds, 6)
	assert.Equal(t, Predicate{Field: FieldInterestLevel, Op: OpEq, Value: 42.0}, preds[4])
	assert.Equal(t, Predicate{Field: FieldAmount, Op: OpEq, Value: 42.0}, preds[5])
}

func TestCompileSearchConversionKeywords(t *testing.T) {
	c := newTestCompiler(nil)

	tests := []struct {
		term      string
		seenValue bool
		statusOp  Op
	}{
		{"yes", true, OpEq},
		{"TRUE", true, OpEq},
		{"signed up", true, OpEq},
		{"no", false, OpNeq},
		{"false", false, OpNeq},
		{"prospect", false, OpNeq},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			plan, err := c.Compile(context.Background(), models.SubmissionFilters{Search: tt.term}, models.Pagination{PageSize: 10}, nil)
			require.NoError(t, err)
			require.Len(t, plan.Conjuncts, 1)

			preds := plan.Conjuncts[0].Any
			require.Len(t, preds, 6)
			assert.Equal(t, Predicate{Field: FieldPackageSeen, Op: OpEq, Value: tt.seenValue}, preds[4])
			assert.Equal(t, Predicate{Field: FieldStatus, Op: tt.statusOp, Value: StatusWon}, preds[5])
		})
	}
}

func TestCompileDateRange(t *testing.T) {
	c := newTestCompiler(nil)

	f := models.SubmissionFilters{DateRange: &models.DateRange{Start: "2024-01-01", End: "2024-01-31"}}
	plan, err := c.Compile(context.Background(), f, models.Pagination{PageSize: 10}, nil)
	require.NoError(t, err)
	require.Len(t, plan.Conjuncts, 2)

	start := plan.Conjuncts[0].Any[0]
	assert.Equal(t, FieldCreatedAt, start.Field)
	assert.Equal(t, OpGte, start.Op)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), start.Value)

	// End bound extends through the last instant of the day.
	end := plan.Conjuncts[1].Any[0]
	assert.Equal(t, FieldCreatedAt, end.Field)
	assert.Equal(t, OpLte, end.Op)
	assert.Equal(t, time.Date(2024, 1, 31, 23, 59, 59, 999999999, time.UTC), end.Value)
}

func TestCompileDateRangeRejectsBadFormat(t *testing.T) {
	c := newTestCompiler(nil)

	f := models.SubmissionFilters{DateRange: &models.DateRange{Start: "01/15/2024"}}
	_, err := c.Compile(context.Background(), f, models.Pagination{PageSize: 10}, nil)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestCompileInterestAndFlags(t *testing.T) {
	c := newTestCompiler(nil)
	yes := true
	no := false

	f := models.SubmissionFilters{InterestLevel: []int{3, 4, 5}, SignedUp: &yes, PackageSeen: &no}
	plan, err := c.Compile(context.Background(), f, models.Pagination{PageSize: 10}, nil)
	require.NoError(t, err)
	require.Len(t, plan.Conjuncts, 3)

	assert.Equal(t, Predicate{Field: FieldInterestLevel, Op: OpIn, Value: []int{3, 4, 5}}, plan.Conjuncts[0].Any[0])
	assert.Equal(t, Predicate{Field: FieldStatus, Op: OpEq, Value: StatusWon}, plan.Conjuncts[1].Any[0])
	assert.Equal(t, Predicate{Field: FieldPackageSeen, Op: OpEq, Value: false}, plan.Conjuncts[2].Any[0])
}

func TestCompileSignedUpFalse(t *testing.T) {
	c := newTestCompiler(nil)
	no := false

	plan, err := c.Compile(context.Background(), models.SubmissionFilters{SignedUp: &no}, models.Pagination{PageSize: 10}, nil)
	require.NoError(t, err)
	require.Len(t, plan.Conjuncts, 1)
	assert.Equal(t, Predicate{Field: FieldStatus, Op: OpNeq, Value: StatusWon}, plan.Conjuncts[0].Any[0])
}

func TestCompileUsernameResolved(t *testing.T) {
	dir := &fakeDirectory{users: map[string]*models.Identity{
		"jdoe": {ID: "user-1", Username: "jdoe", Email: "jdoe@getflash.io"},
	}}
	c := newTestCompiler(dir)

	plan, err := c.Compile(context.Background(), models.SubmissionFilters{Username: "jdoe"}, models.Pagination{PageSize: 10}, nil)
	require.NoError(t, err)
	require.Len(t, plan.Conjuncts, 1)
	assert.Equal(t, Predicate{Field: FieldOwnerID, Op: OpEq, Value: "user-1"}, plan.Conjuncts[0].Any[0])
	assert.False(t, plan.MatchNone)
}

func TestCompileUsernameUnassigned(t *testing.T) {
	c := newTestCompiler(nil)

	plan, err := c.Compile(context.Background(), models.SubmissionFilters{Username: models.Unassigned}, models.Pagination{PageSize: 10}, nil)
	require.NoError(t, err)
	require.Len(t, plan.Conjuncts, 1)
	assert.Equal(t, FieldOwnerID, plan.Conjuncts[0].Any[0].Field)
	assert.Equal(t, OpIsNull, plan.Conjuncts[0].Any[0].Op)
}

func TestCompileUsernameUnknownMatchesNothing(t *testing.T) {
	c := newTestCompiler(&fakeDirectory{})

	plan, err := c.Compile(context.Background(), models.SubmissionFilters{Username: "ghost"}, models.Pagination{PageSize: 10}, nil)
	require.NoError(t, err)
	assert.True(t, plan.MatchNone)
}

func TestCompileUsernameLookupFailure(t *testing.T) {
	c := newTestCompiler(&fakeDirectory{err: errors.New("directory down")})

	_, err := c.Compile(context.Background(), models.SubmissionFilters{Username: "jdoe"}, models.Pagination{PageSize: 10}, nil)
	require.Error(t, err)
	assert.True(t, domain.IsLookupFailed(err))
}

func TestCompileSortDefault(t *testing.T) {
	c := newTestCompiler(nil)

	plan, err := c.Compile(context.Background(), models.SubmissionFilters{}, models.Pagination{PageSize: 10}, nil)
	require.NoError(t, err)
	assert.Equal(t, SortKey{Field: FieldCreatedAt, Desc: true}, plan.Sort)
}

func TestCompileSortRemapsLogicalNames(t *testing.T) {
	c := newTestCompiler(nil)

	tests := []struct {
		logical string
		backend string
	}{
		{"timestamp", FieldCreatedAt},
		{"interestLevel", FieldInterestLevel},
		{"signedUp", FieldStatus},
		{"ownerName", "organization.name"},
		{"username", "owner.email"},
		{"created_at", FieldCreatedAt}, // backend names pass through
	}

	for _, tt := range tests {
		plan, err := c.Compile(context.Background(), models.SubmissionFilters{}, models.Pagination{PageSize: 10}, []models.SortOption{{ID: tt.logical, Desc: false}})
		require.NoError(t, err)
		assert.Equal(t, tt.backend, plan.Sort.Field, "sort field for %q", tt.logical)
		assert.False(t, plan.Sort.Desc)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "acme corp", Normalize("  ACME Corp "))
	assert.Equal(t, "", Normalize("   "))
}
