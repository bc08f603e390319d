package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getflash/salesops/pkg/models"
)

func TestDeriveStage(t *testing.T) {
	tests := []struct {
		name string
		sub  models.Submission
		want Stage
	}{
		{"signed up wins over everything", models.Submission{SignedUp: true, InterestLevel: 0}, StageCustomer},
		{"high interest with package seen", models.Submission{InterestLevel: 4, PackageSeen: true}, StageOpportunity},
		{"high interest without package seen", models.Submission{InterestLevel: 4}, StageQualified},
		{"moderate interest", models.Submission{InterestLevel: 3}, StageQualified},
		{"phone only", models.Submission{InterestLevel: 1, PhoneNumber: "+18765550123"}, StageContacted},
		{"nothing yet", models.Submission{}, StageNew},
		{"interest above range is clamped", models.Submission{InterestLevel: 9}, StageQualified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStage(&tt.sub))
		})
	}
}

func TestScore(t *testing.T) {
	// 50*4/5 + 20 + 10 = 70
	sub := models.Submission{InterestLevel: 4, PackageSeen: true, DecisionMakers: "Jane CEO"}
	assert.Equal(t, 70, Score(&sub))

	// 50*2/5 = 20
	assert.Equal(t, 20, Score(&models.Submission{InterestLevel: 2}))

	// Everything maxed: 50 + 20 + 10 + 20 = 100
	full := models.Submission{InterestLevel: 5, PackageSeen: true, DecisionMakers: "Board", SignedUp: true}
	assert.Equal(t, 100, Score(&full))

	assert.Equal(t, 0, Score(&models.Submission{InterestLevel: -3}))
}

func TestScoreRounding(t *testing.T) {
	// 50*3/5 = 30 exactly, 50*1/5 = 10 exactly; interest is integral so
	// rounding only matters for clamped inputs.
	assert.Equal(t, 30, Score(&models.Submission{InterestLevel: 3}))
	assert.Equal(t, 50, Score(&models.Submission{InterestLevel: 7}))
}

func TestDeriveCriteria(t *testing.T) {
	c := DeriveCriteria(&models.Submission{InterestLevel: 4, DecisionMakers: "Jane"})
	assert.True(t, c.HasBudget)
	assert.True(t, c.HasAuthority)
	assert.True(t, c.HasNeed)
	assert.True(t, c.HasTimeline)

	c = DeriveCriteria(&models.Submission{InterestLevel: 2})
	assert.False(t, c.HasBudget)
	assert.False(t, c.HasAuthority)
	assert.True(t, c.HasNeed)
	assert.False(t, c.HasTimeline)
}

func TestFromSubmissionHistoryLength(t *testing.T) {
	tests := []struct {
		name  string
		sub   models.Submission
		stage Stage
	}{
		{"new has empty history", models.Submission{}, StageNew},
		{"contacted has one step", models.Submission{PhoneNumber: "+18765550123"}, StageContacted},
		{"customer walks the full pipeline", models.Submission{SignedUp: true}, StageCustomer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := FromSubmission(&tt.sub)
			assert.Equal(t, tt.stage, w.CurrentStage)
			assert.Len(t, w.StageHistory, tt.stage.Index())
		})
	}
}

func TestFromSubmissionHistoryShape(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	sub := models.Submission{ID: "sub-1", SignedUp: true, Username: "jdoe", Timestamp: ts}

	w := FromSubmission(&sub)
	require.Len(t, w.StageHistory, 4)

	// Transitions chain without gaps from new to customer.
	assert.Equal(t, StageNew, w.StageHistory[0].FromStage)
	for i, tr := range w.StageHistory {
		if i > 0 {
			assert.Equal(t, w.StageHistory[i-1].ToStage, tr.FromStage)
		}
		assert.Equal(t, ts, tr.TransitionDate)
		assert.Equal(t, "jdoe", tr.PerformedBy)
	}
	assert.Equal(t, StageCustomer, w.StageHistory[3].ToStage)
}

func TestFromSubmissionDefaultsPerformer(t *testing.T) {
	w := FromSubmission(&models.Submission{PhoneNumber: "+18765550123"})
	require.Len(t, w.StageHistory, 1)
	assert.Equal(t, "System", w.StageHistory[0].PerformedBy)
}

func TestFromSubmissionNextActions(t *testing.T) {
	w := FromSubmission(&models.Submission{InterestLevel: 3})
	assert.Equal(t, []string{"Schedule product demo", "Prepare custom proposal"}, w.NextActions)
}

func TestStageIndex(t *testing.T) {
	assert.Equal(t, 0, StageNew.Index())
	assert.Equal(t, 4, StageCustomer.Index())
	assert.Equal(t, -1, Stage("bogus").Index())
}

func TestLeadAgeClassification(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	fresh := models.Submission{Timestamp: now.AddDate(0, 0, -3)}
	assert.True(t, IsNewLeadAt(&fresh, now))
	assert.True(t, IsActiveLeadAt(&fresh, now))
	assert.False(t, IsStaleLeadAt(&fresh, now))

	// Boundaries are inclusive.
	weekOld := models.Submission{Timestamp: now.AddDate(0, 0, -7)}
	assert.True(t, IsNewLeadAt(&weekOld, now))

	monthOld := models.Submission{Timestamp: now.AddDate(0, 0, -30)}
	assert.False(t, IsNewLeadAt(&monthOld, now))
	assert.True(t, IsActiveLeadAt(&monthOld, now))
	assert.False(t, IsStaleLeadAt(&monthOld, now))

	old := models.Submission{Timestamp: now.AddDate(0, 0, -31)}
	assert.False(t, IsActiveLeadAt(&old, now))
	assert.True(t, IsStaleLeadAt(&old, now))

	// Converted submissions are never active or stale.
	converted := models.Submission{Timestamp: now.AddDate(0, 0, -60), SignedUp: true}
	assert.False(t, IsActiveLeadAt(&converted, now))
	assert.False(t, IsStaleLeadAt(&converted, now))
}

func TestStageAndScoreMonotonicity(t *testing.T) {
	// Sweep every combination of the contributing fields and check that
	// raising any one of them never moves the stage or score backwards.
	phones := []string{"", "+18765550123"}
	makers := []string{"", "Jane CEO"}

	for _, phone := range phones {
		for _, dm := range makers {
			for _, seen := range []bool{false, true} {
				for _, signed := range []bool{false, true} {
					prevStage, prevScore := -1, -1
					for interest := 0; interest <= 5; interest++ {
						sub := models.Submission{
							InterestLevel: interest, PackageSeen: seen,
							SignedUp: signed, PhoneNumber: phone, DecisionMakers: dm,
						}
						stage := DeriveStage(&sub).Index()
						score := Score(&sub)
						assert.GreaterOrEqual(t, stage, prevStage,
							"stage regressed at interest %d", interest)
						assert.GreaterOrEqual(t, score, prevScore,
							"score regressed at interest %d", interest)
						prevStage, prevScore = stage, score
					}
				}
			}
		}
	}

	// Toggling each boolean on, holding everything else fixed.
	for interest := 0; interest <= 5; interest++ {
		base := models.Submission{InterestLevel: interest}

		seen := base
		seen.PackageSeen = true
		assert.GreaterOrEqual(t, DeriveStage(&seen).Index(), DeriveStage(&base).Index())
		assert.GreaterOrEqual(t, Score(&seen), Score(&base))

		signed := base
		signed.SignedUp = true
		assert.GreaterOrEqual(t, DeriveStage(&signed).Index(), DeriveStage(&base).Index())
		assert.GreaterOrEqual(t, Score(&signed), Score(&base))

		dm := base
		dm.DecisionMakers = "Jane CEO"
		assert.GreaterOrEqual(t, Score(&dm), Score(&base))
	}
}
