package probability

import (
	"math"
	"time"

	"github.com/getflash/salesops/pkg/models"
	"github.com/getflash/salesops/pkg/workflow"
)

// DealProbability is the estimated chance (0..100) that a deal closes,
// with the individual factor contributions exposed so callers can show
// a breakdown.
type DealProbability struct {
	SubmissionID     string `json:"submissionId"`
	StageBase        int    `json:"stageBase"`
	ScoreFactor      int    `json:"scoreFactor"`
	RecencyPenalty   int    `json:"recencyPenalty"`
	InterestBonus    int    `json:"interestBonus"`
	FinalProbability int    `json:"finalProbability"`
}

// stageBase is the close rate implied by pipeline position alone.
var stageBase = map[workflow.Stage]int{
	workflow.StageNew:         5,
	workflow.StageContacted:   15,
	workflow.StageQualified:   35,
	workflow.StageOpportunity: 60,
	workflow.StageCustomer:    95,
}

// Estimate computes the close probability for a workflow/submission
// pair using the current time as the recency reference.
func Estimate(w *workflow.Workflow, s *models.Submission) *DealProbability {
	return EstimateAt(w, s, time.Now())
}

// EstimateAt combines four factors: the stage base rate, a quarter of
// the qualification score, a staleness penalty, and a small bonus for
// interested prospects who have already seen the package. The sum is
// clamped to 0..100.
func EstimateAt(w *workflow.Workflow, s *models.Submission, now time.Time) *DealProbability {
	base := stageBase[w.CurrentStage]
	scoreFactor := int(math.Round(float64(w.QualificationScore) * 0.25))

	penalty := 0
	if workflow.IsStaleLeadAt(s, now) {
		penalty = -15
	} else if !s.SignedUp && s.Timestamp.Before(now.AddDate(0, 0, -14)) {
		penalty = -5
	}

	bonus := 0
	if s.PackageSeen {
		level := s.InterestLevel
		if level < 0 {
			level = 0
		} else if level > 5 {
			level = 5
		}
		bonus = level * 2
	}

	final := base + scoreFactor + penalty + bonus
	if final < 0 {
		final = 0
	} else if final > 100 {
		final = 100
	}

	return &DealProbability{
		SubmissionID:     s.ID,
		StageBase:        base,
		ScoreFactor:      scoreFactor,
		RecencyPenalty:   penalty,
		InterestBonus:    bonus,
		FinalProbability: final,
	}
}
