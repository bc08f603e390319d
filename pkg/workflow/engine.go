package workflow

import (
	"math"
	"time"

	"github.com/getflash/salesops/pkg/models"
)

// Stage is one step in the fixed pipeline order.
type Stage string

const (
	StageNew         Stage = "new"
	StageContacted   Stage = "contacted"
	StageQualified   Stage = "qualified"
	StageOpportunity Stage = "opportunity"
	StageCustomer    Stage = "customer"
)

// stageOrder is the pipeline progression. History reconstruction and
// stage comparisons both rely on this order.
var stageOrder = []Stage{StageNew, StageContacted, StageQualified, StageOpportunity, StageCustomer}

// Index returns the zero-based position of the stage in the pipeline
// order, or -1 for an unknown stage.
func (s Stage) Index() int {
	for i, st := range stageOrder {
		if st == s {
			return i
		}
	}
	return -1
}

// Stages returns the pipeline order from new to customer.
func Stages() []Stage {
	out := make([]Stage, len(stageOrder))
	copy(out, stageOrder)
	return out
}

// Criteria are the BANT-style qualification flags derived from a
// submission.
type Criteria struct {
	HasBudget    bool `json:"hasBudget"`
	HasAuthority bool `json:"hasAuthority"`
	HasNeed      bool `json:"hasNeed"`
	HasTimeline  bool `json:"hasTimeline"`
}

// StageTransition is one reconstructed step of the pipeline history.
type StageTransition struct {
	FromStage      Stage     `json:"fromStage"`
	ToStage        Stage     `json:"toStage"`
	TransitionDate time.Time `json:"transitionDate"`
	PerformedBy    string    `json:"performedBy"`
}

// Workflow is the derived pipeline state for a submission. It is
// recomputed on demand and never persisted.
type Workflow struct {
	SubmissionID       string            `json:"submissionId"`
	CurrentStage       Stage             `json:"currentStage"`
	QualificationScore int               `json:"qualificationScore"`
	Criteria           Criteria          `json:"criteria"`
	StageHistory       []StageTransition `json:"stageHistory"`
	NextActions        []string          `json:"nextActions"`
	AssignedTo         string            `json:"assignedTo"`
}

// nextActions recommends followups per stage.
var nextActions = map[Stage][]string{
	StageNew:         {"Make initial contact", "Send introductory email"},
	StageContacted:   {"Schedule discovery call", "Send product information"},
	StageQualified:   {"Schedule product demo", "Prepare custom proposal"},
	StageOpportunity: {"Finalize proposal", "Get stakeholder buy-in"},
	StageCustomer:    {"Send onboarding materials", "Schedule implementation"},
}

// clampInterest keeps an interest level inside the documented 0..5
// range so derivations stay total over malformed records.
func clampInterest(level int) int {
	if level < 0 {
		return 0
	}
	if level > 5 {
		return 5
	}
	return level
}

// DeriveStage maps a submission to its pipeline stage. Rules are
// evaluated in order, first match wins.
func DeriveStage(s *models.Submission) Stage {
	interest := clampInterest(s.InterestLevel)
	switch {
	case s.SignedUp:
		return StageCustomer
	case interest >= 4 && s.PackageSeen:
		return StageOpportunity
	case interest >= 3:
		return StageQualified
	case s.PhoneNumber != "":
		return StageContacted
	default:
		return StageNew
	}
}

// Score computes the 0..100 qualification score:
// half the weight comes from interest level, the rest from having seen
// the package, named decision makers, and conversion.
func Score(s *models.Submission) int {
	interest := clampInterest(s.InterestLevel)
	score := int(math.Round(50 * float64(interest) / 5))
	if s.PackageSeen {
		score += 20
	}
	if s.DecisionMakers != "" {
		score += 10
	}
	if s.SignedUp {
		score += 20
	}
	return score
}

// DeriveCriteria computes the qualification flags.
func DeriveCriteria(s *models.Submission) Criteria {
	interest := clampInterest(s.InterestLevel)
	return Criteria{
		HasBudget:    interest >= 3,
		HasAuthority: s.DecisionMakers != "",
		HasNeed:      interest >= 2,
		HasTimeline:  interest >= 4,
	}
}

// FromSubmission derives the full workflow for a submission.
//
// The stage history is reconstructed from the submission's current
// state, one transition per boundary crossed from new up to the current
// stage. Transition times and performers are copied from the record
// itself; this is a best-effort reconstruction, not an audit log.
func FromSubmission(s *models.Submission) *Workflow {
	stage := DeriveStage(s)
	idx := stage.Index()

	performedBy := s.Username
	if performedBy == "" {
		performedBy = "System"
	}

	history := make([]StageTransition, 0, idx)
	for i := 1; i <= idx; i++ {
		history = append(history, StageTransition{
			FromStage:      stageOrder[i-1],
			ToStage:        stageOrder[i],
			TransitionDate: s.Timestamp,
			PerformedBy:    performedBy,
		})
	}

	return &Workflow{
		SubmissionID:       s.ID,
		CurrentStage:       stage,
		QualificationScore: Score(s),
		Criteria:           DeriveCriteria(s),
		StageHistory:       history,
		NextActions:        nextActions[stage],
		AssignedTo:         s.AssignedRep(),
	}
}

// IsNewLead reports whether the submission was created within the last
// seven days.
func IsNewLead(s *models.Submission) bool {
	return IsNewLeadAt(s, time.Now())
}

// IsNewLeadAt is IsNewLead against an explicit clock.
func IsNewLeadAt(s *models.Submission, now time.Time) bool {
	return s.Timestamp.After(now.AddDate(0, 0, -7)) || s.Timestamp.Equal(now.AddDate(0, 0, -7))
}

// IsActiveLead reports whether the submission is within the last thirty
// days and has not converted.
func IsActiveLead(s *models.Submission) bool {
	return IsActiveLeadAt(s, time.Now())
}

// IsActiveLeadAt is IsActiveLead against an explicit clock.
func IsActiveLeadAt(s *models.Submission, now time.Time) bool {
	cutoff := now.AddDate(0, 0, -30)
	return !s.SignedUp && (s.Timestamp.After(cutoff) || s.Timestamp.Equal(cutoff))
}

// IsStaleLead reports whether the submission is older than thirty days
// and has not converted. Stale leads feed the daily digest.
func IsStaleLead(s *models.Submission) bool {
	return IsStaleLeadAt(s, time.Now())
}

// IsStaleLeadAt is IsStaleLead against an explicit clock.
func IsStaleLeadAt(s *models.Submission, now time.Time) bool {
	return !s.SignedUp && s.Timestamp.Before(now.AddDate(0, 0, -30))
}
